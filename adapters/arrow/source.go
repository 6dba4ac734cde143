// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package arrow serves Apache Arrow tables and Parquet files as record
// sources, and exports table models through Arrow.
package arrow

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"qtab/datatable"
)

const (
	// MetadataKind is the field metadata key holding a datatable.FieldKind name.
	MetadataKind = "kind"

	// MetadataBuild is the schema metadata key holding the build number.
	MetadataBuild = "build"

	// KindName is reported by sources created by this package.
	KindName = "ParquetFile"
)

const hashWidth = 16

// Source is a datatable.Source over an Arrow table.
type Source struct {
	table   arrow.Table
	path    string
	build   int
	columns []datatable.FieldDescriptor
	chunks  [][]arrow.Array
	offsets [][]int
}

// NewFromArrowTable wraps table. The table is retained until Close.
//
// The build comes from the schema metadata; datatable.BuildAuto accepts
// whatever the table carries and an explicit build must match it.
func NewFromArrowTable(table arrow.Table, path string, build int) (*Source, error) {
	return newSource(table, path, build, table.Schema().Metadata())
}

// newSource wraps table, taking the build from md.
func newSource(table arrow.Table, path string, build int, md arrow.Metadata) (*Source, error) {
	schema := table.Schema()

	resolved, err := resolveBuild(md, build)
	if err != nil {
		return nil, &datatable.StructureError{Path: path, Build: build, Err: err}
	}

	columns := make([]datatable.FieldDescriptor, len(schema.Fields()))
	for i, field := range schema.Fields() {
		kind, err := fieldKind(field)
		if err != nil {
			return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured,
				fmt.Sprintf("column %s: %v", field.Name, err))
		}
		columns[i] = datatable.FieldDescriptor{Name: field.Name, Kind: kind}
	}

	s := &Source{
		table:   table,
		path:    path,
		build:   resolved,
		columns: columns,
		chunks:  make([][]arrow.Array, len(columns)),
		offsets: make([][]int, len(columns)),
	}
	for i := range columns {
		chunks := table.Column(i).Data().Chunks()
		offs := make([]int, len(chunks))
		n := 0
		for j, c := range chunks {
			offs[j] = n
			n += c.Len()
		}
		s.chunks[i] = chunks
		s.offsets[i] = offs
	}

	table.Retain()
	return s, nil
}

// OpenParquet reads a Parquet file into memory and wraps it.
func OpenParquet(path string, build int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(parquet.NewReaderProperties(memory.DefaultAllocator)))
	if err != nil {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, err.Error())
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, err.Error())
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read parquet data from %s: %w", path, err)
	}
	defer table.Release()

	// pqarrow does not carry the file key/value metadata over to the
	// table schema, so the build is read from the Parquet footer.
	md := table.Schema().Metadata()
	if v := pf.MetaData().KeyValueMetadata().FindValue(MetadataBuild); v != nil {
		md = arrow.NewMetadata([]string{MetadataBuild}, []string{*v})
	}
	return newSource(table, path, build, md)
}

func resolveBuild(md arrow.Metadata, build int) (int, error) {
	idx := md.FindKey(MetadataBuild)
	if idx < 0 {
		if build == datatable.BuildAuto {
			return 0, nil
		}
		return build, nil
	}

	fileBuild, err := strconv.Atoi(md.Values()[idx])
	if err != nil {
		return 0, fmt.Errorf("%w: build metadata %q", datatable.ErrNotStructured, md.Values()[idx])
	}
	if build != datatable.BuildAuto && build != fileBuild {
		return 0, fmt.Errorf("%w: file was written for build %d", datatable.ErrIncompatibleBuild, fileBuild)
	}
	return fileBuild, nil
}

func fieldKind(field arrow.Field) (datatable.FieldKind, error) {
	if idx := field.Metadata.FindKey(MetadataKind); idx >= 0 {
		return datatable.ParseFieldKind(field.Metadata.Values()[idx])
	}
	switch t := field.Type.(type) {
	case *arrow.FixedSizeBinaryType:
		if t.ByteWidth == hashWidth {
			return datatable.KindHashBytes, nil
		}
		return datatable.KindOpaqueData, nil
	case *arrow.BinaryType, *arrow.LargeBinaryType:
		return datatable.KindOpaqueData, nil
	default:
		return datatable.KindPlain, nil
	}
}

// Table returns the wrapped table. It stays valid until Close.
func (s *Source) Table() arrow.Table { return s.table }

// Len implements datatable.Source.
func (s *Source) Len() int { return int(s.table.NumRows()) }

// Columns implements datatable.Source.
func (s *Source) Columns() []datatable.FieldDescriptor { return s.columns }

// Build implements datatable.Source.
func (s *Source) Build() int { return s.build }

// Path implements datatable.Source.
func (s *Source) Path() string { return s.path }

// KindName implements datatable.Source.
func (s *Source) KindName() string { return KindName }

// Close implements datatable.Source.
func (s *Source) Close() error {
	if s.table != nil {
		s.table.Release()
		s.table = nil
	}
	return nil
}

// FetchRange implements datatable.Source.
func (s *Source) FetchRange(start, count int) ([]datatable.Row, error) {
	if s.table == nil {
		return nil, fmt.Errorf("fetch from %s: source closed", s.path)
	}
	if start < 0 || count < 0 {
		return nil, fmt.Errorf("%w: range %d+%d", datatable.ErrInvalidRow, start, count)
	}
	n := min(count, s.Len()-start)
	if n <= 0 {
		return nil, nil
	}

	rows := make([]datatable.Row, n)
	for i := range rows {
		rows[i] = make(datatable.Row, len(s.columns))
	}
	for col := range s.columns {
		for i := range rows {
			arr, pos := s.locate(col, start+i)
			rows[i][col] = value(arr, pos)
		}
	}
	return rows, nil
}

func (s *Source) locate(col, row int) (arrow.Array, int) {
	offs := s.offsets[col]
	k := sort.Search(len(offs), func(j int) bool { return offs[j] > row }) - 1
	return s.chunks[col][k], row - offs[k]
}

// value converts an Arrow value to a datatable raw value.
func value(col arrow.Array, pos int) any {
	if col.IsNull(pos) {
		return nil
	}

	switch a := col.(type) {
	case *array.Int8:
		return int64(a.Value(pos))
	case *array.Int16:
		return int64(a.Value(pos))
	case *array.Int32:
		return int64(a.Value(pos))
	case *array.Int64:
		return a.Value(pos)
	case *array.Uint8:
		return uint64(a.Value(pos))
	case *array.Uint16:
		return uint64(a.Value(pos))
	case *array.Uint32:
		return uint64(a.Value(pos))
	case *array.Uint64:
		return a.Value(pos)
	case *array.Float32:
		return a.Value(pos)
	case *array.Float64:
		return a.Value(pos)
	case *array.Boolean:
		return a.Value(pos)
	case *array.String:
		return a.Value(pos)
	case *array.LargeString:
		return a.Value(pos)
	case *array.Binary:
		return bytes.Clone(a.Value(pos))
	case *array.LargeBinary:
		return bytes.Clone(a.Value(pos))
	case *array.FixedSizeBinary:
		return bytes.Clone(a.Value(pos))
	case *array.Date32:
		return a.Value(pos).ToTime().Format("2006-01-02")
	case *array.Date64:
		return a.Value(pos).ToTime().Format("2006-01-02")
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(pos).ToTime(unit).Format("2006-01-02 15:04:05.999999999")
	default:
		return col.ValueStr(pos)
	}
}
