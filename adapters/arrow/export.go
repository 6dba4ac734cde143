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

package arrow

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"qtab/datatable"
)

const parquetChunkSize = 64 * 1024

// ToArrowTable converts the loaded rows of m, in display order, to an Arrow
// table. Column types are inferred from the raw values; columns mixing value
// types become strings. Field kinds are kept in field metadata and the build
// in schema metadata. The caller must release the table.
func ToArrowTable(m *datatable.TableModel, mem memory.Allocator) (arrow.Table, error) {
	columns := m.Columns()
	rows := m.Rows()

	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     inferType(rows, i),
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{MetadataKind}, []string{c.Kind.String()}),
		}
	}

	var md arrow.Metadata
	if src := m.Source(); src != nil {
		md = arrow.NewMetadata([]string{MetadataBuild}, []string{strconv.Itoa(src.Build())})
	}
	schema := arrow.NewSchema(fields, &md)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i := range columns {
		fb := b.Field(i)
		for _, row := range rows {
			if err := appendValue(fb, row[i]); err != nil {
				return nil, fmt.Errorf("column %s: %w", columns[i].Name, err)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	return array.NewTableFromRecords(schema, []arrow.Record{rec}), nil
}

// WriteParquet exports the loaded rows of m as a Snappy compressed Parquet
// file with the Arrow schema stored alongside.
func WriteParquet(w io.Writer, m *datatable.TableModel) error {
	table, err := ToArrowTable(m, memory.NewGoAllocator())
	if err != nil {
		return fmt.Errorf("%w: %w", datatable.ErrExportFailed, err)
	}
	defer table.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	// The Parquet writer closes its sink; hide Close so the caller keeps
	// ownership of w.
	sink := struct{ io.Writer }{w}
	if err := pqarrow.WriteTable(table, sink, parquetChunkSize, props, arrowProps); err != nil {
		return fmt.Errorf("%w: write parquet: %w", datatable.ErrExportFailed, err)
	}
	return nil
}

// WriteJSON exports the loaded rows of m as an indented JSON array of
// objects. Binary values are hex encoded.
func WriteJSON(w io.Writer, m *datatable.TableModel) error {
	table, err := ToArrowTable(m, memory.NewGoAllocator())
	if err != nil {
		return fmt.Errorf("%w: %w", datatable.ErrExportFailed, err)
	}
	defer table.Release()

	tr := array.NewTableReader(table, table.NumRows()+1)
	defer tr.Release()

	records := make([]map[string]any, 0, table.NumRows())
	schema := table.Schema()
	for tr.Next() {
		rec := tr.Record()
		for rowIdx := 0; rowIdx < int(rec.NumRows()); rowIdx++ {
			record := make(map[string]any, rec.NumCols())
			for colIdx, col := range rec.Columns() {
				v := value(col, rowIdx)
				if b, ok := v.([]byte); ok {
					v = datatable.RawString(b)
				}
				record[schema.Field(colIdx).Name] = v
			}
			records = append(records, record)
		}
	}
	if err := tr.Err(); err != nil {
		return fmt.Errorf("%w: read table: %w", datatable.ErrExportFailed, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("%w: encode json: %w", datatable.ErrExportFailed, err)
	}
	return nil
}

// inferType picks the Arrow type for column col of rows.
func inferType(rows []datatable.Row, col int) arrow.DataType {
	var dt arrow.DataType
	for _, row := range rows {
		var t arrow.DataType
		switch row[col].(type) {
		case nil:
			continue
		case int64:
			t = arrow.PrimitiveTypes.Int64
		case uint64:
			t = arrow.PrimitiveTypes.Uint64
		case float32:
			t = arrow.PrimitiveTypes.Float32
		case float64:
			t = arrow.PrimitiveTypes.Float64
		case bool:
			t = arrow.FixedWidthTypes.Boolean
		case []byte:
			t = arrow.BinaryTypes.Binary
		default:
			t = arrow.BinaryTypes.String
		}
		switch {
		case dt == nil:
			dt = t
		case arrow.TypeEqual(dt, t):
		default:
			return arrow.BinaryTypes.String
		}
	}
	if dt == nil {
		return arrow.BinaryTypes.String
	}
	return dt
}

func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch fb := b.(type) {
	case *array.Int64Builder:
		fb.Append(v.(int64))
	case *array.Uint64Builder:
		fb.Append(v.(uint64))
	case *array.Float32Builder:
		fb.Append(v.(float32))
	case *array.Float64Builder:
		fb.Append(v.(float64))
	case *array.BooleanBuilder:
		fb.Append(v.(bool))
	case *array.BinaryBuilder:
		fb.Append(v.([]byte))
	case *array.StringBuilder:
		fb.Append(datatable.RawString(v))
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}
