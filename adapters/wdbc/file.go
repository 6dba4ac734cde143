// Package wdbc reads WDBC client database files.
//
// A file starts with a 20 byte header (magic "WDBC", then little-endian
// record count, field count, record size and string block size), followed by
// fixed-size records and a block of NUL terminated strings referenced by
// offset. Records carry no type information; the layout is looked up by file
// name in a Registry and selected by build.
package wdbc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"qtab/datatable"
)

const (
	// Magic identifies a WDBC file.
	Magic = "WDBC"

	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 20
)

// Header is the fixed file header.
type Header struct {
	Magic           [4]byte
	RecordCount     uint32
	FieldCount      uint32
	RecordSize      uint32
	StringBlockSize uint32
}

// File is an open WDBC file. It implements datatable.Source.
type File struct {
	f       *os.File
	path    string
	header  Header
	name    string
	layout  *Layout
	build   int
	strings []byte
	columns []datatable.FieldDescriptor
	logger  *slog.Logger
}

type options struct {
	registry *Registry
	logger   *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithRegistry sets the structure registry. The default is DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open opens path and resolves its layout for build. datatable.BuildAuto
// picks the newest layout matching the file. Files that are not WDBC or do
// not match the layout fail with *datatable.StructureError.
func Open(path string, build int, opts ...Option) (*File, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	file, err := newFile(f, path, build, o)
	if err != nil {
		f.Close()
		return nil, err
	}
	return file, nil
}

func newFile(f *os.File, path string, build int, o options) (*File, error) {
	var h Header
	if err := binary.Read(f, binary.LittleEndian, &h); err != nil {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, "truncated header")
	}
	if string(h.Magic[:]) != Magic {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured,
			fmt.Sprintf("bad magic %q", h.Magic[:]))
	}

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	dataSize := int64(h.RecordCount) * int64(h.RecordSize)
	if want := HeaderSize + dataSize + int64(h.StringBlockSize); st.Size() < want {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured,
			fmt.Sprintf("file has %d bytes, header requires %d", st.Size(), want))
	}

	name := structureName(path)
	layout, resolved, err := resolveLayout(o.registry, name, build, h)
	if err != nil {
		return nil, &datatable.StructureError{Path: path, Build: build, Err: err}
	}

	block := make([]byte, h.StringBlockSize)
	if _, err := f.ReadAt(block, HeaderSize+dataSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read string block of %s: %w", path, err)
	}

	o.logger.Debug("wdbc layout resolved",
		"path", path, "structure", name, "requested_build", build, "build", resolved,
		"records", h.RecordCount, "record_size", h.RecordSize)

	return &File{
		f:       f,
		path:    path,
		header:  h,
		name:    name,
		layout:  layout,
		build:   resolved,
		strings: block,
		columns: layout.Columns(),
		logger:  o.logger,
	}, nil
}

func resolveLayout(reg *Registry, name string, build int, h Header) (*Layout, int, error) {
	if s, ok := reg.Lookup(name); ok {
		return s.Resolve(build, int(h.RecordSize))
	}

	// Unknown files are shown as plain 32-bit integer columns.
	if h.FieldCount == 0 || h.RecordSize != h.FieldCount*4 {
		return nil, 0, fmt.Errorf("%w: no structure for %s and %d byte records are not %d integer fields",
			datatable.ErrNotStructured, name, h.RecordSize, h.FieldCount)
	}
	fields := make([]Field, h.FieldCount)
	for i := range fields {
		fields[i] = Field{Name: fmt.Sprintf("field_%d", i+1), Type: TypeInt32}
	}
	if build == datatable.BuildAuto {
		build = 0
	}
	return &Layout{Build: build, Fields: fields}, build, nil
}

func structureName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Header returns the file header.
func (d *File) Header() Header { return d.header }

// StructureName returns the name the layout was looked up by.
func (d *File) StructureName() string { return d.name }

// Len implements datatable.Source.
func (d *File) Len() int { return int(d.header.RecordCount) }

// Columns implements datatable.Source.
func (d *File) Columns() []datatable.FieldDescriptor { return d.columns }

// Build implements datatable.Source.
func (d *File) Build() int { return d.build }

// Path implements datatable.Source.
func (d *File) Path() string { return d.path }

// KindName implements datatable.Source.
func (d *File) KindName() string { return d.name + " structure" }

// Close implements datatable.Source.
func (d *File) Close() error { return d.f.Close() }

// FetchRange implements datatable.Source.
func (d *File) FetchRange(start, count int) ([]datatable.Row, error) {
	if start < 0 || count < 0 {
		return nil, fmt.Errorf("%w: range %d+%d", datatable.ErrInvalidRow, start, count)
	}
	n := min(count, d.Len()-start)
	if n <= 0 {
		return nil, nil
	}

	size := int(d.header.RecordSize)
	buf := make([]byte, n*size)
	off := int64(HeaderSize) + int64(start)*int64(size)
	if _, err := d.f.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read records %d-%d of %s: %w", start, start+n, d.path, err)
	}

	rows := make([]datatable.Row, n)
	for i := range rows {
		row, err := d.decode(buf[i*size : (i+1)*size])
		if err != nil {
			return nil, fmt.Errorf("record %d of %s: %w", start+i, d.path, err)
		}
		rows[i] = row
	}
	return rows, nil
}

func (d *File) decode(rec []byte) (datatable.Row, error) {
	le := binary.LittleEndian
	row := make(datatable.Row, len(d.layout.Fields))
	pos := 0
	for i, f := range d.layout.Fields {
		w := f.Width()
		b := rec[pos : pos+w]
		pos += w

		switch f.Type {
		case TypeInt8:
			row[i] = int64(int8(b[0]))
		case TypeUint8:
			row[i] = uint64(b[0])
		case TypeInt16:
			row[i] = int64(int16(le.Uint16(b)))
		case TypeUint16:
			row[i] = uint64(le.Uint16(b))
		case TypeInt32, TypeMoney:
			row[i] = int64(int32(le.Uint32(b)))
		case TypeUint32, TypeBitMask:
			row[i] = uint64(le.Uint32(b))
		case TypeInt64:
			row[i] = int64(le.Uint64(b))
		case TypeUint64:
			row[i] = le.Uint64(b)
		case TypeFloat:
			row[i] = math.Float32frombits(le.Uint32(b))
		case TypeString:
			s, err := d.stringAt(le.Uint32(b))
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			row[i] = s
		case TypeHash, TypeData:
			row[i] = bytes.Clone(b)
		}
	}
	return row, nil
}

func (d *File) stringAt(off uint32) (string, error) {
	if int(off) >= len(d.strings) {
		if off == 0 {
			return "", nil
		}
		return "", fmt.Errorf("string offset %d outside block of %d bytes", off, len(d.strings))
	}
	s := d.strings[off:]
	if end := bytes.IndexByte(s, 0); end >= 0 {
		s = s[:end]
	}
	return string(s), nil
}
