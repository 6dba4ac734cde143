// Package slice provides an in-memory datatable.Source.
package slice

import (
	"fmt"

	"qtab/datatable"
)

// KindName is reported by sources created by this package.
const KindName = "MemoryTable"

// Source serves rows held in memory.
type Source struct {
	columns []datatable.FieldDescriptor
	rows    []datatable.Row
	path    string
	build   int
	kind    string
	closed  bool
}

// New creates a source over rows. Every row must have one value per column.
func New(columns []datatable.FieldDescriptor, rows []datatable.Row) (*Source, error) {
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", datatable.ErrRowShape, i, len(r), len(columns))
		}
	}
	return &Source{
		columns: columns,
		rows:    rows,
		path:    "memory",
		build:   0,
		kind:    KindName,
	}, nil
}

// NewFromMaps builds a source from records keyed by column name. Columns are
// the given names in order; missing keys become nil.
func NewFromMaps(columns []datatable.FieldDescriptor, records []map[string]any) (*Source, error) {
	rows := make([]datatable.Row, len(records))
	for i, rec := range records {
		row := make(datatable.Row, len(columns))
		for j, c := range columns {
			row[j] = rec[c.Name]
		}
		rows[i] = row
	}
	return New(columns, rows)
}

// WithPath sets the path reported by the source.
func (s *Source) WithPath(path string) *Source {
	s.path = path
	return s
}

// WithBuild sets the build reported by the source.
func (s *Source) WithBuild(build int) *Source {
	s.build = build
	return s
}

// WithKindName sets the kind name reported by the source.
func (s *Source) WithKindName(name string) *Source {
	s.kind = name
	return s
}

// Len implements datatable.Source.
func (s *Source) Len() int { return len(s.rows) }

// Columns implements datatable.Source.
func (s *Source) Columns() []datatable.FieldDescriptor { return s.columns }

// FetchRange implements datatable.Source.
func (s *Source) FetchRange(start, count int) ([]datatable.Row, error) {
	if s.closed {
		return nil, fmt.Errorf("fetch from %s: source closed", s.path)
	}
	if start < 0 || count < 0 {
		return nil, fmt.Errorf("%w: range %d+%d", datatable.ErrInvalidRow, start, count)
	}
	if start >= len(s.rows) {
		return nil, nil
	}
	end := min(start+count, len(s.rows))
	return s.rows[start:end:end], nil
}

// Build implements datatable.Source.
func (s *Source) Build() int { return s.build }

// Path implements datatable.Source.
func (s *Source) Path() string { return s.path }

// KindName implements datatable.Source.
func (s *Source) KindName() string { return s.kind }

// Close implements datatable.Source.
func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Source) Closed() bool { return s.closed }
