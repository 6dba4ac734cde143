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

package datatable

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// TableModel is an incrementally loaded, sortable view over a Source.
//
// Small sources are loaded entirely by SetFile. Sources longer than
// Config.LargeThreshold start empty and are paged in by EnsureLoaded or
// FetchMore in chunks of Config.ChunkSize rows. Sorting only ever applies to
// the rows loaded so far and is re-applied when more rows arrive.
//
// A TableModel is not safe for concurrent use.
type TableModel struct {
	cfg       Config
	logger    *slog.Logger
	sink      StatusSink
	listeners []Listener

	src     Source
	columns []FieldDescriptor
	loaded  []Row // load order
	rows    []Row // display order
	cursor  int
	sort    SortState
	status  string
}

// Option configures a TableModel.
type Option func(*TableModel)

// WithStatusSink sets the receiver of status messages.
func WithStatusSink(sink StatusSink) Option {
	return func(m *TableModel) { m.sink = sink }
}

// WithListener registers a change listener.
func WithListener(l Listener) Option {
	return func(m *TableModel) { m.listeners = append(m.listeners, l) }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *TableModel) { m.logger = logger }
}

// NewTableModel creates an empty model.
func NewTableModel(cfg Config, opts ...Option) (*TableModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model config: %w", err)
	}
	m := &TableModel{
		cfg:    cfg,
		logger: slog.Default(),
		sort:   Unsorted,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AddListener registers a change listener.
func (m *TableModel) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

// SetFile replaces the model's source. The loaded rows, load cursor and sort
// state are reset together. If the source is not larger than the configured
// threshold all of its rows are loaded; otherwise none are.
//
// When the initial load fails the model keeps its previous source and rows,
// and src is left open for the caller to close.
func (m *TableModel) SetFile(src Source) error {
	if src == nil {
		return ErrNoDataSource
	}

	columns := src.Columns()
	var rows []Row
	if n := src.Len(); n <= m.cfg.LargeThreshold {
		var err error
		rows, err = fetchRows(src, 0, n, len(columns))
		if err != nil {
			return fmt.Errorf("load %s: %w", src.Path(), err)
		}
	}

	m.aboutToChange()
	old := m.src
	m.src = src
	m.columns = columns
	m.loaded = rows
	m.rows = rows
	m.cursor = len(rows)
	m.sort = Unsorted
	m.changed()

	if old != nil && old != src {
		if err := old.Close(); err != nil {
			m.logger.Warn("failed to close previous source", "path", old.Path(), "error", err)
		}
	}

	m.status = fmt.Sprintf("%d rows - Using %s build %d", m.RowCount(), src.KindName(), src.Build())
	m.logger.Debug("source set", "path", src.Path(), "total", src.Len(), "loaded", len(rows))
	if m.sink != nil {
		m.sink.Report(m.status)
	}
	return nil
}

// EnsureLoaded fetches chunks until row is loaded or the source is exhausted.
// Every chunk is committed on its own; when a fetch fails the rows loaded
// before it stay in place.
func (m *TableModel) EnsureLoaded(row int) error {
	if m.src == nil {
		return ErrNoDataSource
	}
	if row < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	for row >= m.cursor && m.CanFetchMore() {
		if err := m.fetchChunk(); err != nil {
			return err
		}
	}
	return nil
}

// FetchMore loads the next chunk, if any.
func (m *TableModel) FetchMore() error {
	if !m.CanFetchMore() {
		return nil
	}
	return m.fetchChunk()
}

// CanFetchMore reports whether the source has rows that are not loaded yet.
func (m *TableModel) CanFetchMore() bool {
	return m.src != nil && m.cursor < m.src.Len()
}

func (m *TableModel) fetchChunk() error {
	remaining := m.src.Len() - m.cursor
	n := min(m.cfg.ChunkSize, remaining)

	rows, err := fetchRows(m.src, m.cursor, n, len(m.columns))
	if err != nil {
		return fmt.Errorf("fetch rows %d-%d of %s: %w", m.cursor, m.cursor+n, m.src.Path(), err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("fetch rows %d-%d of %s: %w", m.cursor, m.cursor+n, m.src.Path(), io.ErrUnexpectedEOF)
	}

	m.aboutToChange()
	m.loaded = append(m.loaded, rows...)
	m.cursor += len(rows)
	if m.sort.IsSorted() {
		m.rows = sortRows(m.loaded, m.sort)
	} else {
		m.rows = m.loaded
	}
	m.changed()

	m.logger.Debug("rows fetched", "path", m.src.Path(), "count", len(rows), "cursor", m.cursor)
	return nil
}

// Sort orders the loaded rows by the raw values of column.
//
// Rows are sorted descending with a stable sort and the result is reversed
// when ascending order is requested, so ascending ties come out in reverse
// load order. SortNone restores load order.
func (m *TableModel) Sort(column int, dir SortDirection) error {
	if dir == SortNone {
		m.aboutToChange()
		m.sort = Unsorted
		m.rows = m.loaded
		m.changed()
		return nil
	}
	if column < 0 || column >= len(m.columns) {
		return fmt.Errorf("%w: %d", ErrInvalidSortColumn, column)
	}

	m.aboutToChange()
	m.sort = SortState{Column: column, Direction: dir}
	m.rows = sortRows(m.loaded, m.sort)
	m.changed()
	return nil
}

func sortRows(loaded []Row, state SortState) []Row {
	rows := slices.Clone(loaded)
	col := state.Column
	slices.SortStableFunc(rows, func(a, b Row) int {
		return CompareValues(b[col], a[col])
	})
	if state.Direction == SortAscending {
		slices.Reverse(rows)
	}
	return rows
}

// SortState returns the active sort configuration.
func (m *TableModel) SortState() SortState {
	return m.sort
}

// Cell returns the display string of a loaded cell.
func (m *TableModel) Cell(row, col int) (string, error) {
	v, err := m.Value(row, col)
	if err != nil {
		return "", err
	}
	return Truncate(FormatValue(v, m.columns[col].Kind), m.cfg.MaxCellLength), nil
}

// Value returns the raw value of a loaded cell.
func (m *TableModel) Value(row, col int) (any, error) {
	r, err := m.Row(row)
	if err != nil {
		return nil, err
	}
	if col < 0 || col >= len(m.columns) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	return r[col], nil
}

// Row returns a loaded row in display order.
func (m *TableModel) Row(row int) (Row, error) {
	if row < 0 || row >= len(m.rows) {
		return nil, fmt.Errorf("%w: %d (loaded %d)", ErrInvalidRow, row, len(m.rows))
	}
	return m.rows[row], nil
}

// Rows returns the loaded rows in display order. The slice is a copy; the
// rows themselves are shared and must not be modified.
func (m *TableModel) Rows() []Row {
	return slices.Clone(m.rows)
}

// RowCount returns the number of loaded rows, not the source length.
func (m *TableModel) RowCount() int {
	return len(m.rows)
}

// TotalRows returns the source length, or zero without a source.
func (m *TableModel) TotalRows() int {
	if m.src == nil {
		return 0
	}
	return m.src.Len()
}

// LoadCursor returns the number of rows fetched from the source so far.
func (m *TableModel) LoadCursor() int {
	return m.cursor
}

// ColumnCount returns the number of columns.
func (m *TableModel) ColumnCount() int {
	return len(m.columns)
}

// ColumnName returns the header of a column.
func (m *TableModel) ColumnName(col int) (string, error) {
	if col < 0 || col >= len(m.columns) {
		return "", fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	return m.columns[col].Name, nil
}

// Columns returns the field descriptors of the current source.
func (m *TableModel) Columns() []FieldDescriptor {
	return slices.Clone(m.columns)
}

// Source returns the current source, or nil.
func (m *TableModel) Source() Source {
	return m.src
}

// Status returns the summary reported by the last SetFile.
func (m *TableModel) Status() string {
	return m.status
}

// Close releases the source and empties the model.
func (m *TableModel) Close() error {
	if m.src == nil {
		return nil
	}
	src := m.src

	m.aboutToChange()
	m.src = nil
	m.columns = nil
	m.loaded = nil
	m.rows = nil
	m.cursor = 0
	m.sort = Unsorted
	m.status = ""
	m.changed()

	if err := src.Close(); err != nil {
		return fmt.Errorf("close %s: %w", src.Path(), err)
	}
	return nil
}

func (m *TableModel) aboutToChange() {
	for _, l := range m.listeners {
		l.DataAboutToChange()
	}
}

func (m *TableModel) changed() {
	for _, l := range m.listeners {
		l.DataChanged()
	}
}

func fetchRows(src Source, start, count, width int) ([]Row, error) {
	if count <= 0 {
		return nil, nil
	}
	rows, err := src.FetchRange(start, count)
	if err != nil {
		return nil, err
	}
	if len(rows) > count {
		rows = rows[:count]
	}
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowShape, start+i, len(r), width)
		}
	}
	return rows, nil
}
