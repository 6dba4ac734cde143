package datatable

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource generates rows [i, "row-i"] on demand.
type fakeSource struct {
	n       int
	rows    []Row
	build   int
	fetches []int // requested counts
	failAt  int   // fail fetches starting at this offset, -1 disables
	closed  bool
}

func newFakeSource(n int) *fakeSource {
	return &fakeSource{n: n, build: 12340, failAt: -1}
}

func newRowsSource(rows []Row) *fakeSource {
	return &fakeSource{n: len(rows), rows: rows, build: 12340, failAt: -1}
}

func (s *fakeSource) Len() int { return s.n }

func (s *fakeSource) Columns() []FieldDescriptor {
	return []FieldDescriptor{{Name: "id"}, {Name: "name"}}
}

func (s *fakeSource) FetchRange(start, count int) ([]Row, error) {
	s.fetches = append(s.fetches, count)
	if s.failAt >= 0 && start >= s.failAt {
		return nil, errors.New("read error")
	}
	end := min(start+count, s.n)
	rows := make([]Row, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		if s.rows != nil {
			rows = append(rows, s.rows[i])
			continue
		}
		rows = append(rows, Row{int64(i), fmt.Sprintf("row-%d", i)})
	}
	return rows, nil
}

func (s *fakeSource) Build() int       { return s.build }
func (s *fakeSource) Path() string     { return "Fake.dbc" }
func (s *fakeSource) KindName() string { return "FakeFile" }
func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type recordingListener struct {
	events []string
}

func (l *recordingListener) DataAboutToChange() { l.events = append(l.events, "about") }
func (l *recordingListener) DataChanged()       { l.events = append(l.events, "changed") }

func newModel(t *testing.T, opts ...Option) *TableModel {
	t.Helper()
	m, err := NewTableModel(DefaultConfig(), opts...)
	require.NoError(t, err)
	return m
}

func TestSetFileLoadsSmallSourceEagerly(t *testing.T) {
	var status []string
	m := newModel(t, WithStatusSink(StatusFunc(func(msg string) { status = append(status, msg) })))

	src := newFakeSource(3)
	require.NoError(t, m.SetFile(src))

	assert.Equal(t, 3, m.RowCount())
	assert.Equal(t, 3, m.LoadCursor())
	assert.False(t, m.CanFetchMore())
	assert.Equal(t, 2, m.ColumnCount())
	assert.Equal(t, []string{"3 rows - Using FakeFile build 12340"}, status)
	assert.Equal(t, "3 rows - Using FakeFile build 12340", m.Status())
}

func TestSetFileLeavesLargeSourceEmpty(t *testing.T) {
	m := newModel(t)
	src := newFakeSource(25000)
	require.NoError(t, m.SetFile(src))

	assert.Equal(t, 0, m.RowCount())
	assert.Equal(t, 25000, m.TotalRows())
	assert.True(t, m.CanFetchMore())
	assert.Empty(t, src.fetches)
	assert.Equal(t, "0 rows - Using FakeFile build 12340", m.Status())
}

func TestSetFileThresholdIsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LargeThreshold = 2
	m, err := NewTableModel(cfg)
	require.NoError(t, err)

	require.NoError(t, m.SetFile(newFakeSource(3)))
	assert.Equal(t, 0, m.RowCount())

	require.NoError(t, m.SetFile(newFakeSource(2)))
	assert.Equal(t, 2, m.RowCount())
}

func TestEnsureLoadedPagesInChunks(t *testing.T) {
	m := newModel(t)
	src := newFakeSource(25000)
	require.NoError(t, m.SetFile(src))

	require.NoError(t, m.EnsureLoaded(15000))
	assert.Equal(t, []int{10000, 10000}, src.fetches)
	assert.GreaterOrEqual(t, m.RowCount(), 15001)
	assert.Equal(t, 20000, m.LoadCursor())
	assert.True(t, m.CanFetchMore())

	// Idempotent for the same target row.
	require.NoError(t, m.EnsureLoaded(15000))
	assert.Equal(t, 20000, m.LoadCursor())
	assert.Len(t, src.fetches, 2)

	require.NoError(t, m.EnsureLoaded(24999))
	assert.Equal(t, []int{10000, 10000, 5000}, src.fetches)
	assert.Equal(t, 25000, m.RowCount())
	assert.False(t, m.CanFetchMore())

	// Past the end is a no-op.
	require.NoError(t, m.EnsureLoaded(30000))
	assert.Len(t, src.fetches, 3)

	cell, err := m.Cell(24999, 1)
	require.NoError(t, err)
	assert.Equal(t, "row-24999", cell)
}

func TestCanFetchMoreMatchesRowCount(t *testing.T) {
	m := newModel(t)
	src := newFakeSource(25000)
	require.NoError(t, m.SetFile(src))

	for m.CanFetchMore() {
		assert.NotEqual(t, m.TotalRows(), m.RowCount())
		require.NoError(t, m.FetchMore())
	}
	assert.Equal(t, src.Len(), m.RowCount())
	require.NoError(t, m.FetchMore())
	assert.Len(t, src.fetches, 3)
}

func TestFetchFailureKeepsPreviousRows(t *testing.T) {
	m := newModel(t)
	src := newFakeSource(25000)
	src.failAt = 10000
	require.NoError(t, m.SetFile(src))

	err := m.EnsureLoaded(15000)
	require.Error(t, err)
	assert.Equal(t, 10000, m.RowCount())
	assert.Equal(t, 10000, m.LoadCursor())

	src.failAt = -1
	require.NoError(t, m.EnsureLoaded(15000))
	assert.Equal(t, 20000, m.RowCount())
}

func TestSetFileFailureKeepsPreviousFile(t *testing.T) {
	m := newModel(t)
	first := newFakeSource(3)
	require.NoError(t, m.SetFile(first))

	broken := newFakeSource(5)
	broken.failAt = 0
	require.Error(t, m.SetFile(broken))

	assert.Same(t, first, m.Source())
	assert.Equal(t, 3, m.RowCount())
	assert.False(t, first.closed)
	assert.False(t, broken.closed)
}

func TestSetFileResetsState(t *testing.T) {
	m := newModel(t)
	first := newFakeSource(3)
	require.NoError(t, m.SetFile(first))
	require.NoError(t, m.Sort(0, SortDescending))

	second := newFakeSource(25000)
	require.NoError(t, m.SetFile(second))

	assert.True(t, first.closed)
	assert.Equal(t, 0, m.RowCount())
	assert.Equal(t, 0, m.LoadCursor())
	assert.Equal(t, Unsorted, m.SortState())
	_, err := m.Cell(0, 0)
	assert.ErrorIs(t, err, ErrInvalidRow)
}

func TestSortAscendingReversesDescendingStableSort(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetFile(newRowsSource([]Row{
		{int64(3), "c"},
		{int64(1), "a"},
		{int64(2), "b"},
	})))

	require.NoError(t, m.Sort(0, SortAscending))
	assert.Equal(t, []Row{
		{int64(1), "a"},
		{int64(2), "b"},
		{int64(3), "c"},
	}, m.Rows())
	assert.Equal(t, SortState{Column: 0, Direction: SortAscending}, m.SortState())

	require.NoError(t, m.Sort(1, SortDescending))
	assert.Equal(t, []Row{
		{int64(3), "c"},
		{int64(2), "b"},
		{int64(1), "a"},
	}, m.Rows())
}

func TestSortTiesResolveInReverseLoadOrderWhenAscending(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetFile(newRowsSource([]Row{
		{int64(1), "first"},
		{int64(1), "second"},
		{int64(0), "third"},
	})))

	require.NoError(t, m.Sort(0, SortAscending))
	assert.Equal(t, []Row{
		{int64(0), "third"},
		{int64(1), "second"},
		{int64(1), "first"},
	}, m.Rows())

	// Repeating the sort starts from load order again.
	require.NoError(t, m.Sort(0, SortAscending))
	assert.Equal(t, "second", m.Rows()[1][1])

	require.NoError(t, m.Sort(0, SortDescending))
	assert.Equal(t, []Row{
		{int64(1), "first"},
		{int64(1), "second"},
		{int64(0), "third"},
	}, m.Rows())

	require.NoError(t, m.Sort(-1, SortNone))
	assert.Equal(t, "first", m.Rows()[0][1])
	assert.False(t, m.SortState().IsSorted())
}

func TestSortIsReappliedToFetchedRows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LargeThreshold = 2
	cfg.ChunkSize = 2
	m, err := NewTableModel(cfg)
	require.NoError(t, err)

	require.NoError(t, m.SetFile(newFakeSource(5)))
	require.NoError(t, m.FetchMore())
	require.NoError(t, m.Sort(0, SortDescending))

	require.NoError(t, m.FetchMore())
	ids := make([]any, 0, m.RowCount())
	for _, r := range m.Rows() {
		ids = append(ids, r[0])
	}
	assert.Equal(t, []any{int64(3), int64(2), int64(1), int64(0)}, ids)
}

func TestSortRejectsInvalidColumn(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetFile(newFakeSource(3)))

	assert.ErrorIs(t, m.Sort(2, SortAscending), ErrInvalidSortColumn)
	assert.ErrorIs(t, m.Sort(-1, SortAscending), ErrInvalidSortColumn)
	assert.Equal(t, Unsorted, m.SortState())
}

func TestCellBoundsChecked(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetFile(newFakeSource(3)))

	_, err := m.Cell(3, 0)
	assert.ErrorIs(t, err, ErrInvalidRow)
	_, err = m.Cell(0, 2)
	assert.ErrorIs(t, err, ErrInvalidColumn)
	_, err = m.ColumnName(5)
	assert.ErrorIs(t, err, ErrInvalidColumn)

	name, err := m.ColumnName(1)
	require.NoError(t, err)
	assert.Equal(t, "name", name)
}

func TestCellUsesFieldKind(t *testing.T) {
	src := newRowsSource([]Row{{int64(123456), "x"}})
	m := newModel(t)
	require.NoError(t, m.SetFile(moneySource{src}))

	cell, err := m.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "12g 34s 56c", cell)
}

type moneySource struct{ *fakeSource }

func (s moneySource) Columns() []FieldDescriptor {
	return []FieldDescriptor{{Name: "price", Kind: KindMoney}, {Name: "name"}}
}

func TestNotificationsArePaired(t *testing.T) {
	l := &recordingListener{}
	m := newModel(t, WithListener(l))

	src := newFakeSource(25000)
	require.NoError(t, m.SetFile(src))
	require.NoError(t, m.FetchMore())
	require.NoError(t, m.Sort(0, SortAscending))

	assert.Equal(t, []string{"about", "changed", "about", "changed", "about", "changed"}, l.events)

	src.failAt = 0
	require.Error(t, m.FetchMore())
	assert.Len(t, l.events, 6)
}

func TestRowShapeMismatchFailsFetch(t *testing.T) {
	m := newModel(t)
	err := m.SetFile(newRowsSource([]Row{{int64(1)}}))
	assert.ErrorIs(t, err, ErrRowShape)
	assert.Nil(t, m.Source())
}

func TestCloseReleasesSource(t *testing.T) {
	m := newModel(t)
	src := newFakeSource(3)
	require.NoError(t, m.SetFile(src))

	require.NoError(t, m.Close())
	assert.True(t, src.closed)
	assert.Equal(t, 0, m.RowCount())
	assert.Nil(t, m.Source())
	assert.ErrorIs(t, m.EnsureLoaded(0), ErrNoDataSource)
}

func TestNewTableModelValidatesConfig(t *testing.T) {
	_, err := NewTableModel(Config{ChunkSize: 0})
	assert.Error(t, err)
}
