package workspace

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qtab/adapters/slice"
	"qtab/datatable"
)

var columns = []datatable.FieldDescriptor{{Name: "id"}, {Name: "name"}}

// opener serves slice sources; builds listed in bad fail with a StructureError.
type opener struct {
	bad    map[int]bool
	opened []*slice.Source
}

func (o *opener) open(path string, build int) (datatable.Source, error) {
	if o.bad[build] {
		return nil, datatable.NewStructureError(path, build, datatable.ErrIncompatibleBuild, "")
	}
	rows := []datatable.Row{{int64(build), "row"}}
	s, err := slice.New(columns, rows)
	if err != nil {
		return nil, err
	}
	s.WithPath(path).WithBuild(build)
	o.opened = append(o.opened, s)
	return s, nil
}

func newTab(t *testing.T, w *Workspace, o *opener, path string) *Tab {
	t.Helper()
	src, err := o.open(path, 1)
	require.NoError(t, err)
	m, err := datatable.NewTableModel(datatable.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.SetFile(src))
	return w.Add(m)
}

func TestAddSelectAndClose(t *testing.T) {
	o := &opener{}
	w := New(o.open, nil)
	assert.Nil(t, w.Current())

	a := newTab(t, w, o, "A.dbc")
	b := newTab(t, w, o, "B.dbc")
	c := newTab(t, w, o, "C.dbc")
	assert.Equal(t, c, w.Current())
	assert.Equal(t, []*Tab{a, b, c}, w.Tabs())

	require.NoError(t, w.Select(b.ID))
	assert.Equal(t, "B.dbc", w.Current().Path())

	require.NoError(t, w.Close(b.ID))
	assert.Equal(t, c, w.Current())
	assert.True(t, o.opened[1].Closed())
	assert.Equal(t, 2, w.Len())

	require.NoError(t, w.Close(c.ID))
	assert.Equal(t, a, w.Current())
	require.NoError(t, w.Close(a.ID))
	assert.Nil(t, w.Current())

	assert.ErrorIs(t, w.Close(a.ID), ErrNoTab)
	assert.ErrorIs(t, w.Select(uuid.New()), ErrNoTab)
}

func TestChangeBuildReplacesFile(t *testing.T) {
	o := &opener{}
	w := New(o.open, nil)
	tab := newTab(t, w, o, "Spell.dbc")

	require.NoError(t, w.ChangeBuild(tab.ID, 12340))
	assert.Equal(t, 12340, tab.Build())
	assert.Equal(t, "Spell.dbc", tab.Path())
	assert.True(t, o.opened[0].Closed())

	v, err := tab.Model.Value(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(12340), v)
}

func TestChangeBuildFailureKeepsTab(t *testing.T) {
	o := &opener{bad: map[int]bool{9999: true}}
	w := New(o.open, nil)
	tab := newTab(t, w, o, "Spell.dbc")
	require.NoError(t, tab.Model.Sort(0, datatable.SortDescending))

	err := w.ChangeBuild(tab.ID, 9999)
	var se *datatable.StructureError
	require.True(t, errors.As(err, &se))

	assert.Equal(t, 1, tab.Build())
	assert.Equal(t, 1, tab.Model.RowCount())
	assert.True(t, tab.Model.SortState().IsSorted())
	assert.False(t, o.opened[0].Closed())

	assert.ErrorIs(t, w.ChangeBuild(uuid.New(), 1), ErrNoTab)
}

func TestParseBuild(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"12340", 12340, false},
		{" -1 ", datatable.BuildAuto, false},
		{"0", 0, false},
		{"-2", 0, true},
		{"latest", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseBuild(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidBuild, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
