package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qtab/adapters/slice"
	"qtab/datatable"
)

var itemColumns = []datatable.FieldDescriptor{
	{Name: "id"},
	{Name: "name"},
	{Name: "price", Kind: datatable.KindMoney},
	{Name: "flags", Kind: datatable.KindBitMask},
}

var items = []datatable.Row{
	{int64(2589), "Linen Cloth", int64(13), int64(0)},
	{int64(2592), "Wool Cloth", int64(33), int64(16)},
	{int64(6948), "Hearthstone", int64(0), int64(64)},
	{int64(4306), "Silk Cloth", int64(150), int64(16)},
}

func matching(t *testing.T, expr string) []int64 {
	t.Helper()
	q, err := Parse(expr, itemColumns)
	require.NoError(t, err)
	var ids []int64
	for _, row := range items {
		if q.Match(row) {
			ids = append(ids, row[0].(int64))
		}
	}
	return ids
}

func TestMatch(t *testing.T) {
	tests := []struct {
		expr string
		want []int64
	}{
		{"", []int64{2589, 2592, 6948, 4306}},
		{"cloth", []int64{2589, 2592, 4306}},
		{"name ~ WOOL", []int64{2592}},
		{"id = 6948", []int64{6948}},
		{"id != 6948", []int64{2589, 2592, 4306}},
		{"id >= 2592 AND id < 5000", []int64{2592, 4306}},
		{"flags = 0x00000010", []int64{2592, 4306}},
		{"price > 100 OR name = hearthstone", []int64{6948, 4306}},
		{"price ~ 1s", []int64{4306}},
		{"name = 'Silk Cloth'", []int64{4306}},
		{"name < l", []int64{6948}},
		{"id = 02589", []int64{2589}},
		{"id < 0x1000", []int64{2589, 2592}},
		{"id = 2_589", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, matching(t, tt.expr))
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want any
		ok   bool
	}{
		{"10", int64(10), true},
		{"010", int64(10), true},
		{"-7", int64(-7), true},
		{"0x10", uint64(16), true},
		{"0XfF", uint64(255), true},
		{"18446744073709551615", uint64(18446744073709551615), true},
		{"1.5", 1.5, true},
		{"1e3", 1000.0, true},
		{"1_000", nil, false},
		{"0o17", nil, false},
		{"0x", nil, false},
		{"inf", nil, false},
		{"NaN", nil, false},
		{"cloth", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := number(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("level > 10", itemColumns)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Parse("id = 1 AND", itemColumns)
	assert.Error(t, err)

	q, err := Parse("   ", itemColumns)
	require.NoError(t, err)
	assert.Nil(t, q)
	assert.True(t, q.Match(items[0]))
}

func TestParseOperators(t *testing.T) {
	q, err := Parse("id>=10 and name~x or flags!=0", itemColumns)
	require.NoError(t, err)
	assert.Equal(t, []Expression{
		{Column: 0, Operator: OpGreaterEqual, Value: "10"},
		{Column: 1, Operator: OpContains, Value: "x"},
		{Column: 3, Operator: OpNotEqual, Value: "0"},
	}, q.Expressions)
	assert.Equal(t, []LogicalOp{LogicAND, LogicOR}, q.LogicOps)
}

func TestFilter(t *testing.T) {
	src, err := slice.New(itemColumns, items)
	require.NoError(t, err)
	m, err := datatable.NewTableModel(datatable.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.SetFile(src))
	require.NoError(t, m.Sort(0, datatable.SortDescending))

	q, err := Parse("cloth", itemColumns)
	require.NoError(t, err)
	// display order is 6948, 4306, 2592, 2589
	assert.Equal(t, []int{1, 2, 3}, q.Filter(m))
}
