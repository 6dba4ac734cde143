package adapters

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qtab/adapters/slice"
	"qtab/datatable"
)

func writeText(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDetectSeparator(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"id,name,price\n1,a,2", ','},
		{"id;name;price\n", ';'},
		{"id\tname\n", '\t'},
		{"id|name|price|flags", '|'},
		{"single", ','},
		{"", ','},
		{"a,b;c", ','},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSeparator(strings.NewReader(tt.line)))
		})
	}
}

func TestOpenCSV(t *testing.T) {
	path := writeText(t, "items.csv", "id;name;ratio\n1;Linen Cloth;0.5\n2;;-3\n3;007 Agent;1e3\n")

	src, err := OpenCSV(path, datatable.BuildAuto)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 0, src.Build())
	assert.Equal(t, KindCSV, src.KindName())
	assert.Equal(t, path, src.Path())
	assert.Equal(t, []string{"id", "name", "ratio"}, datatable.ColumnNames(src.Columns()))

	rows, err := src.FetchRange(0, 10)
	require.NoError(t, err)
	assert.Equal(t, []datatable.Row{
		{int64(1), "Linen Cloth", 0.5},
		{int64(2), nil, int64(-3)},
		{int64(3), "007 Agent", 1000.0},
	}, rows)
}

func TestOpenCSVErrors(t *testing.T) {
	var se *datatable.StructureError

	_, err := OpenCSV(writeText(t, "empty.csv", ""), 12340)
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, datatable.ErrNotStructured)

	_, err = OpenCSV(writeText(t, "ragged.csv", "a,b\n1,2,3\n"), datatable.BuildAuto)
	assert.ErrorIs(t, err, datatable.ErrNotStructured)
}

func TestOpenJSON(t *testing.T) {
	path := writeText(t, "items.json", `[
		{"name": "Linen Cloth", "id": 2589, "price": 13.5},
		{"id": 2592, "flags": [1, 2], "extra": {"a": true}},
		{"name": null, "id": 1, "ok": false}
	]`)

	src, err := OpenJSON(path, 8606)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 8606, src.Build())
	assert.Equal(t, KindJSON, src.KindName())
	assert.Equal(t, []string{"name", "id", "price", "flags", "extra", "ok"}, datatable.ColumnNames(src.Columns()))

	rows, err := src.FetchRange(0, 10)
	require.NoError(t, err)
	assert.Equal(t, []datatable.Row{
		{"Linen Cloth", int64(2589), 13.5, nil, nil, nil},
		{nil, int64(2592), nil, "[1,2]", `{"a":true}`, nil},
		{nil, int64(1), nil, nil, nil, false},
	}, rows)
}

func TestOpenJSONSingleObject(t *testing.T) {
	src, err := OpenJSON(writeText(t, "one.json", `{"id": 7}`), datatable.BuildAuto)
	require.NoError(t, err)
	assert.Equal(t, 1, src.Len())
}

func TestOpenJSONErrors(t *testing.T) {
	for name, body := range map[string]string{
		"scalar.json":  `42`,
		"empty.json":   `[]`,
		"mixed.json":   `[{"id": 1}, 2]`,
		"broken.json":  `[{"id": 1}`,
		"nothing.json": ``,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := OpenJSON(writeText(t, name, body), datatable.BuildAuto)
			var se *datatable.StructureError
			require.ErrorAs(t, err, &se)
			assert.ErrorIs(t, err, datatable.ErrNotStructured)
		})
	}
}

func TestExportsReopen(t *testing.T) {
	src, err := slice.New([]datatable.FieldDescriptor{{Name: "id"}, {Name: "name"}, {Name: "ratio"}},
		[]datatable.Row{
			{int64(2), "Wool Cloth", 0.25},
			{int64(1), nil, 1.5},
		})
	require.NoError(t, err)
	m, err := datatable.NewTableModel(datatable.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.SetFile(src))

	want := []datatable.Row{
		{int64(2), "Wool Cloth", 0.25},
		{int64(1), nil, 1.5},
	}
	for _, format := range []ExportFormat{FormatCSV, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultExportName("items.dbc", format))
			require.NoError(t, ExportFile(path, m, format))

			var o Opener
			reopened, err := o.Open(path, datatable.BuildAuto)
			require.NoError(t, err)
			defer reopened.Close()

			assert.Equal(t, []string{"id", "name", "ratio"}, datatable.ColumnNames(reopened.Columns()))
			rows, err := reopened.FetchRange(0, 10)
			require.NoError(t, err)
			assert.Equal(t, want, rows)
		})
	}
}
