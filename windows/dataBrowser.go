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

package windows

import (
	"fmt"
	"log/slog"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"qtab/datatable"
	"qtab/query"
)

const (
	minColumnWidth = 80
	maxColumnWidth = 320
	charWidth      = 9
)

// TableView shows the rows of one TableModel. Header buttons sort by their
// column and reaching the last loaded row pages in the next chunk. An
// optional filter hides loaded rows that do not match a query.
type TableView struct {
	model    *datatable.TableModel
	table    *widget.Table
	filter   *widget.Entry
	content  fyne.CanvasObject
	query    *query.Query
	visible  []int // display rows matching query
	logger   *slog.Logger
	onStatus func(string)
	fetching bool
	stalled  bool // last fetch failed; no automatic retry
}

var _ datatable.Listener = (*TableView)(nil)

// NewTableView creates a view over model and registers it as a listener.
func NewTableView(model *datatable.TableModel, logger *slog.Logger, onStatus func(string)) *TableView {
	v := &TableView{
		model:    model,
		logger:   logger,
		onStatus: onStatus,
	}

	v.table = widget.NewTableWithHeaders(v.size, v.createCell, v.updateCell)
	v.table.ShowHeaderRow = true
	v.table.ShowHeaderColumn = true
	v.table.CreateHeader = v.createHeader
	v.table.UpdateHeader = v.updateHeader
	v.resizeColumns()

	v.filter = widget.NewEntry()
	v.filter.SetPlaceHolder("Filter, e.g. id >= 100 AND name ~ cloth")
	v.filter.OnChanged = v.setFilter
	v.content = container.NewBorder(v.filter, nil, nil, nil, v.table)

	model.AddListener(v)

	// Large sources start empty; there is no last row to scroll to.
	if model.RowCount() == 0 && model.CanFetchMore() {
		v.fetchMore()
	}
	return v
}

// Content returns the widget to place in a tab.
func (v *TableView) Content() fyne.CanvasObject {
	return v.content
}

// Model returns the model shown by the view.
func (v *TableView) Model() *datatable.TableModel {
	return v.model
}

// DataAboutToChange implements datatable.Listener.
func (v *TableView) DataAboutToChange() {}

// DataChanged implements datatable.Listener.
func (v *TableView) DataChanged() {
	if v.model.LoadCursor() == 0 {
		v.stalled = false
		if v.model.CanFetchMore() && !v.fetching {
			v.fetching = true
			go fyne.Do(v.fetchMore)
		}
	}
	if v.query != nil {
		q, err := query.Parse(v.filter.Text, v.model.Columns())
		if err != nil {
			// the columns changed under the filter
			q = nil
		}
		v.query = q
		v.applyFilter()
	}
	v.resizeColumns()
	v.table.Refresh()
}

// setFilter parses text and shows only the matching rows. An invalid query
// leaves the current filter in place.
func (v *TableView) setFilter(text string) {
	q, err := query.Parse(text, v.model.Columns())
	if err != nil {
		if v.onStatus != nil {
			v.onStatus("Invalid filter: " + err.Error())
		}
		return
	}
	v.query = q
	v.applyFilter()
	v.table.Refresh()
	if v.onStatus != nil && q != nil {
		v.onStatus(fmt.Sprintf("%d of %d loaded rows match", len(v.visible), v.model.RowCount()))
	}
}

func (v *TableView) applyFilter() {
	if v.query == nil {
		v.visible = nil
		return
	}
	v.visible = v.query.Filter(v.model)
}

// displayRow maps a table row to a model display row.
func (v *TableView) displayRow(row int) int {
	if v.query == nil {
		return row
	}
	if row < 0 || row >= len(v.visible) {
		return -1
	}
	return v.visible[row]
}

func (v *TableView) size() (int, int) {
	if v.query != nil {
		return len(v.visible), v.model.ColumnCount()
	}
	return v.model.RowCount(), v.model.ColumnCount()
}

func (v *TableView) createCell() fyne.CanvasObject {
	l := widget.NewLabel("")
	l.Truncation = fyne.TextTruncateEllipsis
	return l
}

func (v *TableView) updateCell(id widget.TableCellID, o fyne.CanvasObject) {
	label := o.(*widget.Label)
	text, err := v.model.Cell(v.displayRow(id.Row), id.Col)
	if err != nil {
		label.SetText("")
		return
	}
	label.SetText(text)

	rows, _ := v.size()
	if id.Row == rows-1 && v.model.CanFetchMore() && !v.fetching && !v.stalled {
		v.fetching = true
		go fyne.Do(v.fetchMore)
	}
}

func (v *TableView) createHeader() fyne.CanvasObject {
	b := widget.NewButton("", nil)
	b.Importance = widget.LowImportance
	l := widget.NewLabel("")
	l.Alignment = fyne.TextAlignTrailing
	return container.NewStack(b, l)
}

func (v *TableView) updateHeader(id widget.TableCellID, o fyne.CanvasObject) {
	stack := o.(*fyne.Container)
	b := stack.Objects[0].(*widget.Button)
	l := stack.Objects[1].(*widget.Label)

	if id.Col < 0 {
		b.Hide()
		l.Show()
		l.SetText(strconv.Itoa(v.displayRow(id.Row) + 1))
		return
	}

	l.Hide()
	b.Show()
	name, err := v.model.ColumnName(id.Col)
	if err != nil {
		b.SetText("")
		b.OnTapped = nil
		return
	}
	if s := v.model.SortState(); s.IsSorted() && s.Column == id.Col {
		if s.Direction == datatable.SortAscending {
			name += " ↑"
		} else {
			name += " ↓"
		}
	}
	col := id.Col
	b.SetText(name)
	b.OnTapped = func() { v.toggleSort(col) }
}

// toggleSort sorts ascending by col, or flips the direction when col is
// already the sort column.
func (v *TableView) toggleSort(col int) {
	dir := datatable.SortAscending
	if s := v.model.SortState(); s.IsSorted() && s.Column == col && s.Direction == datatable.SortAscending {
		dir = datatable.SortDescending
	}
	if err := v.model.Sort(col, dir); err != nil {
		v.logger.Error("sort failed", "column", col, "error", err)
		return
	}
	name, _ := v.model.ColumnName(col)
	v.logger.Debug("sorted", "column", name, "direction", dir)
}

func (v *TableView) fetchMore() {
	defer func() { v.fetching = false }()
	if !v.model.CanFetchMore() {
		return
	}

	err := v.model.FetchMore()
	if err != nil {
		v.stalled = true
		v.logger.Error("fetch failed", "cursor", v.model.LoadCursor(), "error", err)
		if v.onStatus != nil {
			v.onStatus(fmt.Sprintf("Error: %v", err))
		}
		return
	}
	if v.onStatus != nil {
		v.onStatus(fmt.Sprintf("%d of %d rows loaded", v.model.RowCount(), v.model.TotalRows()))
	}
}

func (v *TableView) resizeColumns() {
	for i, col := range v.model.Columns() {
		w := float32(len(col.Name)+2) * charWidth
		v.table.SetColumnWidth(i, min(max(w, minColumnWidth), maxColumnWidth))
	}
}
