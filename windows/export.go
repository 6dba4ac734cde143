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
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"qtab/adapters"
)

// exportCurrent asks for an output file and exports the current tab. The
// format follows the chosen file's extension.
func (t *MainWindow) exportCurrent(format adapters.ExportFormat) {
	tab := t.ws.Current()
	if tab == nil {
		dialog.ShowInformation("Export", "Open a file first", t.w)
		return
	}
	model := tab.Model
	source := tab.Path()

	saveDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.w)
			return
		}
		if writer == nil {
			// User cancelled
			return
		}
		path := writer.URI().Path()
		writer.Close()

		chosen := adapters.FormatForPath(path)
		done := t.showProgress("Exporting...")
		err = adapters.ExportFile(path, model, chosen)
		done()

		if err != nil {
			t.logger.Error("export failed", "path", path, "format", chosen, "error", err)
			dialog.ShowError(fmt.Errorf("export failed: %w", err), t.w)
			return
		}
		t.logger.Info("exported", "source", source, "path", path, "format", chosen, "rows", model.RowCount())
		t.SetStatus(fmt.Sprintf("Exported %d rows to %s", model.RowCount(), filepath.Base(path)))
	}, t.w)

	saveDialog.SetFileName(adapters.DefaultExportName(source, format))
	if lister, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(source))); err == nil {
		saveDialog.SetLocation(lister)
	}
	saveDialog.Show()
}

// exportMenu builds the Export submenu, one entry per format.
func (t *MainWindow) exportMenu() *fyne.MenuItem {
	item := fyne.NewMenuItem("Export", nil)
	var items []*fyne.MenuItem
	for _, f := range adapters.ExportFormats {
		items = append(items, fyne.NewMenuItem(f.String()+"...", func() { t.exportCurrent(f) }))
	}
	item.ChildMenu = fyne.NewMenu("", items...)
	return item
}
