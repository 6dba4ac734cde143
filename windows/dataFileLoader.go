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
	"errors"
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"qtab/datatable"
)

// loadModel opens path at build and loads it into a new model. The model
// reports its status to the window's status bar.
func (t *MainWindow) loadModel(path string, build int) (*datatable.TableModel, error) {
	src, err := t.opener.Open(path, build)
	if err != nil {
		return nil, err
	}

	model, err := datatable.NewTableModel(t.cfg.Model,
		datatable.WithStatusSink(datatable.StatusFunc(t.SetStatus)),
		datatable.WithLogger(t.logger.With("path", path)),
	)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create table model: %w", err)
	}
	if err := model.SetFile(src); err != nil {
		src.Close()
		return nil, err
	}
	return model, nil
}

// OpenFile loads path in the background and adds it as a new tab.
func (t *MainWindow) OpenFile(path string, build int) {
	t.SetStatus("Loading " + filepath.Base(path) + "...")
	done := t.showProgress(fmt.Sprintf("Loading %s...", filepath.Base(path)))

	go func() {
		model, err := t.loadModel(path, build)
		fyne.Do(func() {
			done()
			if err != nil {
				t.showLoadError(path, err)
				return
			}
			t.addTab(model)
		})
	}()
}

// addTab registers model with the workspace and shows it in a new tab.
func (t *MainWindow) addTab(model *datatable.TableModel) {
	tab := t.ws.Add(model)
	view := NewTableView(model, t.logger, t.SetStatus)
	model.AddListener(datatable.ListenerFuncs{Changed: func() {
		if t.ws.Current() == tab {
			t.refreshCurrent()
		}
	}})

	item := container.NewTabItem(filepath.Base(tab.Path()), view.Content())
	t.tabIDs[item] = tab.ID
	t.docTabs.Append(item)
	t.docTabs.Select(item)

	t.logger.Info("file opened", "path", tab.Path(), "build", tab.Build(),
		"kind", model.Source().KindName(), "rows", model.TotalRows())
	t.refreshCurrent()
}

// showLoadError reports a failed open or re-open.
func (t *MainWindow) showLoadError(path string, err error) {
	t.logger.Error("failed to load file", "path", path, "error", err)

	var se *datatable.StructureError
	if errors.As(err, &se) {
		t.SetStatus("Not a valid structured file: " + filepath.Base(path))
	} else {
		t.SetStatus("Error loading file: " + err.Error())
	}
	dialog.ShowError(err, t.w)
}

// showProgress shows an infinite progress dialog and returns the function
// that hides it. Both must be called on the UI goroutine.
func (t *MainWindow) showProgress(title string) func() {
	pbi := widget.NewProgressBarInfinite()
	di := dialog.NewCustomWithoutButtons(title, pbi, t.w)
	di.Resize(fyne.NewSize(300, 100))
	di.Show()
	pbi.Start()
	return func() {
		pbi.Stop()
		di.Hide()
	}
}
