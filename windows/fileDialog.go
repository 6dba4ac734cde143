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
	"path/filepath"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"qtab/adapters"
	"qtab/workspace"
)

// showOpenDialog lets the user pick a record file and opens it at the
// default build.
func (t *MainWindow) showOpenDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.w)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		t.openDir = filepath.Dir(path)
		t.OpenFile(path, t.cfg.Build)
	}, t.w)

	d.SetFilter(storage.NewExtensionFileFilter(adapters.Extensions))
	if t.openDir != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(t.openDir)); err == nil {
			d.SetLocation(lister)
		}
	}
	d.Resize(fyne.NewSize(800, 600))
	d.Show()
}

// showBuildDialog asks for a build number and reopens the current tab's file
// with it. Nothing happens when the build is unchanged.
func (t *MainWindow) showBuildDialog() {
	tab := t.ws.Current()
	if tab == nil {
		return
	}
	current := tab.Build()

	entry := widget.NewEntry()
	entry.SetText(strconv.Itoa(current))
	entry.Validator = func(s string) error {
		_, err := workspace.ParseBuild(s)
		return err
	}

	items := []*widget.FormItem{
		widget.NewFormItem("Build number", entry),
	}
	dialog.ShowForm("Change build", "Apply", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		build, err := workspace.ParseBuild(entry.Text)
		if err != nil || build == current {
			return
		}
		if err := t.ws.ChangeBuild(tab.ID, build); err != nil {
			t.showLoadError(tab.Path(), err)
			return
		}
		t.logger.Info("build changed", "path", tab.Path(), "from", current, "to", tab.Build())
		t.refreshCurrent()
	}, t.w)
}
