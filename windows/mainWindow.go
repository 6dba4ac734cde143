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

// Package windows is the desktop front end: one window with a tab per open
// record file.
package windows

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"

	"qtab/adapters"
	"qtab/internal/config"
	"qtab/workspace"
)

const appName = "qtab"

// Options configures the main window.
type Options struct {
	Config *config.Config
	Opener *adapters.Opener
	Logger *slog.Logger

	// Files are opened at Config.Build once the window is up.
	Files []string
}

type MainWindow struct {
	a         fyne.App
	w         fyne.Window
	cfg       *config.Config
	opener    *adapters.Opener
	logger    *slog.Logger
	ws        *workspace.Workspace
	docTabs   *container.DocTabs
	tabIDs    map[*container.TabItem]uuid.UUID
	statusBar *widget.Label
	openDir   string
}

// Run creates the main window and blocks until the application quits.
func Run(opts Options) {
	t := NewMainWindow(opts)
	t.w.ShowAndRun()
}

// NewMainWindow builds the window without showing it.
func NewMainWindow(opts Options) *MainWindow {
	t := &MainWindow{
		cfg:    opts.Config,
		opener: opts.Opener,
		logger: opts.Logger,
		tabIDs: make(map[*container.TabItem]uuid.UUID),
	}
	if t.cfg == nil {
		t.cfg = config.DefaultConfig()
	}
	if t.opener == nil {
		t.opener = &adapters.Opener{}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.openDir = t.cfg.OpenDir
	t.ws = workspace.New(t.opener.Open, t.logger)

	t.a = app.NewWithID(appName)
	t.a.Settings().SetTheme(&tableTheme{})
	t.w = t.a.NewWindow(appName)
	t.w.Resize(fyne.NewSize(1024, 768))
	t.w.SetMaster()

	t.statusBar = widget.NewLabel("Ready")
	t.statusBar.TextStyle = fyne.TextStyle{Italic: true}
	t.statusBar.Truncation = fyne.TextTruncateEllipsis

	t.docTabs = container.NewDocTabs()
	t.docTabs.CloseIntercept = t.closeTab
	t.docTabs.OnSelected = func(ti *container.TabItem) {
		if id, ok := t.tabIDs[ti]; ok {
			if err := t.ws.Select(id); err != nil {
				t.logger.Warn("tab not in workspace", "tab", id, "error", err)
			}
		}
		t.refreshCurrent()
	}

	t.w.SetMainMenu(t.mainMenu())
	c := container.NewBorder(t.toolbar(), t.statusBar, nil, nil, t.docTabs)
	t.w.SetContent(c)

	t.w.SetOnClosed(func() {
		for _, tab := range t.ws.Tabs() {
			if err := t.ws.Close(tab.ID); err != nil {
				t.logger.Warn("failed to close tab", "path", tab.Path(), "error", err)
			}
		}
	})

	files := opts.Files
	t.a.Lifecycle().SetOnStarted(func() {
		for _, f := range files {
			t.OpenFile(f, t.cfg.Build)
		}
	})
	return t
}

// SetStatus updates the status bar message. It may be called from any
// goroutine.
func (t *MainWindow) SetStatus(message string) {
	fyne.Do(func() {
		t.statusBar.SetText(message)
	})
}

func (t *MainWindow) mainMenu() *fyne.MainMenu {
	open := fyne.NewMenuItem("Open...", t.showOpenDialog)
	open.Icon = theme.FolderOpenIcon()
	open.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}

	build := fyne.NewMenuItem("Change build...", t.showBuildDialog)
	build.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyB, Modifier: fyne.KeyModifierShortcutDefault}

	closeItem := fyne.NewMenuItem("Close", t.closeOrQuit)
	closeItem.Icon = theme.CancelIcon()
	closeItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierShortcutDefault}

	// Fyne appends Quit to the first menu.
	file := fyne.NewMenu("File",
		open,
		build,
		t.exportMenu(),
		fyne.NewMenuItemSeparator(),
		closeItem,
	)
	help := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", t.showAbout),
	)
	return fyne.NewMainMenu(file, help)
}

func (t *MainWindow) toolbar() *widget.Toolbar {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), t.showOpenDialog),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			t.exportCurrent(adapters.FormatCSV)
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), t.showBuildDialog),
	)
}

func (t *MainWindow) showAbout() {
	dialog.ShowInformation("About "+appName,
		appName+" displays structured binary record files as sortable tables.", t.w)
}

// closeTab removes a tab from the window and releases its file.
func (t *MainWindow) closeTab(ti *container.TabItem) {
	id, ok := t.tabIDs[ti]
	t.docTabs.Remove(ti)
	if !ok {
		return
	}
	delete(t.tabIDs, ti)

	if err := t.ws.Close(id); err != nil {
		t.logger.Warn("failed to close tab", "tab", id, "error", err)
	}
	if sel := t.docTabs.Selected(); sel != nil {
		if selID, ok := t.tabIDs[sel]; ok {
			_ = t.ws.Select(selID)
		}
	}
	t.refreshCurrent()
}

// closeOrQuit closes the current tab, or quits when none is open.
func (t *MainWindow) closeOrQuit() {
	if ti := t.docTabs.Selected(); ti != nil {
		t.closeTab(ti)
		return
	}
	t.a.Quit()
}

// refreshCurrent shows the current tab's path in the title and its status in
// the status bar.
func (t *MainWindow) refreshCurrent() {
	tab := t.ws.Current()
	if tab == nil {
		t.w.SetTitle(appName)
		t.statusBar.SetText("Ready")
		return
	}
	t.w.SetTitle(fmt.Sprintf("%s - %s", tab.Path(), appName))

	status := tab.Model.Status()
	if s := tab.Model.SortState(); s.IsSorted() {
		if name, err := tab.Model.ColumnName(s.Column); err == nil {
			status += fmt.Sprintf(" | Sorted: %s %s", name, s.Direction)
		}
	}
	t.statusBar.SetText(status)
}
