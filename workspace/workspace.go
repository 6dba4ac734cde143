// Package workspace keeps the open tabs of the viewer and the model owned by
// each of them.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"qtab/datatable"
)

var (
	// ErrNoTab is returned when a tab id is not registered.
	ErrNoTab = errors.New("no such tab")

	// ErrInvalidBuild is returned for build numbers below BuildAuto.
	ErrInvalidBuild = errors.New("invalid build number")
)

// ParseBuild parses a build number as typed by the user. -1 selects the
// build automatically.
func ParseBuild(s string) (int, error) {
	build, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBuild, s)
	}
	if build < datatable.BuildAuto {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBuild, build)
	}
	return build, nil
}

// Tab is one open file.
type Tab struct {
	ID    uuid.UUID
	Model *datatable.TableModel
}

// Path returns the file shown in the tab.
func (t *Tab) Path() string {
	if src := t.Model.Source(); src != nil {
		return src.Path()
	}
	return ""
}

// Build returns the build the tab's file was parsed with.
func (t *Tab) Build() int {
	if src := t.Model.Source(); src != nil {
		return src.Build()
	}
	return datatable.BuildAuto
}

// Workspace is an ordered set of tabs with one current tab.
// It is not safe for concurrent use.
type Workspace struct {
	open    datatable.OpenFunc
	logger  *slog.Logger
	tabs    map[uuid.UUID]*Tab
	order   []uuid.UUID
	current uuid.UUID
}

// New creates an empty workspace that opens files with open.
func New(open datatable.OpenFunc, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		open:   open,
		logger: logger,
		tabs:   make(map[uuid.UUID]*Tab),
	}
}

// Add registers a model as a new tab and makes it current.
func (w *Workspace) Add(model *datatable.TableModel) *Tab {
	tab := &Tab{ID: uuid.New(), Model: model}
	w.tabs[tab.ID] = tab
	w.order = append(w.order, tab.ID)
	w.current = tab.ID
	w.logger.Info("tab opened", "tab", tab.ID, "path", tab.Path())
	return tab
}

// Get returns a tab by id.
func (w *Workspace) Get(id uuid.UUID) (*Tab, error) {
	tab, ok := w.tabs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoTab, id)
	}
	return tab, nil
}

// Current returns the current tab, or nil when no tab is open.
func (w *Workspace) Current() *Tab {
	return w.tabs[w.current]
}

// Select makes a tab current.
func (w *Workspace) Select(id uuid.UUID) error {
	if _, ok := w.tabs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoTab, id)
	}
	w.current = id
	return nil
}

// Tabs returns the open tabs in the order they were added.
func (w *Workspace) Tabs() []*Tab {
	tabs := make([]*Tab, 0, len(w.order))
	for _, id := range w.order {
		tabs = append(tabs, w.tabs[id])
	}
	return tabs
}

// Len returns the number of open tabs.
func (w *Workspace) Len() int {
	return len(w.order)
}

// Close removes a tab and releases its file. When the current tab is closed
// its right neighbour, or else the last tab, becomes current.
func (w *Workspace) Close(id uuid.UUID) error {
	tab, ok := w.tabs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTab, id)
	}

	idx := slices.Index(w.order, id)
	w.order = slices.Delete(w.order, idx, idx+1)
	delete(w.tabs, id)

	if w.current == id {
		w.current = uuid.Nil
		if len(w.order) > 0 {
			w.current = w.order[min(idx, len(w.order)-1)]
		}
	}

	w.logger.Info("tab closed", "tab", id, "path", tab.Path())
	return tab.Model.Close()
}

// ChangeBuild reopens the tab's file at build and loads it into the tab's
// model. On failure the tab keeps its current file and rows.
func (w *Workspace) ChangeBuild(id uuid.UUID, build int) error {
	tab, err := w.Get(id)
	if err != nil {
		return err
	}
	path := tab.Path()
	if path == "" {
		return fmt.Errorf("tab %s: %w", id, datatable.ErrNoDataSource)
	}

	src, err := w.open(path, build)
	if err != nil {
		return err
	}
	if err := tab.Model.SetFile(src); err != nil {
		src.Close()
		return err
	}

	w.logger.Info("build changed", "tab", id, "path", path, "build", src.Build())
	return nil
}
