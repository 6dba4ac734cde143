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

// Package adapters opens record files with the adapter matching their type.
package adapters

import (
	"log/slog"
	"path/filepath"
	"strings"

	arrowadapter "qtab/adapters/arrow"
	"qtab/adapters/wdbc"
	"qtab/datatable"
)

// FileType represents the type of record file
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeWDBC
	FileTypeParquet
	FileTypeCSV
	FileTypeJSON
)

// Extensions lists the file extensions the opener understands, for file
// dialogs.
var Extensions = []string{".dbc", ".db2", ".wdb", ".dba", ".wcf", ".parquet", ".csv", ".json"}

// DetectFileType determines the type of file based on its extension
func DetectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dbc", ".db2", ".wdb", ".dba", ".wcf":
		return FileTypeWDBC
	case ".parquet":
		return FileTypeParquet
	case ".csv":
		return FileTypeCSV
	case ".json":
		return FileTypeJSON
	default:
		return FileTypeUnknown
	}
}

// Opener opens record files. The zero value uses the built-in WDBC
// structures and the default logger.
type Opener struct {
	Structures *wdbc.Registry
	Logger     *slog.Logger
}

// Open opens path at build with the adapter for its file type. It has the
// signature of datatable.OpenFunc.
func (o *Opener) Open(path string, build int) (datatable.Source, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch DetectFileType(path) {
	case FileTypeWDBC:
		opts := []wdbc.Option{wdbc.WithLogger(logger)}
		if o.Structures != nil {
			opts = append(opts, wdbc.WithRegistry(o.Structures))
		}
		f, err := wdbc.Open(path, build, opts...)
		if err != nil {
			return nil, err
		}
		h := f.Header()
		logger.Debug("wdbc file opened", "path", path, "structure", f.StructureName(),
			"build", f.Build(), "records", h.RecordCount, "record_size", h.RecordSize)
		return f, nil
	case FileTypeParquet:
		s, err := arrowadapter.OpenParquet(path, build)
		if err != nil {
			return nil, err
		}
		return s, nil
	case FileTypeCSV:
		s, err := OpenCSV(path, build)
		if err != nil {
			return nil, err
		}
		return s, nil
	case FileTypeJSON:
		s, err := OpenJSON(path, build)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, "unsupported file type")
	}
}
