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

package adapters

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	arrowadapter "qtab/adapters/arrow"
	"qtab/datatable"
)

// ExportFormat represents the supported export formats
type ExportFormat int

const (
	FormatCSV ExportFormat = iota
	FormatParquet
	FormatJSON
)

// ExportFormats lists the formats in menu order.
var ExportFormats = []ExportFormat{FormatCSV, FormatParquet, FormatJSON}

func (f ExportFormat) String() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatParquet:
		return "Parquet"
	case FormatJSON:
		return "JSON"
	default:
		return fmt.Sprintf("ExportFormat(%d)", int(f))
	}
}

// Extension returns the file extension of the format, with the dot.
func (f ExportFormat) Extension() string {
	switch f {
	case FormatParquet:
		return ".parquet"
	case FormatJSON:
		return ".json"
	default:
		return ".csv"
	}
}

// FormatForPath picks the export format from a file name, falling back to
// CSV.
func FormatForPath(path string) ExportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet
	case ".json":
		return FormatJSON
	default:
		return FormatCSV
	}
}

// DefaultExportName suggests an output file name for the table loaded from
// path: its base name with the format's extension.
func DefaultExportName(path string, format ExportFormat) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		base = "export"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + format.Extension()
}

// Export writes the model's loaded rows, in display order, to w.
func Export(w io.Writer, m *datatable.TableModel, format ExportFormat) error {
	switch format {
	case FormatCSV:
		return datatable.ExportCSV(w, m)
	case FormatParquet:
		return arrowadapter.WriteParquet(w, m)
	case FormatJSON:
		return arrowadapter.WriteJSON(w, m)
	default:
		return fmt.Errorf("%w: unsupported format %s", datatable.ErrExportFailed, format)
	}
}

// ExportFile creates path and exports the model to it.
func ExportFile(path string, m *datatable.TableModel, format ExportFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", datatable.ErrExportFailed, err)
	}
	if err := Export(f, m, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", datatable.ErrExportFailed, err)
	}
	return nil
}
