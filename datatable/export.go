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

package datatable

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// ExportCSV writes the header and the loaded rows of m, in display order, as
// comma separated lines. Cells hold the raw values rather than the display
// strings. Embedded commas are not quoted.
func ExportCSV(w io.Writer, m *TableModel) error {
	bw := bufio.NewWriter(w)

	if err := writeLine(bw, ColumnNames(m.columns)); err != nil {
		return fmt.Errorf("%w: write header: %w", ErrExportFailed, err)
	}

	fields := make([]string, len(m.columns))
	for i, row := range m.rows {
		for col, v := range row {
			fields[col] = RawString(v)
		}
		if err := writeLine(bw, fields); err != nil {
			return fmt.Errorf("%w: write row %d: %w", ErrExportFailed, i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

// RawString is the export representation of a raw value. Byte slices are
// hex encoded so that the output stays valid UTF-8.
func RawString(v any) string {
	if b, ok := v.([]byte); ok {
		return hex.EncodeToString(b)
	}
	return formatPlain(v)
}

func writeLine(w *bufio.Writer, fields []string) error {
	if _, err := w.WriteString(strings.Join(fields, ",")); err != nil {
		return err
	}
	return w.WriteByte('\n')
}
