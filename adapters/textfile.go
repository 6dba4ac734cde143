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
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"qtab/adapters/slice"
	"qtab/datatable"
)

// Kind names reported for text files.
const (
	KindCSV  = "CSV file"
	KindJSON = "JSON file"
)

// candidate separators, in tie-break order
var separators = []rune{',', ';', '\t', '|'}

// DetectSeparator picks the separator occurring most often in the first
// line of r. Comma is the default.
func DetectSeparator(r io.Reader) rune {
	line, _ := bufio.NewReader(r).ReadString('\n')
	best, count := ',', 0
	for _, sep := range separators {
		if n := strings.Count(line, string(sep)); n > count {
			best, count = sep, n
		}
	}
	return best
}

// OpenCSV reads a delimited text file with a header line into memory. Cells
// that parse as numbers become numbers and empty cells become nil. Text
// files carry no build; an explicit build is reported as given.
func OpenCSV(path string, build int) (*slice.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sep := DetectSeparator(bytes.NewReader(data))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, err.Error())
	}
	if len(records) == 0 {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, "no header line")
	}

	columns := make([]datatable.FieldDescriptor, len(records[0]))
	for i, name := range records[0] {
		columns[i] = datatable.FieldDescriptor{Name: strings.TrimSpace(name)}
	}
	rows := make([]datatable.Row, len(records)-1)
	for i, rec := range records[1:] {
		row := make(datatable.Row, len(rec))
		for j, cell := range rec {
			row[j] = parseCell(strings.TrimSpace(cell))
		}
		rows[i] = row
	}

	src, err := slice.New(columns, rows)
	if err != nil {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, err.Error())
	}
	return src.WithPath(path).WithBuild(textBuild(build)).WithKindName(KindCSV), nil
}

// parseCell converts a CSV cell to int64, float64 or string.
func parseCell(s string) any {
	if s == "" {
		return nil
	}
	if c := s[0]; c != '-' && c != '+' && c != '.' && (c < '0' || c > '9') {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// OpenJSON reads a JSON array of objects, or a single object, into memory.
// Columns appear in the order their keys are first seen.
func OpenJSON(path string, build int) (*slice.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	columns, records, err := decodeRecords(bufio.NewReader(f))
	if err != nil {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, err.Error())
	}
	if len(records) == 0 {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, "no records")
	}

	src, err := slice.NewFromMaps(columns, records)
	if err != nil {
		return nil, datatable.NewStructureError(path, build, datatable.ErrNotStructured, err.Error())
	}
	return src.WithPath(path).WithBuild(textBuild(build)).WithKindName(KindJSON), nil
}

func decodeRecords(r io.Reader) ([]datatable.FieldDescriptor, []map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var (
		columns []datatable.FieldDescriptor
		seen    = make(map[string]bool)
		records []map[string]any
	)
	addKeys := func(keys []string) {
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, datatable.FieldDescriptor{Name: k})
			}
		}
	}

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	switch tok {
	case json.Delim('{'):
		keys, rec, err := decodeObject(dec)
		if err != nil {
			return nil, nil, err
		}
		addKeys(keys)
		records = append(records, rec)
	case json.Delim('['):
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, nil, err
			}
			if tok != json.Delim('{') {
				return nil, nil, fmt.Errorf("record %d is not an object", len(records))
			}
			keys, rec, err := decodeObject(dec)
			if err != nil {
				return nil, nil, err
			}
			addKeys(keys)
			records = append(records, rec)
		}
		if _, err := dec.Token(); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errors.New("expected an object or an array of objects")
	}
	return columns, records, nil
}

// decodeObject reads the members of an object whose opening brace was
// already consumed.
func decodeObject(dec *json.Decoder) ([]string, map[string]any, error) {
	var keys []string
	rec := make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = jsonValue(v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, rec, nil
}

// jsonValue maps a decoded JSON value to a cell value. Nested objects and
// arrays are kept as their JSON text.
func jsonValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return v
	}
}

func textBuild(build int) int {
	if build == datatable.BuildAuto {
		return 0
	}
	return build
}
