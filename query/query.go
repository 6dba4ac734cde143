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

// Package query filters table rows with simple search expressions such as
//
//	id >= 100 AND name ~ cloth
//	flags = 0x00000010 OR linen
//
// A term without an operator matches rows where any displayed cell contains
// it. Terms are combined left to right; AND and OR have equal precedence.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"qtab/datatable"
)

// ErrUnknownColumn is returned when an expression names a missing column.
var ErrUnknownColumn = errors.New("unknown column")

// CompOp is a comparison operator.
type CompOp int

const (
	OpEqual CompOp = iota
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpContains
)

var operators = []struct {
	op     CompOp
	symbol string
}{
	{OpGreaterEqual, ">="},
	{OpLessEqual, "<="},
	{OpNotEqual, "!="},
	{OpEqual, "="},
	{OpGreater, ">"},
	{OpLess, "<"},
	{OpContains, "~"},
}

// Expression is a single comparison. Column is -1 for a free text term.
type Expression struct {
	Column   int
	Operator CompOp
	Value    string
}

// LogicalOp joins two expressions.
type LogicalOp int

const (
	LogicAND LogicalOp = iota
	LogicOR
)

// Query is a parsed search over one table's columns.
type Query struct {
	Expressions []Expression
	LogicOps    []LogicalOp

	columns []datatable.FieldDescriptor
}

// Parse parses s against columns. An empty string yields a nil query, which
// matches every row.
func Parse(s string, columns []datatable.FieldDescriptor) (*Query, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[strings.ToLower(c.Name)] = i
	}

	q := &Query{columns: columns}
	for _, part := range splitByLogicOps(s) {
		if part.isOperator {
			if part.text == "AND" {
				q.LogicOps = append(q.LogicOps, LogicAND)
			} else {
				q.LogicOps = append(q.LogicOps, LogicOR)
			}
			continue
		}
		expr, err := parseExpression(part.text, index)
		if err != nil {
			return nil, err
		}
		q.Expressions = append(q.Expressions, expr)
	}

	if len(q.Expressions) == 0 || len(q.LogicOps) != len(q.Expressions)-1 {
		return nil, fmt.Errorf("invalid query %q: mismatched expressions and operators", s)
	}
	return q, nil
}

type queryPart struct {
	text       string
	isOperator bool
}

// splitByLogicOps splits s on whitespace delimited AND/OR, keeping the
// operators.
func splitByLogicOps(s string) []queryPart {
	var parts []queryPart
	var current []string
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, queryPart{text: strings.Join(current, " ")})
			current = current[:0]
		}
	}

	for _, word := range strings.Fields(s) {
		switch up := strings.ToUpper(word); up {
		case "AND", "OR":
			flush()
			parts = append(parts, queryPart{text: up, isOperator: true})
		default:
			current = append(current, word)
		}
	}
	flush()
	return parts
}

// parseExpression parses "column op value". The leftmost operator wins; at
// equal positions the longer symbol does.
func parseExpression(s string, index map[string]int) (Expression, error) {
	best, at := -1, len(s)
	for i, o := range operators {
		idx := strings.Index(s, o.symbol)
		if idx > 0 && idx < at {
			best, at = i, idx
		}
	}
	if best < 0 {
		return Expression{Column: -1, Operator: OpContains, Value: s}, nil
	}

	o := operators[best]
	name := strings.TrimSpace(s[:at])
	value := strings.Trim(strings.TrimSpace(s[at+len(o.symbol):]), `"'`)

	col, ok := index[strings.ToLower(name)]
	if !ok {
		return Expression{}, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return Expression{Column: col, Operator: o.op, Value: value}, nil
}

// Match reports whether row satisfies the query. A nil query matches all
// rows.
func (q *Query) Match(row datatable.Row) bool {
	if q == nil || len(q.Expressions) == 0 {
		return true
	}

	result := q.eval(q.Expressions[0], row)
	for i, op := range q.LogicOps {
		next := q.eval(q.Expressions[i+1], row)
		switch op {
		case LogicAND:
			result = result && next
		case LogicOR:
			result = result || next
		}
	}
	return result
}

// Filter returns the display indexes of the model's loaded rows that match.
func (q *Query) Filter(m *datatable.TableModel) []int {
	rows := m.Rows()
	matched := make([]int, 0, len(rows))
	for i, row := range rows {
		if q.Match(row) {
			matched = append(matched, i)
		}
	}
	return matched
}

func (q *Query) display(row datatable.Row, col int) string {
	return datatable.FormatValue(row[col], q.columns[col].Kind)
}

func (q *Query) eval(expr Expression, row datatable.Row) bool {
	if expr.Column < 0 {
		needle := strings.ToLower(expr.Value)
		for col := range row {
			if strings.Contains(strings.ToLower(q.display(row, col)), needle) {
				return true
			}
		}
		return false
	}
	if expr.Column >= len(row) {
		return false
	}

	raw := row[expr.Column]
	shown := q.display(row, expr.Column)

	switch expr.Operator {
	case OpEqual:
		return equal(raw, shown, expr.Value)
	case OpNotEqual:
		return !equal(raw, shown, expr.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(shown), strings.ToLower(expr.Value))
	default:
		return order(compare(raw, shown, expr.Value), expr.Operator)
	}
}

// equal compares numerically when both sides are numbers, and otherwise
// compares the displayed text case-insensitively.
func equal(raw any, shown, value string) bool {
	if n, ok := number(value); ok && isNumber(raw) {
		return datatable.CompareValues(raw, n) == 0
	}
	return strings.EqualFold(shown, value)
}

func compare(raw any, shown, value string) int {
	if n, ok := number(value); ok && isNumber(raw) {
		return datatable.CompareValues(raw, n)
	}
	return strings.Compare(strings.ToLower(shown), strings.ToLower(value))
}

func order(cmp int, op CompOp) bool {
	switch op {
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	}
	return false
}

// number parses a decimal, 0x hex or float literal. Leading zeros are
// decimal and digit separators are not accepted.
func number(s string) (any, bool) {
	if strings.ContainsRune(s, '_') {
		return nil, false
	}
	if h, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		if u, err := strconv.ParseUint(h, 16, 64); err == nil {
			return u, true
		}
		return nil, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(strings.ToLower(s), "xpn") {
		return f, true
	}
	return nil, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int64, uint64, float32, float64:
		return true
	}
	return false
}
