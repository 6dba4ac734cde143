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

// Package datatable provides a paging table model over structured record
// sources, together with the cell formatting and export used to display them.
package datatable

import (
	"fmt"
	"strings"
)

// FieldKind is the semantic interpretation of a column's raw value.
type FieldKind int

const (
	// KindPlain values are displayed as they are.
	KindPlain FieldKind = iota
	// KindHashBytes holds a fixed-size hash digest.
	KindHashBytes
	// KindOpaqueData holds an arbitrary binary blob.
	KindOpaqueData
	// KindBitMask holds a 32-bit flag set.
	KindBitMask
	// KindMoney holds an amount expressed in copper.
	KindMoney
)

// String returns the string representation of a FieldKind.
func (k FieldKind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindHashBytes:
		return "hash"
	case KindOpaqueData:
		return "data"
	case KindBitMask:
		return "bitmask"
	case KindMoney:
		return "money"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseFieldKind is the inverse of FieldKind.String. The empty string is
// KindPlain.
func ParseFieldKind(s string) (FieldKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain":
		return KindPlain, nil
	case "hash":
		return KindHashBytes, nil
	case "data":
		return KindOpaqueData, nil
	case "bitmask":
		return KindBitMask, nil
	case "money":
		return KindMoney, nil
	default:
		return KindPlain, fmt.Errorf("%w: %q", ErrUnknownFieldKind, s)
	}
}

// FieldDescriptor is the static metadata of one column.
type FieldDescriptor struct {
	Name string
	Kind FieldKind
}

// ColumnNames returns the names of the given descriptors in order.
func ColumnNames(fields []FieldDescriptor) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Row is one record as produced by a Source. Values are positionally aligned
// with the source's columns and are one of nil, int64, uint64, float32,
// float64, bool, string or []byte.
type Row []any

// SortDirection specifies the direction of sorting.
type SortDirection int

const (
	// SortNone indicates no sorting.
	SortNone SortDirection = iota
	// SortAscending indicates ascending sort order.
	SortAscending
	// SortDescending indicates descending sort order.
	SortDescending
)

// String returns the string representation of a SortDirection.
func (sd SortDirection) String() string {
	switch sd {
	case SortNone:
		return "None"
	case SortAscending:
		return "Ascending"
	case SortDescending:
		return "Descending"
	default:
		return fmt.Sprintf("Unknown(%d)", sd)
	}
}

// SortState represents the current sorting configuration.
type SortState struct {
	// Column is the index of the sorted column (-1 if unsorted).
	Column int
	// Direction is the sort direction.
	Direction SortDirection
}

// Unsorted is the zero sort configuration.
var Unsorted = SortState{Column: -1, Direction: SortNone}

// IsSorted returns true if this state represents an active sort.
func (s SortState) IsSorted() bool {
	return s.Column >= 0 && s.Direction != SortNone
}
