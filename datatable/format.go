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
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxCellLength limits the length of a displayed cell.
	DefaultMaxCellLength = 200

	// Ellipsis is appended to truncated cells.
	Ellipsis = "..."
)

// FormatCell renders a raw value for display and applies the default
// length limit.
func FormatCell(raw any, kind FieldKind) string {
	return Truncate(FormatValue(raw, kind), DefaultMaxCellLength)
}

// FormatValue renders a raw value according to the field kind, without
// truncation.
func FormatValue(raw any, kind FieldKind) string {
	switch kind {
	case KindHashBytes, KindOpaqueData:
		return formatBytes(raw)
	case KindBitMask:
		if u, ok := raw.(uint64); ok {
			return fmt.Sprintf("0x%08x", u)
		}
		v, ok := asInt64(raw)
		if !ok {
			return formatPlain(raw)
		}
		return FormatBitMask(v)
	case KindMoney:
		if u, ok := raw.(uint64); ok {
			return joinMoney(strconv.FormatUint(u/10000, 10), int64(u/100%100), int64(u%100))
		}
		v, ok := asInt64(raw)
		if !ok {
			return formatPlain(raw)
		}
		return FormatMoney(v)
	case KindPlain:
		return formatPlain(raw)
	default:
		panic(fmt.Sprintf("datatable: unhandled field kind %v", kind))
	}
}

// FormatHash returns the lowercase hex encoding of b.
func FormatHash(b []byte) string {
	return hex.EncodeToString(b)
}

// FormatBitMask renders v as 0x followed by at least eight lowercase hex
// digits. Negative values in the int32 range are shown as their 32-bit two's
// complement, smaller ones as their 64-bit two's complement.
func FormatBitMask(v int64) string {
	switch {
	case v >= 0:
		return fmt.Sprintf("0x%08x", v)
	case v >= math.MinInt32:
		return fmt.Sprintf("0x%08x", uint32(v))
	default:
		return fmt.Sprintf("0x%016x", uint64(v))
	}
}

// FormatMoney splits a copper amount into gold, silver and copper and joins
// the non-zero parts, e.g. "12g 34s 56c". Zero is "0c".
func FormatMoney(v int64) string {
	gold, silver, copper := Price(v)
	return joinMoney(strconv.FormatInt(gold, 10), silver, copper)
}

func joinMoney(gold string, silver, copper int64) string {
	parts := make([]string, 0, 3)
	if gold != "0" {
		parts = append(parts, gold+"g")
	}
	if silver != 0 {
		parts = append(parts, strconv.FormatInt(silver, 10)+"s")
	}
	if copper != 0 {
		parts = append(parts, strconv.FormatInt(copper, 10)+"c")
	}
	if len(parts) == 0 {
		return "0c"
	}
	return strings.Join(parts, " ")
}

// Price decodes a copper amount. Division is floored so that silver and
// copper are always in [0, 100).
func Price(v int64) (gold, silver, copper int64) {
	gold = floorDiv(v, 10000)
	silver = floorMod(floorDiv(v, 100), 100)
	copper = floorMod(v, 100)
	return gold, silver, copper
}

// Truncate cuts s to max runes and appends Ellipsis when it is longer.
// A max of zero or less disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}

func formatBytes(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case []byte:
		return FormatHash(v)
	case string:
		return FormatHash([]byte(v))
	default:
		return formatPlain(raw)
	}
}

func formatPlain(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func asInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint32:
		return int64(v), true
	default:
		return 0, false
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
