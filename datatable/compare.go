package datatable

import (
	"bytes"
	"cmp"
	"math"
	"strings"
)

// value classes in their cross-type order
const (
	classNull = iota
	classBool
	classNumber
	classString
	classBytes
	classOther
)

// CompareValues orders two raw values. Numbers compare numerically across
// integer and float types, strings and byte slices lexically. Values of
// different classes order as nil < bool < number < string < bytes.
func CompareValues(a, b any) int {
	ca, cb := classOf(a), classOf(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}

	switch ca {
	case classNull:
		return 0
	case classBool:
		return compareBool(a.(bool), b.(bool))
	case classNumber:
		return compareNumbers(a, b)
	case classString:
		return strings.Compare(a.(string), b.(string))
	case classBytes:
		return bytes.Compare(a.([]byte), b.([]byte))
	default:
		return strings.Compare(formatPlain(a), formatPlain(b))
	}
}

func classOf(v any) int {
	switch v.(type) {
	case nil:
		return classNull
	case bool:
		return classBool
	case int64, uint64, int, int32, uint32, float32, float64:
		return classNumber
	case string:
		return classString
	case []byte:
		return classBytes
	default:
		return classOther
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareNumbers(a, b any) int {
	if ua, ok := a.(uint64); ok {
		if ub, ok := b.(uint64); ok {
			return cmp.Compare(ua, ub)
		}
		if ib, ok := asInt64(b); ok && !isFloat(b) {
			return compareUintInt(ua, ib)
		}
	}
	if ub, ok := b.(uint64); ok {
		if ia, ok := asInt64(a); ok && !isFloat(a) {
			return -compareUintInt(ub, ia)
		}
	}
	if !isFloat(a) && !isFloat(b) {
		ia, _ := asInt64(a)
		ib, _ := asInt64(b)
		return cmp.Compare(ia, ib)
	}
	return cmp.Compare(asFloat64(a), asFloat64(b))
}

func compareUintInt(u uint64, i int64) int {
	if i < 0 || u > math.MaxInt64 {
		return 1
	}
	return cmp.Compare(int64(u), i)
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	case uint64:
		return float64(n)
	default:
		i, _ := asInt64(v)
		return float64(i)
	}
}
