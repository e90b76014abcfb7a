package utils

import (
	"cmp"
	"reflect"
	"strings"
)

// class ranks values of different kinds so that mixed values still have a
// total order: nil < bool < number < string < anything else.
func class(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return 3
	}
	if _, ok := ToFloat(v); ok {
		return 2
	}
	return 4
}

// Compare orders two scalar values and returns -1, 0 or 1.
// Numbers compare numerically regardless of their Go type, strings lexically
// and bools false before true. Values of other kinds compare by their fmt
// rendering.
func Compare(a, b any) int {
	ca, cb := class(a), class(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}

	switch ca {
	case 0:
		return 0
	case 1:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 2:
		af, _ := ToFloat(a)
		bf, _ := ToFloat(b)
		return cmp.Compare(af, bf)
	case 3:
		return strings.Compare(a.(string), b.(string))
	default:
		return strings.Compare(ToString(a), ToString(b))
	}
}

// Equal reports whether two values are the same item.
// Numbers are equal across Go types when numerically equal; other comparable
// values use ==, and maps or slices fall back to reflect.DeepEqual.
func Equal(a, b any) bool {
	if af, ok := ToFloat(a); ok {
		bf, ok := ToFloat(b)
		return ok && af == bf
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta.Comparable() && ta == reflect.TypeOf(b) {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
