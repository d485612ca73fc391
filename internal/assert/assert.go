// Package assert holds invariant checks for values that are supplied by the
// caller at construction time. A failed check is a programming error so it
// panics instead of returning an error.
package assert

import (
	"fmt"
	"reflect"
)

// NotNil panics on a nil interface as well as on a typed nil pointer, map,
// slice, channel or func hidden behind one.
func NotNil(value any) {
	if isNil(value) {
		panic(fmt.Sprintf("expected value to be not nil, got %T", value))
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

// Positive panics if n is zero or negative, name is included in the message.
func Positive(name string, n int) {
	if n <= 0 {
		panic(fmt.Sprintf("expected %s to be positive, got %d", name, n))
	}
}
