// SPDX-License-Identifier: MIT
//
// File: convert.go
// Role: dynamic conversion of front-end supplied values into typed node values.

package value

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// ErrNotConvertible indicates a value whose type or shape cannot be
// converted to the requested node type.
var ErrNotConvertible = errors.New("value: not convertible")

// Convert converts v to T.
//
// Accepted conversions:
//   - identity (v already is a T);
//   - any integer or float kind to float64;
//   - an integral float or any integer kind to int (no truncation);
//   - slices element-wise under the same rules, including []any.
//
// Anything else returns ErrNotConvertible wrapped with both type names.
func Convert[T any](v any) (T, error) {
	var zero T
	if t, ok := v.(T); ok {
		return t, nil
	}
	if v == nil {
		return zero, fmt.Errorf("%w: nil to %T", ErrNotConvertible, zero)
	}

	target := reflect.TypeOf((*T)(nil)).Elem()
	out, err := convertValue(reflect.ValueOf(v), target)
	if err != nil {
		return zero, fmt.Errorf("%w: %T to %v: %v", ErrNotConvertible, v, target, err)
	}

	return out.Interface().(T), nil
}

func convertValue(src reflect.Value, target reflect.Type) (reflect.Value, error) {
	if src.Kind() == reflect.Interface {
		src = src.Elem()
	}
	if !src.IsValid() {
		return reflect.Value{}, errors.New("nil element")
	}
	if src.Type() == target {
		return src, nil
	}

	switch target.Kind() {
	case reflect.Float64, reflect.Float32:
		f, ok := asFloat(src)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%v is not numeric", src.Type())
		}
		return reflect.ValueOf(f).Convert(target), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, ok := asFloat(src)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%v is not numeric", src.Type())
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return reflect.Value{}, fmt.Errorf("%v is not integral", f)
		}
		return reflect.ValueOf(int64(f)).Convert(target), nil

	case reflect.Slice:
		if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
			return reflect.Value{}, fmt.Errorf("%v is not a sequence", src.Type())
		}
		out := reflect.MakeSlice(target, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			el, err := convertValue(src.Index(i), target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(el)
		}
		return out, nil
	}

	if src.Type().ConvertibleTo(target) && src.Kind() == target.Kind() {
		return src.Convert(target), nil
	}

	return reflect.Value{}, fmt.Errorf("unsupported target kind %v", target.Kind())
}

func asFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}
