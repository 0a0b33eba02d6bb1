// SPDX-License-Identifier: MIT
//
// File: box.go
// Role: Box[T] container, shape discovery and deep copy.

package value

import (
	"fmt"
	"reflect"
)

// Cloner is implemented by value types that know how to deep-copy themselves.
// Box.Clone prefers it over the reflective copy.
type Cloner[T any] interface {
	Clone() T
}

// Box holds a value of type T and the lengths of each of its dimensions.
//
// The zero Box holds the zero value of T and is ready to use.
type Box[T any] struct {
	v       T
	lengths []int
}

// New returns a Box owning v. The box takes ownership: callers must not
// mutate slices passed in afterwards.
func New[T any](v T) *Box[T] {
	b := &Box[T]{}
	b.Set(v)

	return b
}

// Get returns the current value.
// Complexity: O(1).
func (b *Box[T]) Get() T {
	return b.v
}

// Set replaces the value and recomputes the shape.
func (b *Box[T]) Set(v T) {
	b.v = v
	b.lengths = Lengths(v)
}

// Lengths returns a copy of the dimension lengths (nil for scalars).
func (b *Box[T]) Lengths() []int {
	if len(b.lengths) == 0 {
		return nil
	}

	return append([]int(nil), b.lengths...)
}

// Dim returns the number of dimensions (0 for scalars).
func (b *Box[T]) Dim() int {
	return len(b.lengths)
}

// Clone returns a deep copy of the box.
func (b *Box[T]) Clone() *Box[T] {
	return New(Copy(b.v))
}

// Equal reports whether both boxes hold deeply equal values.
func (b *Box[T]) Equal(o *Box[T]) bool {
	if b == nil || o == nil {
		return b == o
	}

	return reflect.DeepEqual(b.v, o.v)
}

// Float64s returns the underlying storage when T is a flat float64 vector
// (or a float64 scalar, viewed as a one-element slice copy). The returned
// slice aliases the box for vectors: writes are visible to the owner.
//
// This is the fast path numeric kernels use instead of converting the value.
func (b *Box[T]) Float64s() ([]float64, bool) {
	switch x := any(b.v).(type) {
	case []float64:
		return x, true
	case float64:
		return []float64{x}, true
	default:
		return nil, false
	}
}

// String formats the held value with its shape.
func (b *Box[T]) String() string {
	if len(b.lengths) == 0 {
		return fmt.Sprint(b.v)
	}

	return fmt.Sprintf("%v %v", b.v, b.lengths)
}

// Lengths reports the shape of v: nil for scalars, one entry per nesting
// level of slices or arrays. Ragged nested slices stop at the first
// non-rectangular level.
//
// Implementation:
//   - Stage 1: Fast paths for the common numeric kinds.
//   - Stage 2: Reflective walk down the first element of each level,
//     checking that every sibling has the same length.
func Lengths(v any) []int {
	// Stage 1: fast paths.
	switch x := v.(type) {
	case nil:
		return nil
	case float64, int, bool, string:
		return nil
	case []float64:
		return []int{len(x)}
	case []int:
		return []int{len(x)}
	case [][]float64:
		return matrixLengths(x)
	}

	// Stage 2: reflective walk.
	rv := reflect.ValueOf(v)
	var out []int
	for rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		n := rv.Len()
		out = append(out, n)
		if n == 0 {
			break
		}
		first := rv.Index(0)
		if first.Kind() == reflect.Interface {
			first = first.Elem()
		}
		if first.Kind() != reflect.Slice && first.Kind() != reflect.Array {
			break
		}
		// rows must agree for the next level to count
		for i := 1; i < n; i++ {
			row := rv.Index(i)
			if row.Kind() == reflect.Interface {
				row = row.Elem()
			}
			if (row.Kind() != reflect.Slice && row.Kind() != reflect.Array) || row.Len() != first.Len() {
				return out
			}
		}
		rv = first
	}

	return out
}

func matrixLengths(m [][]float64) []int {
	if len(m) == 0 {
		return []int{0}
	}
	cols := len(m[0])
	for _, row := range m[1:] {
		if len(row) != cols {
			return []int{len(m)}
		}
	}

	return []int{len(m), cols}
}

// Copy returns a deep copy of v. Scalars are returned as-is; slices are
// copied element by element; types implementing Cloner[T] clone themselves.
func Copy[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	switch x := any(v).(type) {
	case []float64:
		return any(append([]float64(nil), x...)).(T)
	case []int:
		return any(append([]int(nil), x...)).(T)
	case [][]float64:
		out := make([][]float64, len(x))
		for i := range x {
			out[i] = append([]float64(nil), x[i]...)
		}
		return any(out).(T)
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return v
	}

	return deepCopy(rv).Interface().(T)
}

// deepCopy copies slices, arrays and maps recursively; everything else is
// copied by value.
func deepCopy(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(deepCopy(rv.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(deepCopy(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	default:
		return rv
	}
}
