// SPDX-License-Identifier: MIT
//
// File: function.go
// Role: the Function contract evaluated by deterministic nodes, plus typed
// adapters for plain Go closures.

package dag

import "fmt"

// Function computes a deterministic node's value from its argument nodes.
type Function[T any] interface {
	// Arguments returns the nodes read by Evaluate, in order.
	Arguments() []Node
	// Evaluate computes the value from the arguments' current values.
	Evaluate() T
	// SwapArgument replaces every occurrence of old with n. It fails with
	// ErrTypeMismatch if n carries the wrong value type and with
	// ErrInvalidOperation if old is not an argument.
	SwapArgument(old, n Node) error
	// Clone returns an independent function bound to the same arguments.
	Clone() Function[T]
}

// Unary adapts f(a) to a Function reading node a.
func Unary[A, T any](name string, a Valuer[A], f func(A) T) Function[T] {
	return &unaryFn[A, T]{name: name, a: a, f: f}
}

type unaryFn[A, T any] struct {
	name string
	a    Valuer[A]
	f    func(A) T
}

func (u *unaryFn[A, T]) Arguments() []Node { return []Node{u.a} }
func (u *unaryFn[A, T]) Evaluate() T       { return u.f(u.a.Value()) }
func (u *unaryFn[A, T]) String() string    { return fmt.Sprintf("%s(%s)", u.name, displayName(u.a)) }

func (u *unaryFn[A, T]) SwapArgument(old, n Node) error {
	if Node(u.a) != old {
		return errorf(ErrInvalidOperation, "%s does not read %s", u.name, displayName(old))
	}
	v, err := AsValuer[A](n)
	if err != nil {
		return err
	}
	u.a = v

	return nil
}

func (u *unaryFn[A, T]) Clone() Function[T] {
	cp := *u
	return &cp
}

// Binary adapts f(a, b) to a Function reading nodes a and b.
func Binary[A, B, T any](name string, a Valuer[A], b Valuer[B], f func(A, B) T) Function[T] {
	return &binaryFn[A, B, T]{name: name, a: a, b: b, f: f}
}

type binaryFn[A, B, T any] struct {
	name string
	a    Valuer[A]
	b    Valuer[B]
	f    func(A, B) T
}

func (bf *binaryFn[A, B, T]) Arguments() []Node { return []Node{bf.a, bf.b} }
func (bf *binaryFn[A, B, T]) Evaluate() T       { return bf.f(bf.a.Value(), bf.b.Value()) }

func (bf *binaryFn[A, B, T]) String() string {
	return fmt.Sprintf("%s(%s, %s)", bf.name, displayName(bf.a), displayName(bf.b))
}

func (bf *binaryFn[A, B, T]) SwapArgument(old, n Node) error {
	hitA, hitB := Node(bf.a) == old, Node(bf.b) == old
	if !hitA && !hitB {
		return errorf(ErrInvalidOperation, "%s does not read %s", bf.name, displayName(old))
	}

	// validate both before writing either
	var (
		va  Valuer[A]
		vb  Valuer[B]
		err error
	)
	if hitA {
		if va, err = AsValuer[A](n); err != nil {
			return err
		}
	}
	if hitB {
		if vb, err = AsValuer[B](n); err != nil {
			return err
		}
	}
	if hitA {
		bf.a = va
	}
	if hitB {
		bf.b = vb
	}

	return nil
}

func (bf *binaryFn[A, B, T]) Clone() Function[T] {
	cp := *bf
	return &cp
}

// Nary adapts f(values...) to a Function reading a homogeneous argument list.
func Nary[A, T any](name string, args []Valuer[A], f func([]A) T) Function[T] {
	return &naryFn[A, T]{name: name, args: append([]Valuer[A](nil), args...), f: f}
}

type naryFn[A, T any] struct {
	name string
	args []Valuer[A]
	f    func([]A) T
	buf  []A
}

func (nf *naryFn[A, T]) Arguments() []Node {
	out := make([]Node, len(nf.args))
	for i, a := range nf.args {
		out[i] = a
	}

	return out
}

func (nf *naryFn[A, T]) Evaluate() T {
	if cap(nf.buf) < len(nf.args) {
		nf.buf = make([]A, len(nf.args))
	}
	nf.buf = nf.buf[:len(nf.args)]
	for i, a := range nf.args {
		nf.buf[i] = a.Value()
	}

	return nf.f(nf.buf)
}

func (nf *naryFn[A, T]) SwapArgument(old, n Node) error {
	v, err := AsValuer[A](n)
	if err != nil {
		return err
	}
	hit := false
	for i, a := range nf.args {
		if Node(a) == old {
			nf.args[i] = v
			hit = true
		}
	}
	if !hit {
		return errorf(ErrInvalidOperation, "%s does not read %s", nf.name, displayName(old))
	}

	return nil
}

func (nf *naryFn[A, T]) Clone() Function[T] {
	return &naryFn[A, T]{name: nf.name, args: append([]Valuer[A](nil), nf.args...), f: nf.f}
}

func (nf *naryFn[A, T]) String() string {
	return fmt.Sprintf("%s(%d args)", nf.name, len(nf.args))
}
