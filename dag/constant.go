// SPDX-License-Identifier: MIT

package dag

import (
	"fmt"

	"github.com/katalvlaran/bayesdag/value"
)

// ConstantNode holds a fixed value. It has no parents and its
// touch/keep/restore hooks are no-ops; changing the value is not rolled
// back by Restore.
type ConstantNode[T any] struct {
	node
	value *value.Box[T]
}

// NewConstantNode returns a constant named name holding v.
func NewConstantNode[T any](name string, v T) *ConstantNode[T] {
	c := &ConstantNode[T]{value: value.New(v)}
	c.self = c
	c.name = name

	return c
}

// Kind returns Constant.
func (c *ConstantNode[T]) Kind() Kind { return Constant }

// Value returns the held value.
func (c *ConstantNode[T]) Value() T { return c.value.Get() }

// Lengths returns the value shape.
func (c *ConstantNode[T]) Lengths() []int { return c.value.Lengths() }

// SetValue touches the node, overwrites the value and marks every
// descendant that cached something derived from it as stale.
func (c *ConstantNode[T]) SetValue(v T) {
	c.Touch()
	c.value.Set(v)
	invalidateDescendants(c)
}

// Clone returns a detached copy with a deep-copied value.
func (c *ConstantNode[T]) Clone() *ConstantNode[T] {
	return NewConstantNode(c.name, value.Copy(c.value.Get()))
}

// String renders the node.
func (c *ConstantNode[T]) String() string {
	return fmt.Sprintf("%s = %s", displayName(c), c.value)
}

// AddParent always fails: constants are roots.
func (c *ConstantNode[T]) AddParent(p Node) error {
	return errorf(ErrInvalidOperation, "constant %s cannot have parent %s", displayName(c), displayName(p))
}

// IsClamped is false for constants.
func (c *ConstantNode[T]) IsClamped() bool { return false }

// IsEliminated is false for constants.
func (c *ConstantNode[T]) IsEliminated() bool { return false }

// IsNotInstantiated is false for constants.
func (c *ConstantNode[T]) IsNotInstantiated() bool { return false }

// CalculateEliminatedLnProbability contributes nothing.
func (c *ConstantNode[T]) CalculateEliminatedLnProbability(bool) float64 { return 0 }

func (c *ConstantNode[T]) touchMe()                {}
func (c *ConstantNode[T]) keepMe()                 {}
func (c *ConstantNode[T]) restoreMe()              {}
func (c *ConstantNode[T]) likelihoodsNeedUpdates() {}
func (c *ConstantNode[T]) markStale() bool         { return false }

func (c *ConstantNode[T]) getAffected(*AffectedSet) error {
	return errorf(ErrInvalidOperation, "constant %s is never a child", displayName(c))
}

func (c *ConstantNode[T]) swapParameter(old, _ Node) error {
	return errorf(ErrInvalidOperation, "constant %s has no parameter %s", displayName(c), displayName(old))
}

func (c *ConstantNode[T]) cloneNode() (Node, error) { return c.Clone(), nil }
