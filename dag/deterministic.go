// SPDX-License-Identifier: MIT

package dag

import (
	"fmt"

	"github.com/katalvlaran/bayesdag/value"
)

// DeterministicNode holds a value computed by a Function of its parents.
//
// The value is recomputed eagerly when the node is touched and lazily on
// Value after Restore or after an ancestor was overwritten in place.
type DeterministicNode[T any] struct {
	node
	value       *value.Box[T]
	fn          Function[T]
	needsUpdate bool
}

// NewDeterministicNode wires fn's arguments as parents of a new node.
// The first Value call evaluates fn.
func NewDeterministicNode[T any](name string, fn Function[T]) (*DeterministicNode[T], error) {
	if fn == nil {
		return nil, errorf(ErrInvalidOperation, "deterministic %s without function", name)
	}
	d := &DeterministicNode[T]{value: &value.Box[T]{}, fn: fn, needsUpdate: true}
	d.self = d
	d.name = name
	for _, a := range fn.Arguments() {
		if err := d.AddParent(a); err != nil {
			Detach(d)
			return nil, err
		}
	}

	return d, nil
}

// Kind returns Deterministic.
func (d *DeterministicNode[T]) Kind() Kind { return Deterministic }

// Function returns the bound function.
func (d *DeterministicNode[T]) Function() Function[T] { return d.fn }

// Value returns the current value, re-evaluating the function first if an
// upstream change left it stale.
func (d *DeterministicNode[T]) Value() T {
	if d.needsUpdate {
		d.update()
	}

	return d.value.Get()
}

// NeedsUpdate reports whether the cached value is stale.
func (d *DeterministicNode[T]) NeedsUpdate() bool { return d.needsUpdate }

// Lengths returns the shape of the current value.
func (d *DeterministicNode[T]) Lengths() []int {
	d.Value()
	return d.value.Lengths()
}

func (d *DeterministicNode[T]) update() {
	d.value.Set(d.fn.Evaluate())
	d.needsUpdate = false
}

// String renders the node with its function.
func (d *DeterministicNode[T]) String() string {
	return fmt.Sprintf("%s := %v = %s", displayName(d), d.fn, value.New(d.Value()))
}

// IsClamped is false for deterministic nodes.
func (d *DeterministicNode[T]) IsClamped() bool { return false }

// IsEliminated reports whether any parent is eliminated.
func (d *DeterministicNode[T]) IsEliminated() bool {
	for _, p := range d.parents {
		if p.IsEliminated() {
			return true
		}
	}

	return false
}

// IsNotInstantiated reports whether any parent is not instantiated.
func (d *DeterministicNode[T]) IsNotInstantiated() bool {
	for _, p := range d.parents {
		if p.IsNotInstantiated() {
			return true
		}
	}

	return false
}

// CalculateEliminatedLnProbability sums the contributions of the children.
func (d *DeterministicNode[T]) CalculateEliminatedLnProbability(enforce bool) float64 {
	var ln float64
	for _, c := range d.children {
		ln += c.CalculateEliminatedLnProbability(enforce)
	}

	return ln
}

func (d *DeterministicNode[T]) touchMe() {
	d.touched = true
	d.needsUpdate = true
	d.update()
}

// keepMe and restoreMe always forward to not-instantiated parents: a
// deterministic node between two factor members is never touched itself
// when only the lower member changed.
func (d *DeterministicNode[T]) keepMe() {
	d.touched = false
	for _, p := range d.notInstantiatedParents() {
		p.keepMe()
	}
}

func (d *DeterministicNode[T]) restoreMe() {
	d.touched = false
	d.needsUpdate = true
	for _, p := range d.notInstantiatedParents() {
		p.restoreMe()
	}
}

func (d *DeterministicNode[T]) likelihoodsNeedUpdates() {
	for _, p := range d.notInstantiatedParents() {
		p.likelihoodsNeedUpdates()
	}
}

func (d *DeterministicNode[T]) markStale() bool {
	d.needsUpdate = true
	return true
}

func (d *DeterministicNode[T]) getAffected(affected *AffectedSet) error {
	return d.GetAffectedNodes(affected)
}

func (d *DeterministicNode[T]) swapParameter(old, n Node) error {
	if err := d.fn.SwapArgument(old, n); err != nil {
		return fmt.Errorf("deterministic %s: %w", displayName(d), err)
	}
	d.needsUpdate = true

	return nil
}

func (d *DeterministicNode[T]) cloneNode() (Node, error) {
	return NewDeterministicNode(d.name, d.fn.Clone())
}
