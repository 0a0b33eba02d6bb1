// SPDX-License-Identifier: MIT

package dist

import (
	"fmt"

	"github.com/katalvlaran/bayesdag/dag"
)

// slots is an ordered list of same-typed parameter nodes.
type slots[T any] struct {
	owner string
	nodes []dag.Valuer[T]
}

func newSlots[T any](owner string, nodes ...dag.Valuer[T]) slots[T] {
	return slots[T]{owner: owner, nodes: nodes}
}

// Parameters returns the parameter nodes in declaration order.
func (s *slots[T]) Parameters() []dag.Node {
	out := make([]dag.Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n
	}

	return out
}

// has reports whether old is one of the parameters.
func (s *slots[T]) has(old dag.Node) bool {
	for _, n := range s.nodes {
		if dag.Node(n) == old {
			return true
		}
	}

	return false
}

// swap replaces every occurrence of old with n after a type check.
func (s *slots[T]) swap(old, n dag.Node) error {
	if !s.has(old) {
		return fmt.Errorf("%w: %s has no parameter %s", dag.ErrInvalidOperation, s.owner, old.Name())
	}
	v, err := dag.AsValuer[T](n)
	if err != nil {
		return fmt.Errorf("%s: %w", s.owner, err)
	}
	for i, x := range s.nodes {
		if dag.Node(x) == old {
			s.nodes[i] = v
		}
	}

	return nil
}

// SwapParameter implements dag.Distribution for single-typed parameter lists.
func (s *slots[T]) SwapParameter(old, n dag.Node) error { return s.swap(old, n) }

func (s *slots[T]) at(i int) T { return s.nodes[i].Value() }

func (s *slots[T]) clone() slots[T] {
	return slots[T]{owner: s.owner, nodes: append([]dag.Valuer[T](nil), s.nodes...)}
}
