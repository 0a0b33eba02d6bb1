// SPDX-License-Identifier: MIT
//
// File: topological.go
// Role: parents-before-children ordering of registered nodes.

package model

import (
	"context"
	"fmt"

	"github.com/katalvlaran/bayesdag/dag"
)

// visitation state for the topological sorter.
const (
	white = iota // not visited yet
	gray         // on the recursion stack
	black        // finished
)

// TopoOption configures TopologicalOrder.
type TopoOption func(*topoOptions)

type topoOptions struct {
	ctx context.Context
}

// WithContext makes TopologicalOrder abort when ctx is done.
// A nil context has no effect.
func WithContext(ctx context.Context) TopoOption {
	return func(o *topoOptions) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// topoSorter holds the traversal state of one TopologicalOrder call.
type topoSorter struct {
	opts    topoOptions
	members map[dag.Node]struct{} // registered nodes; others are not followed
	state   map[dag.Node]int
	order   []dag.Node // post-order
}

// TopologicalOrder returns the registered nodes so that every parent
// precedes its children. Ties follow insertion order.
//
// Implementation:
//   - Stage 1: Three-color DFS along child edges from every unvisited node
//     in insertion order, skipping nodes outside the model.
//   - Stage 2: Reverse the post-order.
//
// Errors: dag.ErrCycle on a back edge (only reachable if edges were
// manipulated around the acyclicity check), ctx.Err() on cancellation.
//
// Complexity: O(V + E).
func (m *Model) TopologicalOrder(options ...TopoOption) ([]dag.Node, error) {
	opts := topoOptions{ctx: context.Background()}
	for _, opt := range options {
		opt(&opts)
	}

	nodes := m.Nodes()
	sorter := &topoSorter{
		opts:    opts,
		members: make(map[dag.Node]struct{}, len(nodes)),
		state:   make(map[dag.Node]int, len(nodes)),
		order:   make([]dag.Node, 0, len(nodes)),
	}
	for _, n := range nodes {
		sorter.members[n] = struct{}{}
	}

	// Stage 1: roots are visited last-inserted first so that, after the
	// reversal, earlier insertions come earlier.
	for i := len(nodes) - 1; i >= 0; i-- {
		if sorter.state[nodes[i]] == white {
			if err := sorter.visit(nodes[i]); err != nil {
				return nil, err
			}
		}
	}

	// Stage 2
	for i, j := 0, len(sorter.order)-1; i < j; i, j = i+1, j-1 {
		sorter.order[i], sorter.order[j] = sorter.order[j], sorter.order[i]
	}

	return sorter.order, nil
}

func (t *topoSorter) visit(n dag.Node) error {
	// 1. Cancellation check at entry.
	select {
	case <-t.opts.ctx.Done():
		return t.opts.ctx.Err()
	default:
	}
	// 2. Back edge.
	if t.state[n] == gray {
		return fmt.Errorf("%w: back edge into %s", dag.ErrCycle, n.Name())
	}
	// 3. Finished already.
	if t.state[n] == black {
		return nil
	}
	t.state[n] = gray

	// 4. Children in reverse insertion order, mirroring the root loop.
	kids := n.Children()
	for i := len(kids) - 1; i >= 0; i-- {
		if _, ok := t.members[kids[i]]; !ok {
			continue
		}
		if err := t.visit(kids[i]); err != nil {
			return err
		}
	}

	// 5. Finish.
	t.state[n] = black
	t.order = append(t.order, n)

	return nil
}
