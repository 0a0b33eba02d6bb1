// SPDX-License-Identifier: MIT
//
// File: edges.go
// Role: symmetric edge maintenance, acyclicity check and parent swapping.

package dag

// visitation colors for the ancestor search.
const (
	white = iota // unvisited
	gray         // on the current path
	black        // fully explored, target not reachable through it
)

// AddParent links p as a parent of this node.
//
// Implementation:
//   - Stage 1: Reject nil and ignore duplicates.
//   - Stage 2: Search p's ancestors for this node; a hit means the new edge
//     closes a cycle and nothing is modified.
//   - Stage 3: Insert both edge directions.
//
// Complexity: O(V + E) for the ancestor search.
func (n *node) AddParent(p Node) error {
	// Stage 1
	if p == nil {
		return errorf(ErrInvalidOperation, "nil parent for %s", displayName(n.self))
	}
	if n.parents.has(p) {
		return nil
	}

	// Stage 2
	if path := ancestorPath(p, n.self); path != nil {
		return &CycleError{Child: displayName(n.self), Parent: displayName(p), Path: path}
	}

	// Stage 3
	n.parents.add(p)
	p.base().children.add(n.self)

	return nil
}

// RemoveParent unlinks p in both directions.
func (n *node) RemoveParent(p Node) {
	if p == nil {
		return
	}
	if n.parents.remove(p) {
		p.base().children.remove(n.self)
	}
}

// AddChild links c as a child of this node; see AddParent.
func (n *node) AddChild(c Node) error {
	if c == nil {
		return errorf(ErrInvalidOperation, "nil child for %s", displayName(n.self))
	}

	return c.AddParent(n.self)
}

// RemoveChild unlinks c in both directions.
func (n *node) RemoveChild(c Node) {
	if c == nil {
		return
	}
	c.RemoveParent(n.self)
}

// SwapParent replaces the parent old with repl.
//
// The edge sets, the node's function or distribution argument and the
// cached value are all updated, then the node is touched. The call is
// atomic: on error nothing changed.
func (n *node) SwapParent(old, repl Node) error {
	if err := n.rebind(old, repl); err != nil {
		return err
	}
	n.Touch()

	return nil
}

// rebind is SwapParent without the touch; clones use it while wiring.
func (n *node) rebind(old, repl Node) error {
	// 1) Validate both ends.
	if old == nil || repl == nil {
		return errorf(ErrInvalidOperation, "swap on %s with nil node", displayName(n.self))
	}
	if !n.parents.has(old) {
		return errorf(ErrInvalidOperation, "%s is not a parent of %s", displayName(old), displayName(n.self))
	}
	if old == repl {
		return nil
	}

	// 2) The replacement must not depend on this node.
	if path := ancestorPath(repl, n.self); path != nil {
		return &CycleError{Child: displayName(n.self), Parent: displayName(repl), Path: path}
	}

	// 3) Type check happens inside the function/distribution swap.
	if err := n.self.swapParameter(old, repl); err != nil {
		return err
	}

	// 4) Move the edges.
	n.parents.remove(old)
	old.base().children.remove(n.self)
	n.parents.add(repl)
	repl.base().children.add(n.self)

	return nil
}

// Detach removes every edge touching n. Nodes that still reference n as a
// function argument or distribution parameter keep that reference; callers
// detach whole sub-graphs or rewire children first.
//
// A detached factor member leaves its factor: the factor is dissolved and
// the remaining not-instantiated members are regrouped into new factors.
func Detach(n Node) {
	if n == nil {
		return
	}
	var rest []stochastic
	if st, ok := n.(stochastic); ok && st.state().factorRoot != nil {
		root := st.state().factorRoot
		for _, m := range root.state().sequence {
			if m != st {
				rest = append(rest, m)
			}
		}
		dissolveFactor(root)
	}

	b := n.base()
	for _, p := range b.parents {
		p.base().children.remove(n)
	}
	for _, c := range b.children {
		c.base().parents.remove(n)
	}
	b.parents = nil
	b.children = nil

	for _, m := range rest {
		if m.IsNotInstantiated() && m.state().factorRoot == nil {
			// members were enumerable when the factor was built
			_ = m.ConstructFactor()
		}
	}
}

// ancestorPath returns the chain of names from target up to from when
// target is from itself or one of its ancestors, and nil otherwise.
//
// Implementation: recursive DFS over parent edges with
// three-color marking and an explicit path stack for reconstruction.
func ancestorPath(from, target Node) []string {
	state := make(map[Node]int)
	var path []Node

	var visit func(v Node) bool
	visit = func(v Node) bool {
		// 1) Enter v.
		state[v] = gray
		path = append(path, v)

		// 2) Hit: v is the node that is about to gain from as a parent.
		if v == target {
			return true
		}

		// 3) Explore parents not yet settled.
		for _, p := range v.base().parents {
			if state[p] == white && visit(p) {
				return true
			}
		}

		// 4) Backtrack.
		path = path[:len(path)-1]
		state[v] = black

		return false
	}

	if !visit(from) {
		return nil
	}

	// path runs from..target; report it target-first.
	names := make([]string, len(path))
	for i, v := range path {
		names[len(path)-1-i] = displayName(v)
	}

	return names
}
