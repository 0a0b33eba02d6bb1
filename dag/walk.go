// SPDX-License-Identifier: MIT
//
// File: walk.go
// Role: downstream traversal strategies for the touch/keep/restore protocol.

package dag

// Walker visits start and its descendants, calling visit once per
// reached node occurrence. Implementations must visit a node before any of
// its children.
type Walker func(start Node, visit func(Node))

// EagerWalk visits start, then recursively every child in insertion order.
// Nodes reachable along several paths are visited once per path.
//
// Complexity: O(number of root-to-descendant paths).
func EagerWalk(start Node, visit func(Node)) {
	visit(start)
	for _, c := range start.base().children {
		EagerWalk(c, visit)
	}
}

// MemoizedWalk visits start and every descendant exactly once, in the same
// pre-order as EagerWalk restricted to first occurrences.
//
// Complexity: O(V + E) over the reachable sub-graph.
func MemoizedWalk(start Node, visit func(Node)) {
	seen := make(map[Node]struct{})
	var rec func(n Node)
	rec = func(n Node) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		visit(n)
		for _, c := range n.base().children {
			rec(c)
		}
	}
	rec(start)
}

// TouchWith marks start and its descendants dirty using walk.
func TouchWith(walk Walker, start Node) {
	walk(start, Node.touchMe)
}

// KeepWith finalizes start and its descendants using walk.
func KeepWith(walk Walker, start Node) {
	walk(start, Node.keepMe)
}

// RestoreWith rolls back start and its descendants using walk.
func RestoreWith(walk Walker, start Node) {
	walk(start, Node.restoreMe)
}

// invalidateDescendants tells the children of n that a value upstream was
// overwritten in place. Deterministic children go stale and pass the signal
// on; stochastic children only flag their density.
func invalidateDescendants(n Node) {
	for _, c := range n.base().children {
		if c.markStale() {
			invalidateDescendants(c)
		}
	}
}
