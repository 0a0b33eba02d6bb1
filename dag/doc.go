// SPDX-License-Identifier: MIT

// Package dag implements the node layer of a probabilistic graphical model:
// constant, deterministic and stochastic nodes that together evaluate a
// joint log density lazily and incrementally over a directed acyclic graph.
//
// What:
//
//   - Node: the closed capability interface implemented by exactly three
//     concrete types, ConstantNode[T], DeterministicNode[T] and
//     StochasticNode[T]. Edges are non-owning and always symmetric:
//     a ∈ b.Parents() ⇔ b ∈ a.Children().
//   - Transactional protocol used by Metropolis-Hastings moves:
//     Touch (mark stale, snapshot), then probability getters recompute
//     lazily, then Keep (finalize) or Restore (roll back).
//   - Variable elimination: discrete stochastic nodes can be "integrated
//     out". ConstructFactor builds a topological sum-product sequence over
//     the connected not-instantiated sub-graph, picks its first node as the
//     factor root, and classifies every not-instantiated member as
//     ELIMINATED (at most one not-instantiated parent: closed-form pruning)
//     or SUMMED_OVER (explicit enumeration).
//
// State machine (per node):
//
//	CLEAN --Touch--> DIRTY --Keep----> CLEAN
//	                 DIRTY --Restore-> CLEAN
//
// Touching a DIRTY node again is legal: its own snapshot is not retaken but
// its children are walked again.
//
// Traversal:
//
//	Touch, Keep and Restore visit the node before its children (pre-order)
//	through EagerWalk, which revisits shared descendants of diamond-shaped
//	graphs. MemoizedWalk is a drop-in visited-set gated alternative; pass it
//	to TouchWith/KeepWith/RestoreWith.
//
// Concurrency:
//
//	None. A graph is owned by exactly one goroutine (one MCMC chain); nodes
//	carry no locks. Independent chains must use independent graphs
//	(see CloneGraph).
//
// Errors:
//
//   - ErrCycle             AddParent/SwapParent would close a cycle (*CycleError carries the path).
//   - ErrTypeMismatch      value or parameter type/shape is incompatible.
//   - ErrClampedNode       SetValue/Redraw on a clamped stochastic node.
//   - ErrInvalidOperation  a call against a violated invariant (GetAffected on a constant, ...).
//
// Randomness:
//
//	There is no package-level generator: every draw takes an explicit
//	math/rand/v2 Source.
package dag
