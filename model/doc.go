// SPDX-License-Identifier: MIT

// Package model is the named registry that turns a set of dag nodes into a
// probabilistic model: lookup by name, topological ordering, structural
// validation, joint log probability, elimination of discrete variables and
// deep cloning for independent chains.
//
// What:
//
//   - Model: insertion-ordered catalog of nodes keyed by unique names.
//   - TopologicalOrder: parents-before-children ordering of the registered
//     nodes (three-color DFS, reversed post-order).
//   - Validate: collects every structural problem at once.
//   - LnProbability: Σ over stochastic nodes, counting each eliminated
//     factor once through its root.
//
// Errors:
//
//   - ErrEmptyName       node without a name.
//   - ErrDuplicateName   two different nodes share a name.
//   - ErrNodeNotFound    lookup of an unknown name.
//   - ErrHasChildren     Remove of a node other nodes still depend on.
//   - ErrInvalidModel    returned by Validate, wrapping a multierror of findings.
//
// Concurrency:
//
//	The catalog is guarded by a RWMutex, so lookups may run concurrently
//	with each other. Nodes themselves are not synchronized: a model and its
//	nodes belong to one chain at a time. Use Clone for parallel chains.
//
// Logging:
//
//	Structural changes are logged through hclog at Debug level; the default
//	logger discards everything.
package model
