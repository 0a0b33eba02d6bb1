// SPDX-License-Identifier: MIT

// Package move implements Metropolis-Hastings proposals on stochastic nodes.
//
// What:
//
//   - Move: the contract a sampler drives. Perform proposes a new state and
//     returns the log Hastings ratio; LnProbabilityRatio reports the change
//     in log density; Accept keeps and Reject restores the proposal.
//   - SimpleMove: a Move over one StochasticNode with a pluggable Proposal.
//     It refuses a second Perform before the first is resolved.
//   - Proposals: Scale (multiplier), Slide (reflected window), RandomState
//     (uniform redraw over a discrete support).
//
// Protocol:
//
//	Perform  → touch node, overwrite value, changed = true
//	Accept   → keep node and descendants,   changed = false
//	Reject   → restore node and descendants, changed = false
//
// Ratio accounting:
//
//	LnProbabilityRatio = ratio(node or its factor root)
//	                   + Σ ratio(a) for a in GetAffectedNodes, a ≠ that node
//
// Tuning:
//
//	Tune adapts the tuning parameter of Scale and Slide toward an
//	acceptance rate of 0.44 using the rate observed since the last call.
//
// Errors:
//
//   - ErrRepeatedMove   Perform called again before Accept or Reject.
//   - ErrNoProposal     Accept or Reject without a pending proposal.
//   - ErrInvalidTuning  non-positive or non-finite tuning parameter.
//   - dag.ErrClampedNode / dag.ErrInvalidOperation from Perform when the
//     node is observed or summed out; these are programming errors, not
//     rejections.
package move
