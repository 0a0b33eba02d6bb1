// SPDX-License-Identifier: MIT

// Package mcmc drives Metropolis-Hastings over a model.Model with a
// weighted schedule of moves.
//
// Each generation picks one move with probability proportional to its
// weight, performs it and accepts with probability
//
//	min(1, exp(heat·lnR + lnH))
//
// where lnR is the move's log probability ratio and lnH its log Hastings
// ratio. Accepted proposals are kept, rejected ones restored.
//
// Configuration:
//
//	Config holds generations, seed, heat, tuning and print intervals and a
//	run name. LoadConfig reads it from YAML on top of DefaultConfig.
//
// Observability:
//
//	Runs are tagged with a random UUID. Start, progress and completion are
//	logged through hclog; per-move counters and the joint log probability
//	are exported as prometheus metrics when a Registerer is supplied:
//
//	  bayesdag_move_tried_total{move}
//	  bayesdag_move_accepted_total{move}
//	  bayesdag_model_lnprobability
//
// Randomness:
//
//	One rand.Source per sampler feeds move selection, acceptance and the
//	proposals. There is no global generator.
package mcmc
