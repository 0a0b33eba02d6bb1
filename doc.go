// Package bayesdag is an engine for Bayesian inference over directed
// acyclic graphs of random variables and functions.
//
// What is bayesdag?
//
//	A model is a DAG of three node kinds:
//		• Constant nodes hold fixed values
//		• Deterministic nodes cache a function of their parents
//		• Stochastic nodes hold a value drawn from a distribution whose
//		  parameters are their parents; they alone contribute density
//
//	Changing a value opens a transaction: Touch marks the node and its
//	descendants dirty and snapshots what a rollback needs, Keep accepts the
//	new state and Restore reinstates the snapshot. Metropolis-Hastings moves
//	are built on exactly this protocol.
//
//	Discrete stochastic nodes can be summed out instead of sampled. The
//	connected group of summed-out nodes and their dependents forms a factor
//	whose marginal density is computed by pruning where possible and by
//	enumeration otherwise.
//
// Packages:
//
//	value/  owned values with shapes, deep copies and dynamic conversion
//	dag/    nodes, edges, transactions, functions, the Distribution contract
//	        and variable elimination
//	dist/   Normal, LogNormal, Exponential, Gamma, Beta, Uniform,
//	        Bernoulli, Categorical, Binomial, Dirichlet (gonum-backed)
//	model/  named node catalog: ordering, validation, cloning, joint density
//	move/   proposal kernels (scale, slide, random state) with tuning
//	mcmc/   the Metropolis-Hastings sampler, YAML config, prometheus metrics
//
// Quick ASCII example:
//
//	  w         one
//	  │          │
//	  Z          S       Z ~ Bernoulli(w), S ~ Exponential(one)
//	  │          │
//	  mu         │       mu = 2·Z
//	   └─── X ───┘       X ~ Normal(mu, S), observed
//
//	Summing Z out gives X a two-component mixture density while S is
//	sampled by a scale move.
//
// See examples/ for a runnable version of that model.
//
//	go get github.com/katalvlaran/bayesdag
package bayesdag
