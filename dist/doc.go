// SPDX-License-Identifier: MIT

// Package dist provides concrete distributions for stochastic nodes.
//
// What:
//
//   - Continuous scalars over float64: Normal, LogNormal, Exponential,
//     Gamma (shape/rate), Beta, Uniform.
//   - Discrete scalars over int with enumerable supports (dag.Discrete):
//     Bernoulli, Categorical, Binomial.
//   - Vectors: Dirichlet over []float64 (dag.Shaped).
//
// Why:
//
//	Parameters are nodes, so a distribution reads its parameter values at
//	every evaluation and reflects upstream changes without rebinding. The
//	densities and samplers themselves come from gonum (stat/distuv,
//	stat/distmv); this package only binds them to the node graph.
//
// Support:
//
//	LnPdf returns -Inf outside the support and for invalid parameter values
//	(non-positive scales, probabilities outside [0, 1], ...). Rv with invalid
//	parameters returns NaN for continuous and 0 for discrete distributions.
//
// Bounds:
//
//	Scalar continuous distributions implement dag.Bounded so that sliding
//	moves can reflect proposals at the support edges.
package dist
