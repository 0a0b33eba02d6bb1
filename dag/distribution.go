// SPDX-License-Identifier: MIT

package dag

import "math/rand/v2"

// Distribution is the density a stochastic node draws from. Its parameters
// are nodes; the stochastic node registers them as parents.
type Distribution[T any] interface {
	// Parameters returns the parameter nodes in a stable order.
	Parameters() []Node
	// SwapParameter replaces parameter old with n, checking n's value type.
	SwapParameter(old, n Node) error
	// LnPdf returns the log density (or log mass) at x; -Inf outside the support.
	LnPdf(x T) float64
	// Pdf returns exp(LnPdf(x)).
	Pdf(x T) float64
	// Rv draws a value using src.
	Rv(src rand.Source) T
	// Clone returns an independent copy bound to the same parameter nodes.
	Clone() Distribution[T]
}

// Discrete is a Distribution with a finite, enumerable support. Only
// discrete stochastic nodes may be summed out.
type Discrete[T any] interface {
	Distribution[T]
	// States returns the support in a fixed order.
	States() []T
}

// Bounded is implemented by scalar distributions with a finite interval
// support; moves reflect proposals at these bounds.
type Bounded interface {
	Min() float64
	Max() float64
}

// Shaped is implemented by distributions over fixed-shape containers;
// Clamp checks observed values against Lengths.
type Shaped interface {
	Lengths() []int
}
