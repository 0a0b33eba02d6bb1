// SPDX-License-Identifier: MIT

package dist

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/katalvlaran/bayesdag/dag"
)

var (
	_ dag.Distribution[[]float64] = (*Dirichlet)(nil)
	_ dag.Shaped                  = (*Dirichlet)(nil)
)

// simplexTol is the accepted deviation of a simplex point's sum from one.
const simplexTol = 1e-9

// Dirichlet is the distribution over probability vectors with
// concentration vector alpha.
type Dirichlet struct {
	slots[[]float64]
}

// NewDirichlet binds a Dirichlet distribution to its concentration node.
func NewDirichlet(alpha dag.Valuer[[]float64]) *Dirichlet {
	return &Dirichlet{newSlots("dirichlet", alpha)}
}

func (d *Dirichlet) alpha() ([]float64, bool) {
	a := d.at(0)
	return a, len(a) > 0 && positive(a...)
}

// Lengths returns the dimension of the support.
func (d *Dirichlet) Lengths() []int { return []int{len(d.at(0))} }

// LnPdf returns the log density at x; -Inf off the simplex or for a
// dimension mismatch.
func (d *Dirichlet) LnPdf(x []float64) float64 {
	a, ok := d.alpha()
	if !ok || len(x) != len(a) {
		return negInf
	}
	for _, v := range x {
		if v < 0 {
			return negInf
		}
	}
	if math.Abs(floats.Sum(x)-1) > simplexTol {
		return negInf
	}

	return distmv.NewDirichlet(a, nil).LogProb(x)
}

// Pdf returns the density at x.
func (d *Dirichlet) Pdf(x []float64) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws a probability vector.
func (d *Dirichlet) Rv(src rand.Source) []float64 {
	a, ok := d.alpha()
	if !ok {
		out := make([]float64, len(a))
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	return distmv.NewDirichlet(a, src).Rand(nil)
}

// Clone returns a copy bound to the same parameter nodes.
func (d *Dirichlet) Clone() dag.Distribution[[]float64] { return &Dirichlet{d.clone()} }
