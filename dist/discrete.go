// SPDX-License-Identifier: MIT
//
// File: discrete.go
// Role: discrete distributions with enumerable supports, usable as
// summed-out variables.

package dist

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/bayesdag/dag"
)

var (
	_ dag.Discrete[int] = (*Bernoulli)(nil)
	_ dag.Discrete[int] = (*Categorical)(nil)
	_ dag.Discrete[int] = (*Binomial)(nil)
)

func probability(p float64) bool { return p >= 0 && p <= 1 }

// Bernoulli takes value 1 with probability p and 0 otherwise.
type Bernoulli struct {
	slots[float64]
}

// NewBernoulli binds a Bernoulli distribution to its success probability node.
func NewBernoulli(p dag.Valuer[float64]) *Bernoulli {
	return &Bernoulli{newSlots("bernoulli", p)}
}

// LnPdf returns the log mass at x.
func (d *Bernoulli) LnPdf(x int) float64 {
	p := d.at(0)
	if !probability(p) {
		return negInf
	}

	return distuv.Bernoulli{P: p}.LogProb(float64(x))
}

// Pdf returns the mass at x.
func (d *Bernoulli) Pdf(x int) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws 0 or 1.
func (d *Bernoulli) Rv(src rand.Source) int {
	p := d.at(0)
	if !probability(p) {
		return 0
	}

	return int(distuv.Bernoulli{P: p, Src: src}.Rand())
}

// States returns {0, 1}.
func (d *Bernoulli) States() []int { return []int{0, 1} }

// Clone returns a copy bound to the same parameter nodes.
func (d *Bernoulli) Clone() dag.Distribution[int] { return &Bernoulli{d.clone()} }

// Categorical draws an index in [0, len(probs)) with probability
// proportional to probs. The weights need not sum to one.
type Categorical struct {
	slots[[]float64]
}

// NewCategorical binds a categorical distribution to its weight vector node.
func NewCategorical(probs dag.Valuer[[]float64]) *Categorical {
	return &Categorical{newSlots("categorical", probs)}
}

func (d *Categorical) weights() ([]float64, bool) {
	w := d.at(0)
	if len(w) == 0 {
		return nil, false
	}
	for _, x := range w {
		if !(x >= 0) || math.IsInf(x, 1) {
			return nil, false
		}
	}

	return w, floats.Sum(w) > 0
}

// LnPdf returns the log of the normalized weight at x.
func (d *Categorical) LnPdf(x int) float64 {
	w, ok := d.weights()
	if !ok || x < 0 || x >= len(w) {
		return negInf
	}

	return math.Log(w[x]) - math.Log(floats.Sum(w))
}

// Pdf returns the normalized weight at x.
func (d *Categorical) Pdf(x int) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws an index.
func (d *Categorical) Rv(src rand.Source) int {
	w, ok := d.weights()
	if !ok {
		return 0
	}

	return int(distuv.NewCategorical(w, src).Rand())
}

// States returns 0..len(probs)-1 for the current weight vector.
func (d *Categorical) States() []int {
	n := len(d.at(0))
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

// Clone returns a copy bound to the same parameter nodes.
func (d *Categorical) Clone() dag.Distribution[int] { return &Categorical{d.clone()} }

// Binomial counts successes in n independent trials with probability p.
type Binomial struct {
	n dag.Valuer[int]
	p dag.Valuer[float64]
}

// NewBinomial binds a binomial distribution to its trial count and
// success probability nodes.
func NewBinomial(n dag.Valuer[int], p dag.Valuer[float64]) *Binomial {
	return &Binomial{n: n, p: p}
}

// Parameters returns the trial count and probability nodes.
func (d *Binomial) Parameters() []dag.Node { return []dag.Node{d.n, d.p} }

// SwapParameter replaces the trial count or the probability node.
func (d *Binomial) SwapParameter(old, n dag.Node) error {
	switch old {
	case dag.Node(d.n):
		v, err := dag.AsValuer[int](n)
		if err != nil {
			return fmt.Errorf("binomial: %w", err)
		}
		d.n = v
	case dag.Node(d.p):
		v, err := dag.AsValuer[float64](n)
		if err != nil {
			return fmt.Errorf("binomial: %w", err)
		}
		d.p = v
	default:
		return fmt.Errorf("%w: binomial has no parameter %s", dag.ErrInvalidOperation, old.Name())
	}

	return nil
}

func (d *Binomial) gonum(src rand.Source) (distuv.Binomial, bool) {
	n, p := d.n.Value(), d.p.Value()
	return distuv.Binomial{N: float64(n), P: p, Src: src}, n >= 0 && probability(p)
}

// LnPdf returns the log mass at x.
func (d *Binomial) LnPdf(x int) float64 {
	g, ok := d.gonum(nil)
	if !ok || x < 0 || float64(x) > g.N {
		return negInf
	}

	return g.LogProb(float64(x))
}

// Pdf returns the mass at x.
func (d *Binomial) Pdf(x int) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws a success count.
func (d *Binomial) Rv(src rand.Source) int {
	g, ok := d.gonum(src)
	if !ok {
		return 0
	}

	return int(g.Rand())
}

// States returns 0..n for the current trial count.
func (d *Binomial) States() []int {
	n := d.n.Value()
	if n < 0 {
		return nil
	}
	out := make([]int, n+1)
	for i := range out {
		out[i] = i
	}

	return out
}

// Clone returns a copy bound to the same parameter nodes.
func (d *Binomial) Clone() dag.Distribution[int] {
	cp := *d
	return &cp
}
