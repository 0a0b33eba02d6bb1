// SPDX-License-Identifier: MIT
//
// File: proposals.go
// Role: Scale, Slide and RandomState kernels and their constructors.

package move

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/katalvlaran/bayesdag/dag"
)

var (
	_ Tunable           = (*SimpleMove[float64])(nil)
	_ Proposal[float64] = (*Scale)(nil)
	_ Proposal[float64] = (*Slide)(nil)
	_ Proposal[int]     = (*RandomState[int])(nil)
)

// Tuning never grows a parameter past these limits. A slide window is
// further limited to the width of a finite support.
const (
	maxLambda = 10.0
	maxWindow = 1e6
)

func checkTuning(p float64) error {
	if !(p > 0) || math.IsInf(p, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidTuning, p)
	}

	return nil
}

// Scale multiplies the value by c = exp(lambda·(u − 0.5)), u ~ U(0, 1).
// The log Hastings ratio is ln c.
type Scale struct {
	Lambda float64
}

// NewScale returns a tunable scaling move on node.
func NewScale(node *dag.StochasticNode[float64], lambda float64, opts ...Option) (*SimpleMove[float64], error) {
	if err := checkTuning(lambda); err != nil {
		return nil, err
	}

	return NewSimpleMove[float64](node, &Scale{Lambda: lambda}, opts...)
}

// Name returns "scale".
func (s *Scale) Name() string { return "scale" }

// Propose implements Proposal.
func (s *Scale) Propose(n *dag.StochasticNode[float64], src rand.Source) (float64, float64) {
	u := rand.New(src).Float64()
	lnC := s.Lambda * (u - 0.5)

	return n.Value() * math.Exp(lnC), lnC
}

func (s *Scale) tune(rate float64, _ dag.Node) { s.Lambda = adapt(s.Lambda, rate, maxLambda) }
func (s *Scale) parameter() float64 { return s.Lambda }

// Slide adds delta·(u − 0.5), u ~ U(0, 1), and reflects the result back
// into the support when the distribution implements dag.Bounded. The
// kernel is symmetric.
type Slide struct {
	Delta float64
}

// NewSlide returns a tunable sliding-window move on node.
func NewSlide(node *dag.StochasticNode[float64], delta float64, opts ...Option) (*SimpleMove[float64], error) {
	if err := checkTuning(delta); err != nil {
		return nil, err
	}

	return NewSimpleMove[float64](node, &Slide{Delta: delta}, opts...)
}

// Name returns "slide".
func (s *Slide) Name() string { return "slide" }

// Propose implements Proposal.
func (s *Slide) Propose(n *dag.StochasticNode[float64], src rand.Source) (float64, float64) {
	x := n.Value() + s.Delta*(rand.New(src).Float64()-0.5)
	if b, ok := n.Distribution().(dag.Bounded); ok {
		x = fold(x, b.Min(), b.Max())
	}

	return x, 0
}

func (s *Slide) tune(rate float64, n dag.Node) { s.Delta = adapt(s.Delta, rate, window(n)) }
func (s *Slide) parameter() float64 { return s.Delta }

// fold reflects x into [lo, hi]. An infinite bound never reflects and a
// non-finite x is returned as is, so the density rejects it.
func fold(x, lo, hi float64) float64 {
	if !(hi > lo) || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		return x
	case math.IsInf(hi, 1):
		if x < lo {
			return 2*lo - x
		}
		return x
	case math.IsInf(lo, -1):
		if x > hi {
			return 2*hi - x
		}
		return x
	}

	// reflecting at both ends is periodic in 2w
	w := hi - lo
	r := math.Mod(x-lo, 2*w)
	if r < 0 {
		r += 2 * w
	}
	if r > w {
		r = 2*w - r
	}

	return math.Min(hi, math.Max(lo, lo+r))
}

// window returns the width of n's support when it is finite, otherwise
// maxWindow.
func window(n dag.Node) float64 {
	sn, ok := n.(*dag.StochasticNode[float64])
	if !ok {
		return maxWindow
	}
	b, ok := sn.Distribution().(dag.Bounded)
	if !ok {
		return maxWindow
	}
	if w := b.Max() - b.Min(); w > 0 && w < maxWindow {
		return w
	}

	return maxWindow
}

// RandomState proposes a state drawn uniformly from the discrete support.
// The kernel is symmetric.
type RandomState[T any] struct{}

// NewRandomState returns a move redrawing node uniformly over the support
// of its distribution, which must implement dag.Discrete.
func NewRandomState[T any](node *dag.StochasticNode[T], opts ...Option) (*SimpleMove[T], error) {
	if node == nil {
		return nil, fmt.Errorf("%w: move needs a node", dag.ErrInvalidOperation)
	}
	if _, ok := node.Distribution().(dag.Discrete[T]); !ok {
		return nil, fmt.Errorf("%w: %s has no enumerable support", dag.ErrInvalidOperation, node.Name())
	}

	return NewSimpleMove[T](node, RandomState[T]{}, opts...)
}

// Name returns "random-state".
func (RandomState[T]) Name() string { return "random-state" }

// Propose implements Proposal. An empty support leaves the value unchanged.
func (RandomState[T]) Propose(n *dag.StochasticNode[T], src rand.Source) (T, float64) {
	d, ok := n.Distribution().(dag.Discrete[T])
	if !ok {
		return n.Value(), 0
	}
	states := d.States()
	if len(states) == 0 {
		return n.Value(), 0
	}

	return states[rand.New(src).IntN(len(states))], 0
}
