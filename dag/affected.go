// SPDX-License-Identifier: MIT

package dag

import "math/rand/v2"

// VariableType is the elimination status of a stochastic node.
type VariableType uint8

const (
	// Instantiated nodes hold a concrete value that contributes lnPdf(value).
	Instantiated VariableType = iota
	// SummedOver nodes are enumerated explicitly over their discrete support.
	SummedOver
	// Eliminated nodes are integrated out by closed-form pruning.
	Eliminated
)

// String returns the upper-case status used in diagnostics.
func (t VariableType) String() string {
	switch t {
	case Instantiated:
		return "INSTANTIATED"
	case SummedOver:
		return "SUMMED_OVER"
	case Eliminated:
		return "ELIMINATED"
	default:
		return "UNKNOWN"
	}
}

// Probabilistic is the type-erased view of a StochasticNode used by moves,
// affected-node sets and models.
type Probabilistic interface {
	Node

	// GetLnProbability returns the node's log density, or the log marginal
	// of its whole factor when the node belongs to an eliminated factor.
	GetLnProbability() float64
	// GetLnProbabilityRatio returns current minus stored log probability,
	// or 0 when the node was not recomputed since its last Keep/Restore.
	GetLnProbabilityRatio() float64
	// VariableType reports INSTANTIATED, SUMMED_OVER or ELIMINATED.
	VariableType() VariableType
	// FactorRoot returns the root of the node's factor, or nil.
	FactorRoot() Probabilistic
	// SumProductSequence returns the factor sequence (root only).
	SumProductSequence() []Probabilistic
	// SetInstantiated switches between a concrete value and a summed-out
	// discrete variable.
	SetInstantiated(instantiated bool) error
	// ConstructFactor rebuilds the factor reachable from this node.
	ConstructFactor() error
	// CalculateSummedLnProbability evaluates the factor from sequence
	// position index onwards (root only).
	CalculateSummedLnProbability(index int) (float64, error)
	// Redraw replaces the value with a fresh draw from the distribution.
	Redraw(src rand.Source) error
	// Unclamp marks the node as no longer observed.
	Unclamp()
}

// AffectedSet is an insertion-ordered set of probabilistic nodes.
//
// The zero value is ready to use.
type AffectedSet struct {
	order []Probabilistic
	index map[Probabilistic]struct{}
}

// NewAffectedSet returns an empty set.
func NewAffectedSet() *AffectedSet {
	return &AffectedSet{index: make(map[Probabilistic]struct{})}
}

// Insert adds p, reporting whether it was new.
func (s *AffectedSet) Insert(p Probabilistic) bool {
	if s.index == nil {
		s.index = make(map[Probabilistic]struct{})
	}
	if _, ok := s.index[p]; ok {
		return false
	}
	s.index[p] = struct{}{}
	s.order = append(s.order, p)

	return true
}

// Has reports membership.
func (s *AffectedSet) Has(p Probabilistic) bool {
	_, ok := s.index[p]
	return ok
}

// Len returns the number of members.
func (s *AffectedSet) Len() int { return len(s.order) }

// Nodes returns the members in insertion order.
func (s *AffectedSet) Nodes() []Probabilistic {
	return append([]Probabilistic(nil), s.order...)
}

// Names returns the member names in insertion order.
func (s *AffectedSet) Names() []string {
	out := make([]string, len(s.order))
	for i, p := range s.order {
		out[i] = displayName(p)
	}

	return out
}
