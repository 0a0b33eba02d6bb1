// SPDX-License-Identifier: MIT
//
// File: stochastic.go
// Role: StochasticNode[T], the only node type that contributes density.
//
// Notes:
//   - The first touch of a transaction snapshots the value, the log
//     probability and, for not-instantiated nodes, the elimination tables.
//   - Factor members delegate touch/keep/restore bookkeeping to their
//     factor root so that the root's cached marginal is rolled back with them.

package dag

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/katalvlaran/bayesdag/value"
)

// StochasticOption configures NewStochasticNode.
type StochasticOption func(*stochasticOptions)

type stochasticOptions struct {
	src         rand.Source
	observed    any
	hasObserved bool
}

// WithSource supplies the source used for the initial draw.
func WithSource(src rand.Source) StochasticOption {
	return func(o *stochasticOptions) { o.src = src }
}

// WithObserved creates the node clamped to v. The value is converted to
// the node type with value.Convert; no draw happens.
func WithObserved(v any) StochasticOption {
	return func(o *stochasticOptions) {
		o.observed = v
		o.hasObserved = true
	}
}

// probState is the type-independent bookkeeping of a stochastic node.
type probState struct {
	clamped bool

	lnProb       float64
	storedLnProb float64

	needsProbabilityRecalculation bool
	needsLikelihoodRecalculation  bool
	probabilityRecalculated       bool

	variableType VariableType
	factorRoot   stochastic
	// root-only
	sequence    []stochastic
	plan        *factorPlan
	factorDirty bool

	// not-instantiated only
	elimLnProb         float64
	probabilities      []float64
	likelihoods        []float64
	partialLikelihoods [][]float64

	storedElimLnProb         float64
	storedProbabilities      []float64
	storedLikelihoods        []float64
	storedPartialLikelihoods [][]float64
}

// stochastic is the engine-facing view of StochasticNode[T] for any T.
type stochastic interface {
	Probabilistic
	state() *probState
	lnPdfNow() float64
	numStates() (int, error)
	setStateQuiet(i int)
	saveValue() func()
	makeLikelihoodsDirty()
}

// StochasticNode is a random variable with value type T.
type StochasticNode[T any] struct {
	node
	probState
	value  *value.Box[T]
	stored *value.Box[T]
	dist   Distribution[T]
	states []T
}

// NewStochasticNode creates a node distributed as d and registers d's
// parameters as its parents.
//
// The initial value is the observed value (WithObserved), otherwise a draw
// from d using the WithSource source. Without either, ErrInvalidOperation
// is returned.
func NewStochasticNode[T any](name string, d Distribution[T], opts ...StochasticOption) (*StochasticNode[T], error) {
	if d == nil {
		return nil, errorf(ErrInvalidOperation, "stochastic %s without distribution", name)
	}
	var o stochasticOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &StochasticNode[T]{value: &value.Box[T]{}, dist: d}
	s.self = s
	s.name = name
	s.storedLnProb = StoredLnProbSentinel
	s.needsProbabilityRecalculation = true

	for _, p := range d.Parameters() {
		if err := s.AddParent(p); err != nil {
			Detach(s)
			return nil, err
		}
	}

	switch {
	case o.hasObserved:
		v, err := value.Convert[T](o.observed)
		if err == nil {
			err = s.checkShape(v)
		}
		if err != nil {
			Detach(s)
			return nil, errorf(ErrTypeMismatch, "observed value for %s: %v", name, err)
		}
		s.value.Set(v)
		s.clamped = true
	case o.src != nil:
		s.value.Set(d.Rv(o.src))
	default:
		Detach(s)
		return nil, errorf(ErrInvalidOperation, "stochastic %s needs a source or an observed value", name)
	}

	return s, nil
}

// Kind returns Stochastic.
func (s *StochasticNode[T]) Kind() Kind { return Stochastic }

// Value returns the current value.
func (s *StochasticNode[T]) Value() T { return s.value.Get() }

// Lengths returns the value shape.
func (s *StochasticNode[T]) Lengths() []int { return s.value.Lengths() }

// Distribution returns the bound distribution.
func (s *StochasticNode[T]) Distribution() Distribution[T] { return s.dist }

// IsClamped reports whether the node holds observed data.
func (s *StochasticNode[T]) IsClamped() bool { return s.clamped }

// IsEliminated reports whether the node is ELIMINATED.
func (s *StochasticNode[T]) IsEliminated() bool { return s.variableType == Eliminated }

// IsNotInstantiated reports whether the node is summed out.
func (s *StochasticNode[T]) IsNotInstantiated() bool { return s.variableType != Instantiated }

// VariableType reports the elimination status.
func (s *StochasticNode[T]) VariableType() VariableType { return s.variableType }

// FactorRoot returns the root of the node's factor, or nil.
func (s *StochasticNode[T]) FactorRoot() Probabilistic {
	if s.factorRoot == nil {
		return nil
	}

	return s.factorRoot
}

// SumProductSequence returns the factor sequence when s is a factor root.
func (s *StochasticNode[T]) SumProductSequence() []Probabilistic {
	out := make([]Probabilistic, len(s.sequence))
	for i, m := range s.sequence {
		out[i] = m
	}

	return out
}

// StoredLnProbability returns the snapshot taken at the first touch, or
// StoredLnProbSentinel outside a transaction.
func (s *StochasticNode[T]) StoredLnProbability() float64 { return s.storedLnProb }

// String renders the node.
func (s *StochasticNode[T]) String() string {
	if s.clamped {
		return fmt.Sprintf("%s ~ %s (clamped)", displayName(s), s.value)
	}

	return fmt.Sprintf("%s ~ %s", displayName(s), s.value)
}

// GetLnProbability returns the log density of the current value given the
// parents, recomputed only when stale. Factor members return the log
// marginal of the whole factor, which the root caches.
func (s *StochasticNode[T]) GetLnProbability() float64 {
	if s.factorRoot != nil {
		s.lnProb = factorLnProbability(s.factorRoot)
		return s.lnProb
	}
	if s.needsProbabilityRecalculation {
		s.lnProb = s.lnPdfNow()
		s.needsProbabilityRecalculation = false
	}

	return s.lnProb
}

// GetLnProbabilityRatio returns GetLnProbability minus the stored value,
// or 0 if the node was not recomputed during the current transaction.
func (s *StochasticNode[T]) GetLnProbabilityRatio() float64 {
	if !s.probabilityRecalculated {
		return 0
	}

	return s.GetLnProbability() - s.storedLnProb
}

// SetValue replaces the value of an unclamped node. With forceTouch the
// node is touched first so the old state can be restored; without it the
// caller owns the transaction.
func (s *StochasticNode[T]) SetValue(v T, forceTouch bool) error {
	if s.clamped {
		return errorf(ErrClampedNode, "set value of %s", displayName(s))
	}
	if err := s.checkShape(v); err != nil {
		return err
	}
	if forceTouch {
		s.Touch()
	}
	s.value.Set(v)
	s.valueChanged()

	return nil
}

// Clamp fixes the node to the observed value v. The node becomes
// instantiated, its probability is recomputed and the change is kept:
// observing data is not part of a move and is never rolled back.
func (s *StochasticNode[T]) Clamp(v T) error {
	if err := s.checkShape(v); err != nil {
		return err
	}
	s.Touch()
	s.value.Set(v)
	invalidateDescendants(s)
	s.clamped = true
	if s.variableType != Instantiated {
		s.instantiate()
	}
	s.needsProbabilityRecalculation = true
	s.Keep()

	return nil
}

// ClampAny converts v to T with value.Convert and clamps to it.
func (s *StochasticNode[T]) ClampAny(v any) error {
	tv, err := value.Convert[T](v)
	if err != nil {
		return errorf(ErrTypeMismatch, "clamp %s: %v", displayName(s), err)
	}

	return s.Clamp(tv)
}

// Unclamp marks the node as unobserved; the value is kept.
func (s *StochasticNode[T]) Unclamp() { s.clamped = false }

// Redraw touches the node and replaces its value with a draw from the
// distribution.
func (s *StochasticNode[T]) Redraw(src rand.Source) error {
	if s.clamped {
		return errorf(ErrClampedNode, "redraw %s", displayName(s))
	}
	if src == nil {
		return errorf(ErrInvalidOperation, "redraw %s with nil source", displayName(s))
	}
	s.Touch()
	s.value.Set(s.dist.Rv(src))
	s.valueChanged()

	return nil
}

// SetInstantiated switches the node between holding a value and being
// summed out. Only discrete nodes can be summed out and clamped nodes
// must stay instantiated.
//
// Instantiating a factor member dissolves its factor; summing a node out
// does not build one. Call ConstructFactor afterwards.
func (s *StochasticNode[T]) SetInstantiated(instantiated bool) error {
	if instantiated {
		if s.variableType != Instantiated {
			s.instantiate()
		}
		return nil
	}
	if s.clamped {
		return errorf(ErrInvalidOperation, "clamped %s must stay instantiated", displayName(s))
	}
	k, err := s.numStates()
	if err != nil {
		return err
	}
	if s.variableType == Instantiated {
		s.variableType = SummedOver
		s.ensureArrays(k, len(s.children))
		s.needsProbabilityRecalculation = true
		s.needsLikelihoodRecalculation = true
	}

	return nil
}

func (s *StochasticNode[T]) instantiate() {
	if s.factorRoot != nil {
		dissolveFactor(s.factorRoot)
	}
	s.variableType = Instantiated
	s.probabilities, s.likelihoods, s.partialLikelihoods = nil, nil, nil
	s.storedProbabilities, s.storedLikelihoods, s.storedPartialLikelihoods = nil, nil, nil
	s.needsProbabilityRecalculation = true
	s.needsLikelihoodRecalculation = false
}

func (s *StochasticNode[T]) checkShape(v T) error {
	sh, ok := s.dist.(Shaped)
	if !ok {
		return nil
	}
	want, got := sh.Lengths(), value.Lengths(v)
	if !slices.Equal(want, got) {
		return errorf(ErrTypeMismatch, "%s expects shape %v, got %v", displayName(s), want, got)
	}

	return nil
}

// ---- transaction hooks ----

func (s *StochasticNode[T]) snapshot() {
	// refresh first so the snapshot describes the state before the change
	s.storedLnProb = s.GetLnProbability()
	s.stored = s.value.Clone()
	if s.variableType != Instantiated {
		s.storedElimLnProb = s.elimLnProb
		s.storedProbabilities = slices.Clone(s.probabilities)
		s.storedLikelihoods = slices.Clone(s.likelihoods)
		s.storedPartialLikelihoods = cloneTable(s.partialLikelihoods)
	}
	s.touched = true
	s.probabilityRecalculated = true
}

func (s *StochasticNode[T]) dropSnapshot() {
	s.storedLnProb = StoredLnProbSentinel
	s.stored = nil
	s.storedProbabilities, s.storedLikelihoods, s.storedPartialLikelihoods = nil, nil, nil
}

func (s *StochasticNode[T]) touchMe() {
	if !s.touched {
		s.snapshot()
	}
	for _, p := range s.notInstantiatedParents() {
		p.likelihoodsNeedUpdates()
	}
	if s.factorRoot != nil && s.factorRoot != s {
		s.factorRoot.makeLikelihoodsDirty()
	}
	s.needsProbabilityRecalculation = true
	s.markFactorDirty()
}

func (s *StochasticNode[T]) likelihoodsNeedUpdates() { s.makeLikelihoodsDirty() }

func (s *StochasticNode[T]) makeLikelihoodsDirty() {
	if !s.touched {
		s.snapshot()
	}
	if !s.needsLikelihoodRecalculation {
		s.needsLikelihoodRecalculation = true
		for _, p := range s.notInstantiatedParents() {
			p.likelihoodsNeedUpdates()
		}
	}
	s.markFactorDirty()
}

func (s *StochasticNode[T]) markFactorDirty() {
	if s.factorRoot != nil {
		s.factorRoot.state().factorDirty = true
	}
}

func (s *StochasticNode[T]) keepMe() {
	if s.touched {
		if s.needsProbabilityRecalculation || s.needsLikelihoodRecalculation || s.factorDirty {
			s.GetLnProbability()
		}
		s.touched = false
		s.needsProbabilityRecalculation = false
		s.needsLikelihoodRecalculation = false
		s.dropSnapshot()

		for _, p := range s.notInstantiatedParents() {
			p.keepMe()
		}
		if s.factorRoot != nil && s.factorRoot != s {
			s.factorRoot.keepMe()
		}
	}
	s.probabilityRecalculated = false
}

func (s *StochasticNode[T]) restoreMe() {
	if s.touched {
		s.touched = false
		s.lnProb = s.storedLnProb
		if s.stored != nil {
			s.value = s.stored
			invalidateDescendants(s)
		}
		if s.variableType != Instantiated {
			s.elimLnProb = s.storedElimLnProb
			s.probabilities = s.storedProbabilities
			s.likelihoods = s.storedLikelihoods
			s.partialLikelihoods = s.storedPartialLikelihoods
		}
		if s.factorRoot == s {
			s.factorDirty = false
		}
		s.needsProbabilityRecalculation = false
		s.needsLikelihoodRecalculation = false
		s.dropSnapshot()

		for _, p := range s.notInstantiatedParents() {
			p.restoreMe()
		}
		if s.factorRoot != nil && s.factorRoot != s {
			s.factorRoot.restoreMe()
		}
	}
	s.probabilityRecalculated = false
}

// valueChanged invalidates everything that read the old value: the node's
// own density, its factor and the descendants.
func (s *StochasticNode[T]) valueChanged() {
	s.markStale()
	invalidateDescendants(s)
}

func (s *StochasticNode[T]) markStale() bool {
	s.needsProbabilityRecalculation = true
	if s.factorRoot != nil {
		s.markFactorDirty()
		staleLikelihoods(s)
	}

	return false
}

func (s *StochasticNode[T]) getAffected(affected *AffectedSet) error {
	if s.factorRoot != nil {
		affected.Insert(s.factorRoot)
		return nil
	}
	affected.Insert(s)

	return nil
}

func (s *StochasticNode[T]) swapParameter(old, n Node) error {
	if err := s.dist.SwapParameter(old, n); err != nil {
		return fmt.Errorf("stochastic %s: %w", displayName(s), err)
	}
	s.needsProbabilityRecalculation = true

	return nil
}

func (s *StochasticNode[T]) cloneNode() (Node, error) {
	c := &StochasticNode[T]{value: s.value.Clone(), dist: s.dist.Clone()}
	c.self = c
	c.name = s.name
	c.clamped = s.clamped
	c.storedLnProb = StoredLnProbSentinel
	c.needsProbabilityRecalculation = true
	c.needsLikelihoodRecalculation = s.variableType != Instantiated
	c.variableType = s.variableType
	for _, p := range c.dist.Parameters() {
		if err := c.AddParent(p); err != nil {
			Detach(c)
			return nil, err
		}
	}

	return c, nil
}

// ---- engine view ----

func (s *StochasticNode[T]) state() *probState { return &s.probState }

func (s *StochasticNode[T]) lnPdfNow() float64 { return s.dist.LnPdf(s.value.Get()) }

func (s *StochasticNode[T]) numStates() (int, error) {
	d, ok := s.dist.(Discrete[T])
	if !ok {
		return 0, errorf(ErrInvalidOperation, "%s has a continuous distribution", displayName(s))
	}
	s.states = d.States()
	if len(s.states) == 0 {
		return 0, errorf(ErrInvalidOperation, "%s has an empty support", displayName(s))
	}

	return len(s.states), nil
}

func (s *StochasticNode[T]) setStateQuiet(i int) {
	s.value.Set(value.Copy(s.states[i]))
	invalidateDescendants(s)
}

func (s *StochasticNode[T]) saveValue() func() {
	prev := s.value.Clone()
	return func() {
		s.value = prev
		invalidateDescendants(s)
	}
}

func (ps *probState) ensureArrays(k, nChildren int) {
	if len(ps.probabilities) != k {
		ps.probabilities = make([]float64, k)
		ps.likelihoods = make([]float64, k)
	}
	if len(ps.partialLikelihoods) != k || (k > 0 && len(ps.partialLikelihoods[0]) != nChildren) {
		ps.partialLikelihoods = make([][]float64, k)
		for i := range ps.partialLikelihoods {
			ps.partialLikelihoods[i] = make([]float64, nChildren)
		}
	}
}

func cloneTable(t [][]float64) [][]float64 {
	if t == nil {
		return nil
	}
	out := make([][]float64, len(t))
	for i := range t {
		out[i] = slices.Clone(t[i])
	}

	return out
}
