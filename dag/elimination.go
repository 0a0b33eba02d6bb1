// SPDX-License-Identifier: MIT
//
// File: elimination.go
// Role: sum-product factor construction and evaluation for summed-out
// discrete nodes.
//
// Implementation:
//   - Stage 1 (ConstructFactor): depth-first collection of the connected
//     not-instantiated sub-graph. A node is appended after its
//     not-instantiated parents, so the sequence is topological; children are
//     followed only out of not-instantiated nodes. Deterministic nodes are
//     traversed but never appended.
//   - Stage 2 (classification): a not-instantiated member with at most one
//     not-instantiated parent is ELIMINATED, otherwise SUMMED_OVER.
//   - Stage 3 (plan): pruning is exact when no member has two eliminated
//     ancestors (through deterministic nodes) and no SUMMED_OVER member has
//     one. Then SUMMED_OVER members are enumerated and each top-level
//     ELIMINATED member contributes its pruned sub-tree. Otherwise every
//     not-instantiated member is enumerated and the leaf sums all densities.
//
// Complexity:
//   - Enumeration: O(∏ k_i · M) for enumerated supports k_i and M members.
//   - Pruning: O(k · children) per eliminated node and state.

package dag

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// factorPlan is the evaluation schedule over a root's sequence.
type factorPlan struct {
	pruned    bool
	enumerate []bool
	covered   []bool
}

func (p *factorPlan) enumerates() bool {
	for _, e := range p.enumerate {
		if e {
			return true
		}
	}

	return false
}

// ConstructFactor rebuilds the factor containing s.
//
// Every member's previous factor is dissolved, not-instantiated members are
// reclassified, the first node of the sequence becomes the root and the
// root's cached marginal is marked stale. A sequence without any
// not-instantiated node yields no factor.
func (s *StochasticNode[T]) ConstructFactor() error {
	// Stage 1: collect.
	var seq []stochastic
	collectSequence(s, make(map[Node]struct{}), &seq)

	hasHidden := false
	for _, m := range seq {
		if m.IsNotInstantiated() {
			hasHidden = true
			if _, err := m.numStates(); err != nil {
				return err
			}
		}
	}
	for _, m := range seq {
		if r := m.state().factorRoot; r != nil {
			dissolveFactor(r)
		}
	}
	if !hasHidden {
		return nil
	}

	// Stage 2: classify.
	for _, m := range seq {
		if !m.IsNotInstantiated() {
			continue
		}
		st := m.state()
		if len(m.base().notInstantiatedParents()) <= 1 {
			st.variableType = Eliminated
		} else {
			st.variableType = SummedOver
		}
	}

	// Stage 3: root and plan.
	root := seq[0]
	rs := root.state()
	rs.sequence = seq
	rs.plan = planFactor(seq)
	rs.factorDirty = true
	for _, m := range seq {
		st := m.state()
		st.factorRoot = root
		st.needsProbabilityRecalculation = true
		st.needsLikelihoodRecalculation = m.IsNotInstantiated()
	}

	return nil
}

// CalculateSummedLnProbability evaluates the factor from sequence position
// index onwards; nodes before index keep their current values. Only the
// factor root accepts the call. Index len(sequence) returns the leaf term.
func (s *StochasticNode[T]) CalculateSummedLnProbability(index int) (float64, error) {
	if s.factorRoot != s {
		return 0, errorf(ErrInvalidOperation, "%s is not a factor root", displayName(s))
	}
	if index < 0 || index > len(s.sequence) {
		return 0, errorf(ErrInvalidOperation, "index %d outside sequence of %d", index, len(s.sequence))
	}

	return evaluateFactor(s, index), nil
}

// CalculateEliminatedLnProbability returns lnPdf(value) for an instantiated
// node. For a not-instantiated node it returns
//
//	log Σ_s exp(lnPdf(s) + Σ_c c.CalculateEliminatedLnProbability(true))
//
// over the stochastic nodes c reached through children and deterministic
// nodes, each counted once. The per-state tables are memoized; enforce
// ignores the memo.
func (s *StochasticNode[T]) CalculateEliminatedLnProbability(enforce bool) float64 {
	if s.variableType == Instantiated {
		return s.lnPdfNow()
	}
	if !enforce && !s.needsProbabilityRecalculation && !s.needsLikelihoodRecalculation && s.probabilities != nil {
		return s.elimLnProb
	}

	k, err := s.numStates()
	if err != nil {
		return math.Inf(-1)
	}
	dependents := stochasticDependents(s)
	s.ensureArrays(k, len(dependents))

	restore := s.saveValue()
	terms := make([]float64, k)
	for i := 0; i < k; i++ {
		s.setStateQuiet(i)
		s.probabilities[i] = s.lnPdfNow()
		s.likelihoods[i] = 0
		for j, c := range dependents {
			pl := c.CalculateEliminatedLnProbability(true)
			s.partialLikelihoods[i][j] = pl
			s.likelihoods[i] += pl
		}
		terms[i] = s.probabilities[i] + s.likelihoods[i]
	}
	restore()

	s.elimLnProb = floats.LogSumExp(terms)
	s.needsProbabilityRecalculation = false
	s.needsLikelihoodRecalculation = false

	return s.elimLnProb
}

// stochasticDependents returns the stochastic nodes whose distribution
// reads n directly or through deterministic nodes, in first-seen order.
func stochasticDependents(n Node) []stochastic {
	var out []stochastic
	seen := make(map[Node]struct{})
	var rec func(v Node)
	rec = func(v Node) {
		for _, c := range v.base().children {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			if st, ok := c.(stochastic); ok {
				out = append(out, st)
				continue
			}
			rec(c)
		}
	}
	rec(n)

	return out
}

// staleLikelihoods flags the elimination tables of the summed-out nodes
// feeding n, through deterministic nodes, without opening a transaction.
func staleLikelihoods(n Node) {
	for _, p := range n.base().parents {
		if !p.IsNotInstantiated() {
			continue
		}
		if st, ok := p.(stochastic); ok {
			st.state().needsLikelihoodRecalculation = true
		}
		staleLikelihoods(p)
	}
}

// collectSequence appends n (when stochastic) after its not-instantiated
// parents, then follows children out of not-instantiated nodes.
func collectSequence(n Node, seen map[Node]struct{}, seq *[]stochastic) {
	if _, ok := seen[n]; ok {
		return
	}
	seen[n] = struct{}{}

	b := n.base()
	for _, p := range b.parents {
		if p.IsNotInstantiated() {
			collectSequence(p, seen, seq)
		}
	}
	if st, ok := n.(stochastic); ok {
		*seq = append(*seq, st)
	}
	if n.IsNotInstantiated() {
		for _, c := range b.children {
			collectSequence(c, seen, seq)
		}
	}
}

// eliminatedAncestors counts the distinct ELIMINATED stochastic nodes that
// feed n directly or through deterministic nodes.
func eliminatedAncestors(n Node) int {
	seen := make(map[Node]struct{})
	count := 0
	var rec func(v Node)
	rec = func(v Node) {
		for _, p := range v.base().parents {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			switch p.Kind() {
			case Stochastic:
				if p.IsEliminated() {
					count++
				}
			case Deterministic:
				rec(p)
			}
		}
	}
	rec(n)

	return count
}

func planFactor(seq []stochastic) *factorPlan {
	p := &factorPlan{
		pruned:    true,
		enumerate: make([]bool, len(seq)),
		covered:   make([]bool, len(seq)),
	}
	for i, m := range seq {
		ea := eliminatedAncestors(m)
		if ea > 1 || (ea > 0 && m.VariableType() == SummedOver) {
			p.pruned = false
		}
		p.covered[i] = ea == 1
	}

	for i, m := range seq {
		if p.pruned {
			p.enumerate[i] = m.VariableType() == SummedOver
		} else {
			p.enumerate[i] = m.IsNotInstantiated()
			p.covered[i] = false
		}
	}

	return p
}

// dissolveFactor detaches every member from root's factor.
func dissolveFactor(root stochastic) {
	rs := root.state()
	for _, m := range rs.sequence {
		st := m.state()
		st.factorRoot = nil
		st.needsProbabilityRecalculation = true
	}
	rs.factorRoot = nil
	rs.sequence = nil
	rs.plan = nil
	rs.factorDirty = false
	rs.needsProbabilityRecalculation = true
}

// factorLnProbability returns the root's cached marginal, evaluating the
// factor when a member changed since the last evaluation.
func factorLnProbability(root stochastic) float64 {
	rs := root.state()
	if rs.factorDirty || rs.plan == nil {
		rs.lnProb = evaluateFactor(root, 0)
		rs.factorDirty = false
	}

	return rs.lnProb
}

// evaluateFactor enumerates the planned members from sequence position
// from and combines the branches with log-sum-exp.
func evaluateFactor(root stochastic, from int) float64 {
	rs := root.state()
	seq, plan := rs.sequence, rs.plan
	if plan == nil {
		return root.lnPdfNow()
	}
	force := plan.enumerates()

	var rec func(i int) float64
	rec = func(i int) float64 {
		for i < len(seq) && !plan.enumerate[i] {
			i++
		}
		if i == len(seq) {
			return leafLnProbability(seq, plan, force)
		}

		m := seq[i]
		k, err := m.numStates()
		if err != nil {
			return math.Inf(-1)
		}
		restore := m.saveValue()
		terms := make([]float64, k)
		for j := 0; j < k; j++ {
			m.setStateQuiet(j)
			terms[j] = rec(i + 1)
		}
		restore()

		return floats.LogSumExp(terms)
	}

	return rec(from)
}

// leafLnProbability sums the contributions of one full assignment of the
// enumerated members.
func leafLnProbability(seq []stochastic, plan *factorPlan, force bool) float64 {
	var ln float64
	for i, m := range seq {
		if plan.covered[i] {
			continue
		}
		if plan.pruned && m.VariableType() == Eliminated {
			ln += m.CalculateEliminatedLnProbability(force)
		} else {
			ln += m.lnPdfNow()
		}
	}

	return ln
}
