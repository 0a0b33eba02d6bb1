// SPDX-License-Identifier: MIT
//
// File: move.go
// Role: Move contract and SimpleMove, the single-node proposal driver.

package move

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/katalvlaran/bayesdag/dag"
)

// Sentinel errors for moves.
var (
	// ErrRepeatedMove indicates Perform was called twice without an
	// intervening Accept or Reject.
	ErrRepeatedMove = errors.New("move: perform called again before accept or reject")

	// ErrNoProposal indicates Accept or Reject without a pending proposal.
	ErrNoProposal = errors.New("move: no pending proposal")

	// ErrInvalidTuning indicates a non-positive or non-finite tuning parameter.
	ErrInvalidTuning = errors.New("move: invalid tuning parameter")
)

// TargetAcceptance is the acceptance rate Tune steers toward.
const TargetAcceptance = 0.44

// Move is one Metropolis-Hastings proposal kernel.
type Move interface {
	Name() string
	// Weight is the relative frequency with which a schedule picks the move.
	Weight() float64
	// Nodes returns the nodes the move writes to.
	Nodes() []dag.Node
	// Perform proposes a new state and returns the log Hastings ratio.
	Perform(src rand.Source) (lnHastings float64, err error)
	// LnProbabilityRatio returns the change in log density caused by the
	// pending proposal.
	LnProbabilityRatio() float64
	Accept() error
	Reject() error
	Tried() int
	Accepted() int
}

// Tunable moves adapt their tuning parameter to the acceptance rate.
type Tunable interface {
	Move
	// Tune updates the tuning parameter from the acceptance rate since the
	// previous call.
	Tune()
	TuningParameter() float64
}

// Proposal draws a new value for a node.
type Proposal[T any] interface {
	// Name identifies the kernel ("scale", "slide", ...).
	Name() string
	// Propose returns the proposed value and the log Hastings ratio.
	Propose(n *dag.StochasticNode[T], src rand.Source) (next T, lnHastings float64)
}

// tuner is implemented by proposals with a tuning parameter.
type tuner interface {
	tune(rate float64, n dag.Node)
	parameter() float64
}

// Option configures a SimpleMove.
type Option func(*options)

type options struct {
	weight float64
	walker dag.Walker
	name   string
}

// WithWeight sets the schedule weight (default 1). Non-positive values are ignored.
func WithWeight(w float64) Option {
	return func(o *options) {
		if w > 0 {
			o.weight = w
		}
	}
}

// WithWalker sets the traversal used for touch, keep and restore
// (dag.EagerWalk by default).
func WithWalker(w dag.Walker) Option {
	return func(o *options) {
		if w != nil {
			o.walker = w
		}
	}
}

// WithName overrides the default "<kernel>(<node>)" name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// SimpleMove applies a Proposal to one stochastic node.
type SimpleMove[T any] struct {
	opts     options
	node     *dag.StochasticNode[T]
	proposal Proposal[T]

	changed bool

	tried, accepted int
	// counters since the last Tune
	triedWindow, acceptedWindow int
}

// NewSimpleMove binds proposal to node.
func NewSimpleMove[T any](node *dag.StochasticNode[T], proposal Proposal[T], opts ...Option) (*SimpleMove[T], error) {
	if node == nil || proposal == nil {
		return nil, fmt.Errorf("%w: move needs a node and a proposal", dag.ErrInvalidOperation)
	}
	o := options{weight: 1, walker: dag.EagerWalk}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = fmt.Sprintf("%s(%s)", proposal.Name(), node.Name())
	}

	return &SimpleMove[T]{opts: o, node: node, proposal: proposal}, nil
}

// Name returns the move name.
func (m *SimpleMove[T]) Name() string { return m.opts.name }

// Weight returns the schedule weight.
func (m *SimpleMove[T]) Weight() float64 { return m.opts.weight }

// Nodes returns the moved node.
func (m *SimpleMove[T]) Nodes() []dag.Node { return []dag.Node{m.node} }

// Node returns the moved node.
func (m *SimpleMove[T]) Node() *dag.StochasticNode[T] { return m.node }

// Tried returns the number of performed proposals.
func (m *SimpleMove[T]) Tried() int { return m.tried }

// Accepted returns the number of accepted proposals.
func (m *SimpleMove[T]) Accepted() int { return m.accepted }

// Pending reports whether a proposal awaits Accept or Reject.
func (m *SimpleMove[T]) Pending() bool { return m.changed }

// Perform touches the node, writes the proposed value and returns the log
// Hastings ratio.
//
// Errors: ErrRepeatedMove when a proposal is pending, dag.ErrClampedNode
// for observed nodes, dag.ErrInvalidOperation for summed-out nodes. On
// error the graph is untouched.
func (m *SimpleMove[T]) Perform(src rand.Source) (float64, error) {
	// 1) Protocol and target checks.
	if m.changed {
		return 0, fmt.Errorf("%w: %s", ErrRepeatedMove, m.Name())
	}
	if m.node.IsClamped() {
		return 0, fmt.Errorf("%s: %w: %s", m.Name(), dag.ErrClampedNode, m.node.Name())
	}
	if m.node.IsNotInstantiated() {
		return 0, fmt.Errorf("%s: %w: %s is summed out", m.Name(), dag.ErrInvalidOperation, m.node.Name())
	}

	// 2) Snapshot, then overwrite.
	next, lnH := m.proposal.Propose(m.node, src)
	dag.TouchWith(m.opts.walker, m.node)
	if err := m.node.SetValue(next, false); err != nil {
		dag.RestoreWith(m.opts.walker, m.node)
		return 0, fmt.Errorf("%s: %w", m.Name(), err)
	}

	m.changed = true
	m.tried++
	m.triedWindow++

	return lnH, nil
}

// LnProbabilityRatio sums the ratio of the node (or of its factor root)
// and of every affected node once.
func (m *SimpleMove[T]) LnProbabilityRatio() float64 {
	var own dag.Probabilistic = m.node
	if root := m.node.FactorRoot(); root != nil {
		own = root
	}
	ratio := own.GetLnProbabilityRatio()

	affected := dag.NewAffectedSet()
	if err := m.node.GetAffectedNodes(affected); err != nil {
		return math.Inf(-1)
	}
	for _, p := range affected.Nodes() {
		if p == own {
			continue
		}
		ratio += p.GetLnProbabilityRatio()
	}

	return ratio
}

// Accept keeps the pending proposal.
func (m *SimpleMove[T]) Accept() error {
	if !m.changed {
		return fmt.Errorf("%w: accept %s", ErrNoProposal, m.Name())
	}
	dag.KeepWith(m.opts.walker, m.node)
	m.changed = false
	m.accepted++
	m.acceptedWindow++

	return nil
}

// Reject restores the state before the pending proposal.
func (m *SimpleMove[T]) Reject() error {
	if !m.changed {
		return fmt.Errorf("%w: reject %s", ErrNoProposal, m.Name())
	}
	dag.RestoreWith(m.opts.walker, m.node)
	m.changed = false

	return nil
}

// Tune adapts the proposal's tuning parameter. It is a no-op for
// proposals without one or when nothing was tried since the last call.
func (m *SimpleMove[T]) Tune() {
	t, ok := m.proposal.(tuner)
	if !ok || m.triedWindow == 0 {
		return
	}
	t.tune(float64(m.acceptedWindow)/float64(m.triedWindow), m.node)
	m.triedWindow, m.acceptedWindow = 0, 0
}

// TuningParameter returns the current tuning parameter, or NaN when the
// proposal has none.
func (m *SimpleMove[T]) TuningParameter() float64 {
	if t, ok := m.proposal.(tuner); ok {
		return t.parameter()
	}

	return math.NaN()
}

// adapt scales p up when the acceptance rate exceeds the target and down
// otherwise. Growth stops at limit; a larger starting p is left alone.
func adapt(p, rate, limit float64) float64 {
	if rate > TargetAcceptance {
		return math.Min(p*(1+(rate-TargetAcceptance)/(1-TargetAcceptance)), math.Max(p, limit))
	}

	return p / (2 - rate/TargetAcceptance)
}
