// SPDX-License-Identifier: MIT
//
// File: model.go
// Role: Model catalog, options and probability accessors.

package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/katalvlaran/bayesdag/dag"
)

// Sentinel errors for model operations.
var (
	// ErrEmptyName indicates a node registered without a name.
	ErrEmptyName = errors.New("model: node name is empty")

	// ErrDuplicateName indicates two different nodes with the same name.
	ErrDuplicateName = errors.New("model: duplicate node name")

	// ErrNodeNotFound indicates a lookup of an unknown node name.
	ErrNodeNotFound = errors.New("model: node not found")

	// ErrHasChildren indicates removal of a node that still has children.
	ErrHasChildren = errors.New("model: node has children")

	// ErrInvalidModel is returned by Validate when any check fails.
	ErrInvalidModel = errors.New("model: invalid model")
)

// Option configures a Model.
type Option func(*Model)

// WithName sets the model name used in logs.
func WithName(name string) Option {
	return func(m *Model) { m.name = name }
}

// WithLogger sets the logger; nil keeps the discarding default.
func WithLogger(l hclog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithWalker sets the traversal used by Touch, Keep and Restore on the
// model (dag.EagerWalk by default).
func WithWalker(w dag.Walker) Option {
	return func(m *Model) {
		if w != nil {
			m.walker = w
		}
	}
}

// Model is a named collection of dag nodes.
type Model struct {
	mu sync.RWMutex // guards nodes and order

	name   string
	logger hclog.Logger
	walker dag.Walker

	nodes map[string]dag.Node
	order []string // insertion order
}

// New creates an empty model.
// Complexity: O(1).
func New(opts ...Option) *Model {
	m := &Model{
		name:   "model",
		logger: hclog.NewNullLogger(),
		walker: dag.EagerWalk,
		nodes:  make(map[string]dag.Node),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named(m.name)

	return m
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Logger returns the model logger.
func (m *Model) Logger() hclog.Logger { return m.logger }

// Add registers nodes under their names.
//
// Implementation:
//   - Stage 1: Validate every name before registering any node.
//   - Stage 2: Insert in argument order; re-adding the same node is a no-op.
//
// Errors: ErrEmptyName, ErrDuplicateName. On error nothing is registered.
func (m *Model) Add(nodes ...dag.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stage 1
	pending := make(map[string]dag.Node, len(nodes))
	for i, n := range nodes {
		if n == nil || n.Name() == "" {
			return fmt.Errorf("%w: argument %d", ErrEmptyName, i)
		}
		name := n.Name()
		if prev, ok := m.nodes[name]; ok && prev != n {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		if prev, ok := pending[name]; ok && prev != n {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		pending[name] = n
	}

	// Stage 2
	for _, n := range nodes {
		name := n.Name()
		if _, ok := m.nodes[name]; ok {
			continue
		}
		m.nodes[name] = n
		m.order = append(m.order, name)
		m.logger.Debug("node added", "node", name, "kind", n.Kind())
	}

	return nil
}

// Node returns the node registered under name.
func (m *Model) Node(name string) (dag.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}

	return n, nil
}

// Stochastic returns the stochastic node registered under name.
func (m *Model) Stochastic(name string) (dag.Probabilistic, error) {
	n, err := m.Node(name)
	if err != nil {
		return nil, err
	}
	p, ok := n.(dag.Probabilistic)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s", dag.ErrTypeMismatch, name, n.Kind())
	}

	return p, nil
}

// Nodes returns all nodes in insertion order.
func (m *Model) Nodes() []dag.Node {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]dag.Node, len(m.order))
	for i, name := range m.order {
		out[i] = m.nodes[name]
	}

	return out
}

// Names returns all node names in insertion order.
func (m *Model) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.order...)
}

// Len returns the number of registered nodes.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.order)
}

// StochasticNodes returns the stochastic nodes in insertion order.
func (m *Model) StochasticNodes() []dag.Probabilistic {
	var out []dag.Probabilistic
	for _, n := range m.Nodes() {
		if p, ok := n.(dag.Probabilistic); ok {
			out = append(out, p)
		}
	}

	return out
}

// Remove unregisters and detaches the node called name. Nodes with
// children are refused; remove or rewire the children first. Removing a
// factor member regroups the rest of its factor.
func (m *Model) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	if kids := n.Children(); len(kids) > 0 {
		return fmt.Errorf("%w: %q feeds %d nodes", ErrHasChildren, name, len(kids))
	}

	dag.Detach(n)
	delete(m.nodes, name)
	for i, x := range m.order {
		if x == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.logger.Debug("node removed", "node", name)

	return nil
}

// Replace swaps the node called name for repl in every child and in the
// catalog. repl takes over the name. Children are touched by the swap and
// kept afterwards.
//
// The swap is not atomic across children: on error the children before
// the failing one already point at repl.
func (m *Model) Replace(name string, repl dag.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	if repl == nil {
		return fmt.Errorf("%w: nil replacement for %q", dag.ErrInvalidOperation, name)
	}
	if repl == old {
		return nil
	}
	if _, taken := m.nodes[repl.Name()]; taken && repl.Name() != name {
		return fmt.Errorf("%w: %q", ErrDuplicateName, repl.Name())
	}
	for key, n := range m.nodes {
		if n == repl {
			return fmt.Errorf("%w: replacement for %q is registered as %q", ErrDuplicateName, name, key)
		}
	}

	for _, c := range old.Children() {
		if err := c.SwapParent(old, repl); err != nil {
			return fmt.Errorf("model: replace %q in %q: %w", name, c.Name(), err)
		}
		dag.KeepWith(m.walker, c)
	}

	dag.Detach(old)
	repl.SetName(name)
	m.nodes[name] = repl
	m.logger.Debug("node replaced", "node", name, "kind", repl.Kind())

	return nil
}

// Touch marks the named node and its descendants dirty using the model walker.
func (m *Model) Touch(name string) error {
	n, err := m.Node(name)
	if err != nil {
		return err
	}
	dag.TouchWith(m.walker, n)

	return nil
}

// Keep finalizes the named node and its descendants.
func (m *Model) Keep(name string) error {
	n, err := m.Node(name)
	if err != nil {
		return err
	}
	dag.KeepWith(m.walker, n)

	return nil
}

// Restore rolls back the named node and its descendants.
func (m *Model) Restore(name string) error {
	n, err := m.Node(name)
	if err != nil {
		return err
	}
	dag.RestoreWith(m.walker, n)

	return nil
}

// LnProbability returns the joint log probability of the model: the sum
// of every stochastic node's log density where each eliminated factor is
// counted once, through its root.
func (m *Model) LnProbability() float64 {
	var ln float64
	roots := make(map[dag.Probabilistic]struct{})
	for _, p := range m.StochasticNodes() {
		root := p.FactorRoot()
		if root == nil {
			ln += p.GetLnProbability()
			continue
		}
		if _, seen := roots[root]; seen {
			continue
		}
		roots[root] = struct{}{}
		ln += root.GetLnProbability()
	}

	return ln
}

// Initialize validates the model and keeps every node so that all cached
// values and densities are fresh and no transaction is open.
func (m *Model) Initialize() error {
	if err := m.Validate(); err != nil {
		return err
	}
	order, err := m.TopologicalOrder()
	if err != nil {
		return err
	}
	// every node is in order, so each is visited exactly once
	for _, n := range order {
		dag.TouchWith(nodeOnly, n)
	}
	for _, n := range order {
		dag.KeepWith(nodeOnly, n)
	}
	m.logger.Debug("model initialized", "nodes", len(order), "lnProbability", m.LnProbability())

	return nil
}

// nodeOnly is a dag.Walker that visits start and none of its descendants.
func nodeOnly(start dag.Node, visit func(dag.Node)) { visit(start) }

// Eliminate sums out the named discrete stochastic nodes and builds the
// factors they belong to.
func (m *Model) Eliminate(names ...string) error {
	targets := make([]dag.Probabilistic, 0, len(names))
	for _, name := range names {
		p, err := m.Stochastic(name)
		if err != nil {
			return err
		}
		if err = p.SetInstantiated(false); err != nil {
			return fmt.Errorf("model: eliminate %q: %w", name, err)
		}
		targets = append(targets, p)
	}

	// one construction per connected factor
	built := make(map[dag.Probabilistic]struct{})
	for _, p := range targets {
		if root := p.FactorRoot(); root != nil {
			if _, ok := built[root]; ok {
				continue
			}
		}
		if err := p.ConstructFactor(); err != nil {
			return fmt.Errorf("model: factor of %q: %w", p.Name(), err)
		}
		root := p.FactorRoot()
		if root == nil {
			continue
		}
		built[root] = struct{}{}
		m.logger.Debug("factor built",
			"seed", p.Name(),
			"root", root.Name(),
			"members", len(root.SumProductSequence()),
			"type", p.VariableType())
	}

	return nil
}

// Clone deep-copies the model. The copy shares no node with the original
// and carries the same options.
func (m *Model) Clone() (*Model, error) {
	nodes := m.Nodes()
	clones, _, err := dag.CloneGraph(nodes)
	if err != nil {
		return nil, fmt.Errorf("model: clone: %w", err)
	}

	cp := &Model{
		name:   m.name,
		logger: m.logger,
		walker: m.walker,
		nodes:  make(map[string]dag.Node, len(nodes)),
	}
	for _, n := range nodes {
		c := clones[n]
		cp.nodes[n.Name()] = c
		cp.order = append(cp.order, n.Name())
	}

	return cp, nil
}
