// SPDX-License-Identifier: MIT
//
// File: node.go
// Role: the closed Node capability interface and the shared node base.

package dag

// Kind identifies the concrete variant of a Node.
type Kind uint8

const (
	// Constant nodes hold a fixed value and have no parents.
	Constant Kind = iota
	// Deterministic nodes hold a value computed by a Function of their parents.
	Deterministic
	// Stochastic nodes hold a random value drawn from a Distribution.
	Stochastic
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Deterministic:
		return "deterministic"
	case Stochastic:
		return "stochastic"
	default:
		return "unknown"
	}
}

// StoredLnProbSentinel is written into a stochastic node's stored log
// probability after Keep or Restore, so that a stale read is visible.
const StoredLnProbSentinel = 1.0e6

// Node is the capability shared by every vertex of a model graph.
//
// The interface is closed: its unexported methods make ConstantNode,
// DeterministicNode and StochasticNode the only implementations.
type Node interface {
	// Name returns the node name (may be empty for anonymous nodes).
	Name() string
	// SetName renames the node.
	SetName(name string)
	// Kind reports the concrete variant.
	Kind() Kind
	// String renders "name = value" for diagnostics.
	String() string

	// Parents returns a snapshot of the parent set in insertion order.
	Parents() []Node
	// Children returns a snapshot of the child set in insertion order.
	Children() []Node
	// AddParent links p as a parent and this node as p's child. It fails
	// with a *CycleError if this node is already an ancestor of p.
	AddParent(p Node) error
	// RemoveParent unlinks p in both directions. Unknown parents are ignored.
	RemoveParent(p Node)
	// AddChild is AddParent seen from the other end.
	AddChild(c Node) error
	// RemoveChild is RemoveParent seen from the other end.
	RemoveChild(c Node)
	// SwapParent replaces parent old with n in the edge sets and in the
	// node's function or distribution, then touches the node.
	SwapParent(old, n Node) error

	// Touch marks this node and its descendants dirty.
	Touch()
	// Keep finalizes this node and its descendants.
	Keep()
	// Restore rolls back this node and its descendants.
	Restore()
	// IsTouched reports whether the node is between Touch and Keep/Restore.
	IsTouched() bool

	// IsClamped reports whether the node holds observed data.
	IsClamped() bool
	// IsEliminated reports whether the node is, or deterministically
	// depends on, an ELIMINATED stochastic node.
	IsEliminated() bool
	// IsNotInstantiated reports whether the node is, or deterministically
	// depends on, a stochastic node whose value is summed out.
	IsNotInstantiated() bool

	// GetAffectedNodes collects the probabilistic nodes whose density must
	// be re-read after this node's value changes.
	GetAffectedNodes(affected *AffectedSet) error
	// CalculateEliminatedLnProbability returns the log likelihood
	// contribution of this node's eliminated sub-tree at the current state
	// of its not-instantiated ancestors.
	CalculateEliminatedLnProbability(enforce bool) float64

	base() *node
	touchMe()
	keepMe()
	restoreMe()
	getAffected(affected *AffectedSet) error
	likelihoodsNeedUpdates()
	// markStale invalidates cached state after an ancestor value was
	// overwritten in place; it reports whether the walk must continue
	// into the node's children.
	markStale() bool
	swapParameter(old, n Node) error
	// cloneNode returns a copy bound to the same parents.
	cloneNode() (Node, error)
}

// Valuer is a Node exposing a typed value.
type Valuer[T any] interface {
	Node
	Value() T
}

// AsValuer asserts that n carries values of type T.
func AsValuer[T any](n Node) (Valuer[T], error) {
	if n == nil {
		return nil, errorf(ErrInvalidOperation, "nil node")
	}
	v, ok := n.(Valuer[T])
	if !ok {
		var zero T
		return nil, errorf(ErrTypeMismatch, "node %s does not carry %T values", displayName(n), zero)
	}

	return v, nil
}

// node is the state shared by all variants. Concrete types embed it and
// set self to themselves so that edges always store the outer value.
type node struct {
	self     Node
	name     string
	parents  edgeSet
	children edgeSet
	touched  bool
}

func (n *node) base() *node { return n }

// Name returns the node name.
func (n *node) Name() string { return n.name }

// SetName renames the node.
func (n *node) SetName(name string) { n.name = name }

// IsTouched reports whether the node is dirty.
func (n *node) IsTouched() bool { return n.touched }

// Parents returns a copy of the parent set.
func (n *node) Parents() []Node { return n.parents.snapshot() }

// Children returns a copy of the child set.
func (n *node) Children() []Node { return n.children.snapshot() }

// Touch walks this node and every descendant, pre-order, calling touchMe.
func (n *node) Touch() { TouchWith(EagerWalk, n.self) }

// Keep walks this node and every descendant, pre-order, calling keepMe.
func (n *node) Keep() { KeepWith(EagerWalk, n.self) }

// Restore walks this node and every descendant, pre-order, calling restoreMe.
func (n *node) Restore() { RestoreWith(EagerWalk, n.self) }

// GetAffectedNodes asks every child to add itself (or its factor root).
func (n *node) GetAffectedNodes(affected *AffectedSet) error {
	for _, c := range n.children {
		if err := c.getAffected(affected); err != nil {
			return err
		}
	}

	return nil
}

// notInstantiatedParents yields parents that report IsNotInstantiated.
func (n *node) notInstantiatedParents() []Node {
	var out []Node
	for _, p := range n.parents {
		if p.IsNotInstantiated() {
			out = append(out, p)
		}
	}

	return out
}

// edgeSet is an insertion-ordered set of nodes. Degrees in model graphs are
// small, so membership is a linear scan and iteration is deterministic.
type edgeSet []Node

func (s edgeSet) has(n Node) bool {
	for _, x := range s {
		if x == n {
			return true
		}
	}

	return false
}

func (s *edgeSet) add(n Node) bool {
	if s.has(n) {
		return false
	}
	*s = append(*s, n)

	return true
}

func (s *edgeSet) remove(n Node) bool {
	for i, x := range *s {
		if x == n {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}

	return false
}

func (s edgeSet) snapshot() []Node {
	if len(s) == 0 {
		return nil
	}

	return append([]Node(nil), s...)
}
