// SPDX-License-Identifier: MIT

package dag

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for node operations.
var (
	// ErrCycle indicates that adding an edge would make the graph cyclic.
	ErrCycle = errors.New("dag: cycle detected")

	// ErrTypeMismatch indicates a value or parameter node whose type or
	// shape is incompatible with the node's declared type.
	ErrTypeMismatch = errors.New("dag: type mismatch")

	// ErrClampedNode indicates an attempt to change the value of a clamped
	// (observed) stochastic node.
	ErrClampedNode = errors.New("dag: node is clamped")

	// ErrInvalidOperation indicates a call made against an invariant the
	// caller violated; it is a programming error, never a recoverable state.
	ErrInvalidOperation = errors.New("dag: invalid operation")
)

// CycleError reports the edge that was refused and the existing path that
// it would have closed. It matches ErrCycle under errors.Is.
type CycleError struct {
	// Child is the node that was asked to accept a new parent.
	Child string

	// Parent is the refused parent.
	Parent string

	// Path lists node names from Child down to Parent along existing
	// edges: Parent already depends on Child through this chain.
	Path []string
}

// Error implements error.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: adding %s as parent of %s closes %s",
		ErrCycle, e.Parent, e.Child, strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// displayName returns the node name or a placeholder for anonymous nodes.
func displayName(n Node) string {
	if n == nil {
		return "<nil>"
	}
	if name := n.Name(); name != "" {
		return name
	}

	return fmt.Sprintf("<%s %p>", n.Kind(), n)
}

// errorf wraps sentinel with a formatted context message.
func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}
