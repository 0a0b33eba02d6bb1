// SPDX-License-Identifier: MIT
//
// File: validate.go
// Role: structural checks over the whole catalog.

package model

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/katalvlaran/bayesdag/dag"
)

// Validate runs every structural check and reports all findings together.
//
// Checks, per node in insertion order:
//  1. every parent is registered in the model;
//  2. parent and child lists are mirror images;
//  3. a clamped stochastic node has a finite log density;
//  4. a not-instantiated stochastic node belongs to a factor;
//  5. a factor root and every member of its sequence are registered.
//
// Finally the graph is ordered once to rule out cycles.
//
// The returned error wraps ErrInvalidModel; errors.As with a
// *multierror.Error gives the individual findings.
func (m *Model) Validate() error {
	var result *multierror.Error

	nodes := m.Nodes()
	registered := make(map[dag.Node]struct{}, len(nodes))
	for _, n := range nodes {
		registered[n] = struct{}{}
	}

	for _, n := range nodes {
		// 1. Parents registered.
		for _, p := range n.Parents() {
			if _, ok := registered[p]; !ok {
				result = multierror.Append(result,
					fmt.Errorf("%w: %q has unregistered parent %q", ErrNodeNotFound, n.Name(), p.Name()))
			}
		}

		// 2. Edge symmetry.
		for _, p := range n.Parents() {
			if !contains(p.Children(), n) {
				result = multierror.Append(result,
					fmt.Errorf("model: %q lists parent %q which does not list it as child", n.Name(), p.Name()))
			}
		}
		for _, c := range n.Children() {
			if !contains(c.Parents(), n) {
				result = multierror.Append(result,
					fmt.Errorf("model: %q lists child %q which does not list it as parent", n.Name(), c.Name()))
			}
		}

		s, ok := n.(dag.Probabilistic)
		if !ok {
			continue
		}
		// 3. Observations supported by their distribution.
		if s.IsClamped() && s.FactorRoot() == nil {
			if ln := s.GetLnProbability(); math.IsNaN(ln) || math.IsInf(ln, -1) {
				result = multierror.Append(result,
					fmt.Errorf("model: observation of %q has log density %v", n.Name(), ln))
			}
		}
		// 4. Summed-out nodes need a factor.
		if s.VariableType() != dag.Instantiated && s.FactorRoot() == nil {
			result = multierror.Append(result,
				fmt.Errorf("model: %q is summed out but belongs to no factor", n.Name()))
		}
		// 5. Factors stay inside the catalog.
		if r := s.FactorRoot(); r != nil {
			if _, ok := registered[r]; !ok {
				result = multierror.Append(result,
					fmt.Errorf("%w: factor root %q of %q", ErrNodeNotFound, r.Name(), n.Name()))
			}
		}
		if s.FactorRoot() == s {
			for _, member := range s.SumProductSequence() {
				if _, ok := registered[member]; !ok {
					result = multierror.Append(result,
						fmt.Errorf("%w: factor member %q of %q", ErrNodeNotFound, member.Name(), n.Name()))
				}
			}
		}
	}

	if _, err := m.TopologicalOrder(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		m.logger.Warn("model validation failed", "problems", len(result.Errors))
		return fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	return nil
}

func contains(nodes []dag.Node, target dag.Node) bool {
	for _, n := range nodes {
		if n == target {
			return true
		}
	}

	return false
}
