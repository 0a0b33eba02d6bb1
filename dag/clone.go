// SPDX-License-Identifier: MIT

package dag

// CloneGraph deep-copies nodes together with all their ancestors.
//
// Values, distributions and functions are copied; edges are rewired so the
// clones only reference clones. Factors rooted inside the copied set are
// rebuilt on the copy. The returned map sends every original to its clone;
// order lists the clones parents-first.
//
// Complexity: O(V + E) plus one factor construction per copied root.
func CloneGraph(nodes []Node) (clones map[Node]Node, order []Node, err error) {
	clones = make(map[Node]Node, len(nodes))
	var originals []Node

	var rec func(n Node) error
	rec = func(n Node) error {
		if _, ok := clones[n]; ok {
			return nil
		}
		// 1) Parents first so every rebind target exists.
		for _, p := range n.base().parents {
			if err := rec(p); err != nil {
				return err
			}
		}
		// 2) Copy bound to the original parents, then rewire.
		c, err := n.cloneNode()
		if err != nil {
			return err
		}
		for _, p := range n.base().parents {
			if err := c.base().rebind(p, clones[p]); err != nil {
				return err
			}
		}
		clones[n] = c
		originals = append(originals, n)
		order = append(order, c)

		return nil
	}

	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err = rec(n); err != nil {
			return nil, nil, err
		}
	}

	// 3) Rebuild factors whose root was copied.
	for _, n := range originals {
		s, ok := n.(stochastic)
		if !ok || s.state().factorRoot != s {
			continue
		}
		if err = clones[n].(stochastic).ConstructFactor(); err != nil {
			return nil, nil, err
		}
	}

	return clones, order, nil
}
