package model_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/bayesdag/dag"
	"github.com/katalvlaran/bayesdag/model"
)

func names(nodes []dag.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}

	return out
}

func TestTopologicalOrder(t *testing.T) {
	m := mixture(t)

	order, err := m.TopologicalOrder()
	require.NoError(t, err)
	want := []string{"w", "one", "Z", "mu", "S", "X"}
	if diff := cmp.Diff(want, names(order)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

// Children registered before their parents still come after them.
func TestTopologicalOrderReversedInsertion(t *testing.T) {
	src := mixture(t)
	nodes := src.Nodes()

	m := model.New()
	for i := len(nodes) - 1; i >= 0; i-- {
		require.NoError(t, m.Add(nodes[i]))
	}

	order, err := m.TopologicalOrder()
	require.NoError(t, err)
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n.Name()] = i
	}
	for _, n := range order {
		for _, p := range n.Parents() {
			require.Less(t, pos[p.Name()], pos[n.Name()], "%s before %s", p.Name(), n.Name())
		}
	}
}

func TestTopologicalOrderCanceled(t *testing.T) {
	m := mixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.TopologicalOrder(model.WithContext(ctx))
	require.ErrorIs(t, err, context.Canceled)
}

func TestTopologicalOrderEmpty(t *testing.T) {
	order, err := model.New().TopologicalOrder()
	require.NoError(t, err)
	require.Empty(t, order)
}
