package model_test

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/bayesdag/dag"
	"github.com/katalvlaran/bayesdag/dist"
	"github.com/katalvlaran/bayesdag/model"
)

func lnNormal(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return -0.5*math.Log(2*math.Pi) - math.Log(sigma) - 0.5*z*z
}

// regression returns mu -> x ~ Normal(mu, sigma) with x observed at 1.5.
func regression(t *testing.T) (*model.Model, *dag.ConstantNode[float64], *dag.StochasticNode[float64]) {
	t.Helper()
	mu := dag.NewConstantNode("mu", 0.0)
	sigma := dag.NewConstantNode("sigma", 1.0)
	x, err := dag.NewStochasticNode[float64]("x", dist.NewNormal(mu, sigma), dag.WithObserved(1.5))
	require.NoError(t, err)

	m := model.New(model.WithName("regression"))
	require.NoError(t, m.Add(mu, sigma, x))

	return m, mu, x
}

// mixture returns Z ~ Bernoulli(0.3), mu = 2Z, S ~ Exponential(1) at 1,
// X ~ Normal(mu, S) observed at 1.5; nothing is eliminated yet.
func mixture(t *testing.T) *model.Model {
	t.Helper()
	w := dag.NewConstantNode("w", 0.3)
	one := dag.NewConstantNode("one", 1.0)
	z, err := dag.NewStochasticNode[int]("Z", dist.NewBernoulli(w), dag.WithObserved(1))
	require.NoError(t, err)
	z.Unclamp()
	mu, err := dag.NewDeterministicNode("mu", dag.Unary("twice", dag.Valuer[int](z), func(v int) float64 { return 2 * float64(v) }))
	require.NoError(t, err)
	s, err := dag.NewStochasticNode[float64]("S", dist.NewExponential(one), dag.WithObserved(1.0))
	require.NoError(t, err)
	s.Unclamp()
	x, err := dag.NewStochasticNode[float64]("X", dist.NewNormal(mu, s), dag.WithObserved(1.5))
	require.NoError(t, err)

	m := model.New()
	require.NoError(t, m.Add(w, one, z, mu, s, x))

	return m
}

func mixtureLn(x, sigma float64) float64 {
	return math.Log(0.7*math.Exp(lnNormal(x, 0, sigma)) + 0.3*math.Exp(lnNormal(x, 2, sigma)))
}

func TestAdd(t *testing.T) {
	m, mu, _ := regression(t)

	assert.Equal(t, "regression", m.Name())
	assert.Equal(t, 3, m.Len())
	if diff := cmp.Diff([]string{"mu", "sigma", "x"}, m.Names()); diff != "" {
		t.Errorf("insertion order (-want +got):\n%s", diff)
	}

	// re-adding the same node is a no-op
	require.NoError(t, m.Add(mu))
	assert.Equal(t, 3, m.Len())

	// a different node under a taken name is refused, atomically
	fresh := dag.NewConstantNode("fresh", 1.0)
	other := dag.NewConstantNode("mu", 1.0)
	require.ErrorIs(t, m.Add(fresh, other), model.ErrDuplicateName)
	assert.Equal(t, 3, m.Len())
	_, err := m.Node("fresh")
	require.ErrorIs(t, err, model.ErrNodeNotFound)

	require.ErrorIs(t, m.Add(dag.NewConstantNode("", 0)), model.ErrEmptyName)
	require.ErrorIs(t, m.Add(nil), model.ErrEmptyName)
}

func TestLookup(t *testing.T) {
	m, mu, x := regression(t)

	n, err := m.Node("mu")
	require.NoError(t, err)
	assert.Same(t, mu, n)

	p, err := m.Stochastic("x")
	require.NoError(t, err)
	assert.Equal(t, dag.Probabilistic(x), p)

	_, err = m.Stochastic("mu")
	require.ErrorIs(t, err, dag.ErrTypeMismatch)
	_, err = m.Stochastic("nope")
	require.ErrorIs(t, err, model.ErrNodeNotFound)

	stoch := m.StochasticNodes()
	require.Len(t, stoch, 1)
	assert.Equal(t, "x", stoch[0].Name())
}

func TestRemove(t *testing.T) {
	m, mu, x := regression(t)

	require.ErrorIs(t, m.Remove("mu"), model.ErrHasChildren)
	require.ErrorIs(t, m.Remove("nope"), model.ErrNodeNotFound)

	require.NoError(t, m.Remove("x"))
	assert.Empty(t, mu.Children())
	assert.Empty(t, x.Parents())
	assert.Equal(t, []string{"mu", "sigma"}, m.Names())

	require.NoError(t, m.Remove("mu"))
	assert.Equal(t, 1, m.Len())
}

func TestReplace(t *testing.T) {
	m, mu, x := regression(t)
	require.NoError(t, m.Initialize())
	assert.InDelta(t, lnNormal(1.5, 0, 1), x.GetLnProbability(), 1e-12)

	shifted := dag.NewConstantNode("shifted", 1.0)
	require.NoError(t, m.Replace("mu", shifted))

	n, err := m.Node("mu")
	require.NoError(t, err)
	assert.Same(t, shifted, n)
	assert.Equal(t, "mu", shifted.Name())
	assert.Empty(t, mu.Children(), "old node detached")
	assert.False(t, x.IsTouched(), "children kept after the swap")
	assert.InDelta(t, lnNormal(1.5, 1, 1), x.GetLnProbability(), 1e-12)
	assert.Equal(t, []string{"mu", "sigma", "x"}, m.Names())

	// a replacement must yield the parameter type
	wrong := dag.NewConstantNode("wrong", 3)
	require.ErrorIs(t, m.Replace("mu", wrong), dag.ErrTypeMismatch)

	require.ErrorIs(t, m.Replace("nope", shifted), model.ErrNodeNotFound)
	require.ErrorIs(t, m.Replace("mu", dag.NewConstantNode("sigma", 2.0)), model.ErrDuplicateName)
}

// A node already in the catalog cannot take over a second name.
func TestReplaceWithRegisteredNode(t *testing.T) {
	m, mu, x := regression(t)
	one := dag.NewConstantNode("one", 1.0)
	require.NoError(t, m.Add(one))

	require.ErrorIs(t, m.Replace("mu", one), model.ErrDuplicateName)
	assert.Equal(t, []string{"mu", "sigma", "x", "one"}, m.Names())
	n, err := m.Node("mu")
	require.NoError(t, err)
	assert.Same(t, mu, n)
	assert.Equal(t, []dag.Node{x}, mu.Children())
	assert.Empty(t, one.Children())

	// replacing a node with itself changes nothing
	require.NoError(t, m.Replace("mu", mu))
	assert.Equal(t, []dag.Node{x}, mu.Children())
	assert.Len(t, m.StochasticNodes(), 1)
}

// Removing an observed member of a factor takes its density out of the
// joint and leaves a valid factor behind.
func TestRemoveFactorMember(t *testing.T) {
	m := mixture(t)
	require.NoError(t, m.Eliminate("Z"))
	require.NoError(t, m.Initialize())
	assert.InDelta(t, mixtureLn(1.5, 1)-1, m.LnProbability(), 1e-12)

	require.NoError(t, m.Remove("X"))
	z, err := m.Stochastic("Z")
	require.NoError(t, err)
	assert.Equal(t, dag.Probabilistic(z), z.FactorRoot())
	assert.Len(t, z.SumProductSequence(), 1)
	assert.InDelta(t, -1.0, m.LnProbability(), 1e-12, "S prior plus a factor of mass one")
	require.NoError(t, m.Validate())
}

// A factor reaching past the catalog is reported.
func TestValidateFactorMembership(t *testing.T) {
	m := mixture(t)
	require.NoError(t, m.Eliminate("Z"))
	mu, err := m.Node("mu")
	require.NoError(t, err)
	s, err := m.Stochastic("S")
	require.NoError(t, err)
	_, err = dag.NewStochasticNode[float64]("Y",
		dist.NewNormal(mu.(*dag.DeterministicNode[float64]), s.(*dag.StochasticNode[float64])),
		dag.WithObserved(0.5))
	require.NoError(t, err)
	z, err := m.Stochastic("Z")
	require.NoError(t, err)
	require.NoError(t, z.ConstructFactor())
	require.Len(t, z.SumProductSequence(), 3)

	err = m.Validate()
	require.ErrorIs(t, err, model.ErrInvalidModel)
	assert.Contains(t, err.Error(), `factor member "Y"`)
}

func TestTransactions(t *testing.T) {
	m := mixture(t)
	require.NoError(t, m.Initialize())

	p, err := m.Stochastic("S")
	require.NoError(t, err)
	s := p.(*dag.StochasticNode[float64])
	before := m.LnProbability()

	require.NoError(t, m.Touch("S"))
	require.NoError(t, s.SetValue(2.0, false))
	assert.NotEqual(t, before, m.LnProbability())
	require.NoError(t, m.Restore("S"))
	assert.InDelta(t, before, m.LnProbability(), 1e-12)
	assert.Equal(t, 1.0, s.Value())

	require.NoError(t, m.Touch("S"))
	require.NoError(t, s.SetValue(2.0, false))
	require.NoError(t, m.Keep("S"))
	assert.False(t, s.IsTouched())
	assert.Equal(t, 2.0, s.Value())

	require.ErrorIs(t, m.Touch("nope"), model.ErrNodeNotFound)
}

func TestLnProbability(t *testing.T) {
	m := mixture(t)
	require.NoError(t, m.Initialize())

	// Z held at 1
	want := math.Log(0.3) + (-1) + lnNormal(1.5, 2, 1)
	assert.InDelta(t, want, m.LnProbability(), 1e-12)

	require.NoError(t, m.Eliminate("Z"))
	require.NoError(t, m.Initialize())

	// the factor rooted at Z is counted once
	want = mixtureLn(1.5, 1) + (-1)
	assert.InDelta(t, want, m.LnProbability(), 1e-12)
	for _, n := range m.Nodes() {
		assert.False(t, n.IsTouched(), "%s left touched by Initialize", n.Name())
	}
}

func TestEliminate(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Debug, Output: &buf})
	m := mixture(t)
	m2 := model.New(model.WithLogger(logger))
	require.NoError(t, m2.Add(m.Nodes()...))

	require.NoError(t, m2.Eliminate("Z"))
	z, err := m2.Stochastic("Z")
	require.NoError(t, err)
	assert.Equal(t, dag.Eliminated, z.VariableType())
	assert.Contains(t, buf.String(), "factor built")

	require.ErrorIs(t, m2.Eliminate("S"), dag.ErrInvalidOperation, "continuous")
	require.ErrorIs(t, m2.Eliminate("X"), dag.ErrInvalidOperation, "clamped")
	require.ErrorIs(t, m2.Eliminate("mu"), dag.ErrTypeMismatch)
}

func TestValidate(t *testing.T) {
	m := mixture(t)
	require.NoError(t, m.Validate())

	// parent outside the catalog
	partial := model.New()
	nodes := m.Nodes()
	require.NoError(t, partial.Add(nodes[2:]...))
	err := partial.Validate()
	require.ErrorIs(t, err, model.ErrInvalidModel)
	require.ErrorIs(t, err, model.ErrNodeNotFound)

	// summed out without a factor, and an unsupported observation
	z, err := m.Stochastic("Z")
	require.NoError(t, err)
	require.NoError(t, z.SetInstantiated(false))
	lo := dag.NewConstantNode("lo", 0.0)
	hi := dag.NewConstantNode("hi", 1.0)
	u, err := dag.NewStochasticNode[float64]("u", dist.NewUniform(lo, hi), dag.WithObserved(3.0))
	require.NoError(t, err)
	require.NoError(t, m.Add(lo, hi, u))

	err = m.Validate()
	require.ErrorIs(t, err, model.ErrInvalidModel)
	assert.Contains(t, err.Error(), `"Z" is summed out`)
	assert.Contains(t, err.Error(), `observation of "u"`)
	require.ErrorIs(t, m.Initialize(), model.ErrInvalidModel)
}

func TestClone(t *testing.T) {
	m := mixture(t)
	require.NoError(t, m.Eliminate("Z"))
	require.NoError(t, m.Initialize())

	cp, err := m.Clone()
	require.NoError(t, err)
	assert.Equal(t, m.Names(), cp.Names())
	assert.InDelta(t, m.LnProbability(), cp.LnProbability(), 1e-12)

	for _, name := range m.Names() {
		a, _ := m.Node(name)
		b, _ := cp.Node(name)
		assert.NotSame(t, a, b, name)
	}

	// moving the copy leaves the original alone
	p, err := cp.Stochastic("S")
	require.NoError(t, err)
	require.NoError(t, p.Redraw(rand.NewPCG(3, 4)))
	p.Keep()
	orig, err := m.Stochastic("S")
	require.NoError(t, err)
	assert.Equal(t, 1.0, orig.(*dag.StochasticNode[float64]).Value())
	assert.InDelta(t, mixtureLn(1.5, 1)-1, m.LnProbability(), 1e-12)
	require.NoError(t, cp.Validate())
}
