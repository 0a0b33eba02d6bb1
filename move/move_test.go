package move_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/bayesdag/dag"
	"github.com/katalvlaran/bayesdag/dist"
	"github.com/katalvlaran/bayesdag/move"
)

func lnNormal(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return -0.5*math.Log(2*math.Pi) - math.Log(sigma) - 0.5*z*z
}

// scaleModel returns S ~ Exponential(1) at 1 and y ~ Normal(0, S) observed at 0.5.
func scaleModel(t *testing.T) (s, y *dag.StochasticNode[float64]) {
	t.Helper()
	one := dag.NewConstantNode("one", 1.0)
	zero := dag.NewConstantNode("zero", 0.0)
	s, err := dag.NewStochasticNode[float64]("S", dist.NewExponential(one), dag.WithObserved(1.0))
	require.NoError(t, err)
	s.Unclamp()
	y, err = dag.NewStochasticNode[float64]("y", dist.NewNormal(zero, s), dag.WithObserved(0.5))
	require.NoError(t, err)

	return s, y
}

func TestRepeatedPerform(t *testing.T) {
	s, _ := scaleModel(t)
	mv, err := move.NewScale(s, 1)
	require.NoError(t, err)
	src := rand.NewPCG(1, 2)

	_, err = mv.Perform(src)
	require.NoError(t, err)
	assert.True(t, mv.Pending())

	_, err = mv.Perform(src)
	require.ErrorIs(t, err, move.ErrRepeatedMove)
	assert.Equal(t, 1, mv.Tried(), "the refused call does not count")

	require.NoError(t, mv.Reject())
	_, err = mv.Perform(src)
	require.NoError(t, err, "resolved moves may perform again")
	require.NoError(t, mv.Accept())
}

func TestNoProposal(t *testing.T) {
	s, _ := scaleModel(t)
	mv, err := move.NewSlide(s, 0.5)
	require.NoError(t, err)

	require.ErrorIs(t, mv.Accept(), move.ErrNoProposal)
	require.ErrorIs(t, mv.Reject(), move.ErrNoProposal)
}

func TestPerformOnObservedOrHidden(t *testing.T) {
	_, y := scaleModel(t)
	mv, err := move.NewSlide(y, 0.5)
	require.NoError(t, err)
	_, err = mv.Perform(rand.NewPCG(1, 2))
	require.ErrorIs(t, err, dag.ErrClampedNode)
	assert.False(t, y.IsTouched())
	assert.False(t, mv.Pending())
	assert.Equal(t, 0.5, y.Value())

	p := dag.NewConstantNode("p", 0.5)
	z, err := dag.NewStochasticNode[int]("z", dist.NewBernoulli(p), dag.WithSource(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	require.NoError(t, z.SetInstantiated(false))
	rs, err := move.NewRandomState(z)
	require.NoError(t, err)
	_, err = rs.Perform(rand.NewPCG(1, 2))
	require.ErrorIs(t, err, dag.ErrInvalidOperation)
}

func TestConstructors(t *testing.T) {
	s, _ := scaleModel(t)

	_, err := move.NewScale(s, 0)
	require.ErrorIs(t, err, move.ErrInvalidTuning)
	_, err = move.NewSlide(s, math.Inf(1))
	require.ErrorIs(t, err, move.ErrInvalidTuning)
	_, err = move.NewScale(nil, 1)
	require.ErrorIs(t, err, dag.ErrInvalidOperation)
	_, err = move.NewRandomState(s)
	require.ErrorIs(t, err, dag.ErrInvalidOperation, "continuous support")

	mv, err := move.NewScale(s, 1, move.WithWeight(3), move.WithWalker(dag.MemoizedWalk))
	require.NoError(t, err)
	assert.Equal(t, "scale(S)", mv.Name())
	assert.Equal(t, 3.0, mv.Weight())
	assert.Equal(t, []dag.Node{s}, mv.Nodes())

	named, err := move.NewSlide(s, 1, move.WithName("walk"), move.WithWeight(-1))
	require.NoError(t, err)
	assert.Equal(t, "walk", named.Name())
	assert.Equal(t, 1.0, named.Weight())
}

func TestScaleRatioAndRestore(t *testing.T) {
	s, y := scaleModel(t)
	mv, err := move.NewScale(s, 2)
	require.NoError(t, err)
	before := s.GetLnProbability() + y.GetLnProbability()

	lnH, err := mv.Perform(rand.NewPCG(5, 6))
	require.NoError(t, err)
	next := s.Value()
	assert.InDelta(t, math.Log(next), lnH, 1e-12, "Hastings ratio is ln c")

	want := (-next - -1.0) + (lnNormal(0.5, 0, next) - lnNormal(0.5, 0, 1))
	assert.InDelta(t, want, mv.LnProbabilityRatio(), 1e-12)

	require.NoError(t, mv.Reject())
	assert.Equal(t, 1.0, s.Value())
	assert.False(t, s.IsTouched())
	assert.False(t, y.IsTouched())
	assert.InDelta(t, before, s.GetLnProbability()+y.GetLnProbability(), 1e-12)
	assert.Zero(t, mv.LnProbabilityRatio())

	_, err = mv.Perform(rand.NewPCG(5, 6))
	require.NoError(t, err)
	require.NoError(t, mv.Accept())
	assert.Equal(t, next, s.Value())
	assert.InDelta(t, -next+lnNormal(0.5, 0, next), s.GetLnProbability()+y.GetLnProbability(), 1e-12)
	assert.Equal(t, 2, mv.Tried())
	assert.Equal(t, 1, mv.Accepted())
}

func TestSlideReflects(t *testing.T) {
	lo := dag.NewConstantNode("lo", 0.0)
	hi := dag.NewConstantNode("hi", 1.0)
	u, err := dag.NewStochasticNode[float64]("u", dist.NewUniform(lo, hi), dag.WithObserved(0.95))
	require.NoError(t, err)
	u.Unclamp()

	mv, err := move.NewSlide(u, 10)
	require.NoError(t, err)
	src := rand.NewPCG(9, 9)
	for i := 0; i < 100; i++ {
		lnH, err := mv.Perform(src)
		require.NoError(t, err)
		assert.Zero(t, lnH)
		v := u.Value()
		require.True(t, v >= 0 && v <= 1, "draw %d left the support: %v", i, v)
		assert.Zero(t, mv.LnProbabilityRatio(), "flat density")
		require.NoError(t, mv.Accept())
	}
}

func unitUniform(t *testing.T, at float64) *dag.StochasticNode[float64] {
	t.Helper()
	lo := dag.NewConstantNode("lo", 0.0)
	hi := dag.NewConstantNode("hi", 1.0)
	u, err := dag.NewStochasticNode[float64]("u", dist.NewUniform(lo, hi), dag.WithObserved(at))
	require.NoError(t, err)
	u.Unclamp()

	return u
}

// Windows far wider than the support still land inside it.
func TestSlideWideWindow(t *testing.T) {
	u := unitUniform(t, 0.3)
	src := rand.NewPCG(2, 7)
	for _, delta := range []float64{1e6, 1e20, 1e300} {
		s := &move.Slide{Delta: delta}
		for i := 0; i < 20; i++ {
			x, lnH := s.Propose(u, src)
			assert.Zero(t, lnH)
			require.True(t, x >= 0 && x <= 1, "delta %g: %v", delta, x)
		}
	}

	// one-sided support reflects at the finite bound only
	one := dag.NewConstantNode("one", 1.0)
	e, err := dag.NewStochasticNode[float64]("e", dist.NewExponential(one), dag.WithObserved(0.1))
	require.NoError(t, err)
	s := &move.Slide{Delta: 1e20}
	for i := 0; i < 20; i++ {
		x, _ := s.Propose(e, src)
		require.GreaterOrEqual(t, x, 0.0)
	}
}

// Tuning on a flat density accepts everything; the window stops growing at
// the width of the support and a run keeps proposing.
func TestTuneLimits(t *testing.T) {
	u := unitUniform(t, 0.5)
	mv, err := move.NewSlide(u, 0.5)
	require.NoError(t, err)
	src := rand.NewPCG(4, 4)
	for round := 0; round < 60; round++ {
		for i := 0; i < 5; i++ {
			_, err := mv.Perform(src)
			require.NoError(t, err)
			require.NoError(t, mv.Accept())
		}
		mv.Tune()
		require.LessOrEqual(t, mv.TuningParameter(), 1.0, "round %d", round)
	}
	assert.Equal(t, 1.0, mv.TuningParameter())

	s, _ := scaleModel(t)
	sc, err := move.NewScale(s, 1)
	require.NoError(t, err)
	for round := 0; round < 10; round++ {
		_, err := sc.Perform(src)
		require.NoError(t, err)
		require.NoError(t, sc.Accept())
		sc.Tune()
	}
	assert.Equal(t, 10.0, sc.TuningParameter(), "lambda growth is capped")

	wide, err := move.NewSlide(s, 5e6)
	require.NoError(t, err)
	_, err = wide.Perform(src)
	require.NoError(t, err)
	require.NoError(t, wide.Accept())
	wide.Tune()
	assert.Equal(t, 5e6, wide.TuningParameter(), "a larger starting window is kept")
}

func TestRandomState(t *testing.T) {
	w := dag.NewConstantNode("w", []float64{1, 2, 3})
	k, err := dag.NewStochasticNode[int]("k", dist.NewCategorical(w), dag.WithObserved(0))
	require.NoError(t, err)
	k.Unclamp()

	mv, err := move.NewRandomState(k)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(mv.TuningParameter()))

	seen := make(map[int]bool)
	src := rand.NewPCG(3, 3)
	for i := 0; i < 60; i++ {
		prev := k.Value()
		_, err := mv.Perform(src)
		require.NoError(t, err)
		want := math.Log(float64(k.Value()+1)) - math.Log(float64(prev+1))
		assert.InDelta(t, want, mv.LnProbabilityRatio(), 1e-12)
		seen[k.Value()] = true
		require.NoError(t, mv.Accept())
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, seen)
}

func TestTune(t *testing.T) {
	s, _ := scaleModel(t)
	mv, err := move.NewScale(s, 1)
	require.NoError(t, err)
	src := rand.NewPCG(1, 1)

	mv.Tune()
	assert.Equal(t, 1.0, mv.TuningParameter(), "nothing tried yet")

	for i := 0; i < 10; i++ {
		_, err := mv.Perform(src)
		require.NoError(t, err)
		require.NoError(t, mv.Accept())
	}
	mv.Tune()
	assert.InDelta(t, 2.0, mv.TuningParameter(), 1e-12, "all accepted doubles lambda")

	for i := 0; i < 10; i++ {
		_, err := mv.Perform(src)
		require.NoError(t, err)
		require.NoError(t, mv.Reject())
	}
	mv.Tune()
	assert.InDelta(t, 1.0, mv.TuningParameter(), 1e-12, "all rejected halves lambda")
}

// The scale of a mixture component is moved while the switch is summed out.
func TestRatioThroughFactor(t *testing.T) {
	w := dag.NewConstantNode("w", 0.3)
	one := dag.NewConstantNode("one", 1.0)
	z, err := dag.NewStochasticNode[int]("Z", dist.NewBernoulli(w), dag.WithSource(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	mu, err := dag.NewDeterministicNode("mu", dag.Unary("twice", dag.Valuer[int](z), func(v int) float64 { return 2 * float64(v) }))
	require.NoError(t, err)
	s, err := dag.NewStochasticNode[float64]("S", dist.NewExponential(one), dag.WithObserved(1.0))
	require.NoError(t, err)
	s.Unclamp()
	_, err = dag.NewStochasticNode[float64]("X", dist.NewNormal(mu, s), dag.WithObserved(1.5))
	require.NoError(t, err)
	require.NoError(t, z.SetInstantiated(false))
	require.NoError(t, z.ConstructFactor())

	marginal := func(sigma float64) float64 {
		return math.Log(0.7*math.Exp(lnNormal(1.5, 0, sigma)) + 0.3*math.Exp(lnNormal(1.5, 2, sigma)))
	}
	_ = z.GetLnProbability()

	mv, err := move.NewScale(s, 1)
	require.NoError(t, err)
	_, err = mv.Perform(rand.NewPCG(4, 2))
	require.NoError(t, err)
	next := s.Value()

	want := (-next + 1) + (marginal(next) - marginal(1))
	assert.InDelta(t, want, mv.LnProbabilityRatio(), 1e-12)
	require.NoError(t, mv.Reject())
	assert.InDelta(t, marginal(1), z.GetLnProbability(), 1e-12)
}
