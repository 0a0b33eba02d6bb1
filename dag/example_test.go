package dag_test

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/bayesdag/dag"
	"github.com/katalvlaran/bayesdag/dist"
)

// ExampleConstantNode_SetValue shows a constant change reaching a
// deterministic child.
func ExampleConstantNode_SetValue() {
	a := dag.NewConstantNode("A", 2.0)
	b, _ := dag.NewDeterministicNode("B", dag.Unary("times3", dag.Valuer[float64](a), func(x float64) float64 { return x * 3 }))

	fmt.Println(b.Value())
	a.SetValue(5.0)
	fmt.Println(b.Value())
	// Output:
	// 6
	// 15
}

// ExampleStochasticNode_Restore proposes a value and rolls it back.
func ExampleStochasticNode_Restore() {
	rate := dag.NewConstantNode("lambda", 2.0)
	x, _ := dag.NewStochasticNode[float64]("X", dist.NewExponential(rate), dag.WithObserved(1.0))
	x.Unclamp()

	x.Touch()
	_ = x.SetValue(0.5, false)
	fmt.Printf("ratio %.2f\n", x.GetLnProbabilityRatio())

	x.Restore()
	fmt.Println(x.Value(), x.IsTouched())
	// Output:
	// ratio 1.00
	// 1 false
}

// ExampleCycleError shows the refused edge and the path it would close.
func ExampleCycleError() {
	root := dag.NewConstantNode("root", 0.0)
	id := func(v float64) float64 { return v }
	b, _ := dag.NewDeterministicNode("B", dag.Unary("id", dag.Valuer[float64](root), id))
	a, _ := dag.NewDeterministicNode("A", dag.Unary("id", dag.Valuer[float64](b), id))

	err := b.AddParent(a)
	var ce *dag.CycleError
	fmt.Println(errors.As(err, &ce), ce.Path)
	// Output:
	// true [B A]
}

// ExampleStochasticNode_ConstructFactor integrates a binary switch out of a
// two-component mixture.
func ExampleStochasticNode_ConstructFactor() {
	w := dag.NewConstantNode("w", 0.5)
	sigma := dag.NewConstantNode("sigma", 1.0)
	z, _ := dag.NewStochasticNode[int]("z", dist.NewBernoulli(w), dag.WithObserved(0))
	z.Unclamp()
	mu, _ := dag.NewDeterministicNode("mu", dag.Unary("shift", dag.Valuer[int](z), func(v int) float64 { return 4 * float64(v) }))
	x, _ := dag.NewStochasticNode[float64]("x", dist.NewNormal(mu, sigma), dag.WithObserved(2.0))

	_ = z.SetInstantiated(false)
	_ = z.ConstructFactor()

	// both components put the observation two standard deviations away
	want := -0.5*math.Log(2*math.Pi) - 2
	fmt.Println(z.VariableType(), math.Abs(x.GetLnProbability()-want) < 1e-12)
	// Output:
	// ELIMINATED true
}
