package model_test

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/bayesdag/dag"
	"github.com/katalvlaran/bayesdag/dist"
	"github.com/katalvlaran/bayesdag/model"
)

// ExampleModel_TopologicalOrder registers a child before its parents.
func ExampleModel_TopologicalOrder() {
	mu := dag.NewConstantNode("mu", 0.0)
	sigma := dag.NewConstantNode("sigma", 1.0)
	x, _ := dag.NewStochasticNode[float64]("x", dist.NewNormal(mu, sigma), dag.WithObserved(0.0))

	m := model.New()
	_ = m.Add(x, sigma, mu)

	order, _ := m.TopologicalOrder()
	var out []string
	for _, n := range order {
		out = append(out, n.Name())
	}
	fmt.Println(strings.Join(out, " "))
	// Output:
	// sigma mu x
}

// ExampleModel_Eliminate sums a coin out of its only observation.
func ExampleModel_Eliminate() {
	p := dag.NewConstantNode("p", 0.25)
	coin, _ := dag.NewStochasticNode[int]("coin", dist.NewBernoulli(p), dag.WithObserved(0))
	coin.Unclamp()
	q, _ := dag.NewDeterministicNode("q", dag.Unary("q", dag.Valuer[int](coin), func(c int) float64 { return 0.2 + 0.6*float64(c) }))
	flip, _ := dag.NewStochasticNode[int]("flip", dist.NewBernoulli(q), dag.WithObserved(1))

	m := model.New()
	_ = m.Add(p, coin, q, flip)
	_ = m.Eliminate("coin")
	_ = m.Initialize()

	// 0.75*0.2 + 0.25*0.8
	fmt.Printf("%.4f\n", m.LnProbability())
	// Output:
	// -1.0498
}
