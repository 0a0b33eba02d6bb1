// SPDX-License-Identifier: MIT

package mcmc

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the sampler's prometheus collectors.
type metrics struct {
	tried    *prometheus.CounterVec // proposals per move
	accepted *prometheus.CounterVec // accepted proposals per move
	lnProb   prometheus.Gauge       // joint log probability after the last report
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		tried: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bayesdag_move_tried_total",
				Help: "Number of proposals performed by a move.",
			},
			[]string{"move"},
		),
		accepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bayesdag_move_accepted_total",
				Help: "Number of proposals accepted for a move.",
			},
			[]string{"move"},
		),
		lnProb: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bayesdag_model_lnprobability",
				Help: "Joint log probability of the model at the last report.",
			},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.tried, err = register(reg, m.tried); err != nil {
		return nil, err
	}
	if m.accepted, err = register(reg, m.accepted); err != nil {
		return nil, err
	}
	if m.lnProb, err = register(reg, m.lnProb); err != nil {
		return nil, err
	}

	return m, nil
}

// register adds c to reg, reusing an identical collector registered by an
// earlier sampler.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}

	return c, nil
}
