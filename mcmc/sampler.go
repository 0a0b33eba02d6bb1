// SPDX-License-Identifier: MIT
//
// File: sampler.go
// Role: Metropolis-Hastings driver over a model and a weighted move schedule.

package mcmc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/katalvlaran/bayesdag/model"
	"github.com/katalvlaran/bayesdag/move"
)

// Sentinel errors for sampler construction.
var (
	// ErrNilModel indicates New was called without a model.
	ErrNilModel = errors.New("mcmc: nil model")

	// ErrNoMoves indicates an empty or zero-weight move schedule.
	ErrNoMoves = errors.New("mcmc: no moves")
)

// Option configures a Sampler.
type Option func(*Sampler)

// WithConfig replaces DefaultConfig.
func WithConfig(c Config) Option {
	return func(s *Sampler) { s.cfg = c }
}

// WithLogger sets the logger; nil keeps the discarding default.
func WithLogger(l hclog.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegisterer registers the sampler metrics with reg. Without it the
// metrics are collected but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Sampler) { s.registerer = reg }
}

// WithSource sets the random source; the default is a PCG seeded from
// Config.Seed.
func WithSource(src rand.Source) Option {
	return func(s *Sampler) { s.src = src }
}

// MoveStats summarizes one move after a run.
type MoveStats struct {
	Name     string
	Tried    int
	Accepted int
	// TuningParameter is NaN for moves without one.
	TuningParameter float64
}

// AcceptanceRate returns Accepted/Tried, or 0 before the first proposal.
func (m MoveStats) AcceptanceRate() float64 {
	if m.Tried == 0 {
		return 0
	}

	return float64(m.Accepted) / float64(m.Tried)
}

// Result describes a finished or interrupted run.
type Result struct {
	RunID         uuid.UUID
	RunName       string
	Generations   int // completed generations
	Moves         []MoveStats
	LnProbability float64
}

// Sampler runs Metropolis-Hastings on one model. It is not safe for
// concurrent use; clone the model for parallel chains.
type Sampler struct {
	model *model.Model
	moves []move.Move

	cfg        Config
	logger     hclog.Logger
	registerer prometheus.Registerer
	src        rand.Source
	rng        *rand.Rand
	metrics    *metrics

	totalWeight float64
}

// New validates the schedule and the configuration and prepares a sampler.
func New(m *model.Model, moves []move.Move, opts ...Option) (*Sampler, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	s := &Sampler{
		model:  m,
		moves:  append([]move.Move(nil), moves...),
		cfg:    DefaultConfig(),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	for _, mv := range s.moves {
		if mv == nil {
			return nil, fmt.Errorf("%w: nil move in schedule", ErrNoMoves)
		}
		if w := mv.Weight(); w > 0 && !math.IsInf(w, 1) {
			s.totalWeight += w
		}
	}
	if s.totalWeight == 0 {
		return nil, fmt.Errorf("%w: no move has a positive weight", ErrNoMoves)
	}

	if s.src == nil {
		s.src = rand.NewPCG(s.cfg.Seed, s.cfg.Seed+1)
	}
	s.rng = rand.New(s.src)

	var err error
	if s.metrics, err = newMetrics(s.registerer); err != nil {
		return nil, fmt.Errorf("mcmc: metrics: %w", err)
	}
	s.logger = s.logger.Named("mcmc")

	return s, nil
}

// Config returns the active configuration.
func (s *Sampler) Config() Config { return s.cfg }

// Run initializes the model and performs generations proposals
// (Config.Generations when generations <= 0).
//
// Implementation:
//   - Stage 1: Initialize the model so no transaction is open.
//   - Stage 2: Per generation pick a move by weight, perform it and accept
//     with probability min(1, exp(heat·lnR + lnH)); keep or restore.
//   - Stage 3: Tune tunable moves and log progress at their intervals.
//
// ctx is checked between generations. On cancellation or a move error the
// partial Result is returned together with the error.
func (s *Sampler) Run(ctx context.Context, generations int) (Result, error) {
	if generations <= 0 {
		generations = s.cfg.Generations
	}
	res := Result{RunID: uuid.New(), RunName: s.cfg.RunName}
	logger := s.logger.With("run", res.RunID.String(), "name", s.cfg.RunName)

	// Stage 1
	if err := s.model.Initialize(); err != nil {
		return s.finish(res), fmt.Errorf("mcmc: initialize: %w", err)
	}
	logger.Info("run started", "generations", generations, "moves", len(s.moves),
		"lnProbability", s.model.LnProbability())

	for g := 1; g <= generations; g++ {
		select {
		case <-ctx.Done():
			logger.Warn("run canceled", "generation", res.Generations)
			return s.finish(res), ctx.Err()
		default:
		}

		// Stage 2
		mv := s.pick()
		if err := s.step(mv); err != nil {
			logger.Error("move failed", "generation", g, "move", mv.Name(), "error", err)
			return s.finish(res), fmt.Errorf("mcmc: generation %d: %w", g, err)
		}
		res.Generations = g

		// Stage 3
		if s.cfg.TuningInterval > 0 && g%s.cfg.TuningInterval == 0 {
			s.tune(logger)
		}
		if s.cfg.PrintInterval > 0 && g%s.cfg.PrintInterval == 0 {
			ln := s.model.LnProbability()
			s.metrics.lnProb.Set(ln)
			logger.Info("progress", "generation", g, "lnProbability", ln)
		}
	}

	res = s.finish(res)
	logger.Info("run finished", "generations", res.Generations, "lnProbability", res.LnProbability)

	return res, nil
}

// step performs one proposal and resolves it.
func (s *Sampler) step(mv move.Move) error {
	lnH, err := mv.Perform(s.src)
	if err != nil {
		return err
	}
	s.metrics.tried.WithLabelValues(mv.Name()).Inc()

	lnR := mv.LnProbabilityRatio()
	lnA := s.cfg.Heat*lnR + lnH
	if lnA >= 0 || math.Log(s.rng.Float64()) < lnA {
		if err = mv.Accept(); err != nil {
			return err
		}
		s.metrics.accepted.WithLabelValues(mv.Name()).Inc()
		return nil
	}

	// NaN ratios fall through to here.
	return mv.Reject()
}

// pick draws a move with probability proportional to its weight.
func (s *Sampler) pick() move.Move {
	u := s.rng.Float64() * s.totalWeight
	var last move.Move
	for _, mv := range s.moves {
		w := mv.Weight()
		if !(w > 0) || math.IsInf(w, 1) {
			continue
		}
		last = mv
		if u < w {
			return mv
		}
		u -= w
	}

	return last
}

func (s *Sampler) tune(logger hclog.Logger) {
	for _, mv := range s.moves {
		t, ok := mv.(move.Tunable)
		if !ok {
			continue
		}
		t.Tune()
		logger.Debug("move tuned", "move", mv.Name(), "parameter", t.TuningParameter())
	}
}

func (s *Sampler) finish(res Result) Result {
	res.Moves = make([]MoveStats, len(s.moves))
	for i, mv := range s.moves {
		st := MoveStats{Name: mv.Name(), Tried: mv.Tried(), Accepted: mv.Accepted(), TuningParameter: math.NaN()}
		if t, ok := mv.(move.Tunable); ok {
			st.TuningParameter = t.TuningParameter()
		}
		res.Moves[i] = st
	}
	res.LnProbability = s.model.LnProbability()
	s.metrics.lnProb.Set(res.LnProbability)

	return res
}
