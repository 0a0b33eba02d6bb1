// SPDX-License-Identifier: MIT
//
// File: continuous.go
// Role: scalar continuous distributions backed by gonum/stat/distuv.

package dist

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/bayesdag/dag"
)

var (
	_ dag.Distribution[float64] = (*Normal)(nil)
	_ dag.Distribution[float64] = (*LogNormal)(nil)
	_ dag.Distribution[float64] = (*Exponential)(nil)
	_ dag.Distribution[float64] = (*Gamma)(nil)
	_ dag.Distribution[float64] = (*Beta)(nil)
	_ dag.Distribution[float64] = (*Uniform)(nil)
	_ dag.Bounded               = (*Uniform)(nil)
)

var negInf = math.Inf(-1)

// positive reports whether every value is a finite positive number.
func positive(vs ...float64) bool {
	for _, v := range vs {
		if !(v > 0) || math.IsInf(v, 1) {
			return false
		}
	}

	return true
}

// halfLine provides the [0, +Inf) bounds of positive distributions.
type halfLine struct{}

// Min returns 0.
func (halfLine) Min() float64 { return 0 }

// Max returns +Inf.
func (halfLine) Max() float64 { return math.Inf(1) }

// Normal is the Gaussian distribution with mean mu and standard deviation sigma.
type Normal struct {
	slots[float64]
}

// NewNormal binds a normal distribution to its parameter nodes.
func NewNormal(mu, sigma dag.Valuer[float64]) *Normal {
	return &Normal{newSlots("normal", mu, sigma)}
}

func (d *Normal) gonum(src rand.Source) (distuv.Normal, bool) {
	mu, sigma := d.at(0), d.at(1)
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: src}, positive(sigma) && !math.IsNaN(mu)
}

// LnPdf returns the log density at x.
func (d *Normal) LnPdf(x float64) float64 {
	g, ok := d.gonum(nil)
	if !ok {
		return negInf
	}

	return g.LogProb(x)
}

// Pdf returns the density at x.
func (d *Normal) Pdf(x float64) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws a value.
func (d *Normal) Rv(src rand.Source) float64 {
	g, ok := d.gonum(src)
	if !ok {
		return math.NaN()
	}

	return g.Rand()
}

// Min returns -Inf.
func (d *Normal) Min() float64 { return math.Inf(-1) }

// Max returns +Inf.
func (d *Normal) Max() float64 { return math.Inf(1) }

// Clone returns a copy bound to the same parameter nodes.
func (d *Normal) Clone() dag.Distribution[float64] { return &Normal{d.clone()} }

// LogNormal is the distribution of exp(X) for X ~ Normal(mu, sigma).
type LogNormal struct {
	slots[float64]
	halfLine
}

// NewLogNormal binds a log-normal distribution to its parameter nodes.
func NewLogNormal(mu, sigma dag.Valuer[float64]) *LogNormal {
	return &LogNormal{slots: newSlots("lognormal", mu, sigma)}
}

// LnPdf returns the log density at x; -Inf for x <= 0.
func (d *LogNormal) LnPdf(x float64) float64 {
	mu, sigma := d.at(0), d.at(1)
	if !positive(sigma) || !(x > 0) {
		return negInf
	}

	return distuv.LogNormal{Mu: mu, Sigma: sigma}.LogProb(x)
}

// Pdf returns the density at x.
func (d *LogNormal) Pdf(x float64) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws a value.
func (d *LogNormal) Rv(src rand.Source) float64 {
	mu, sigma := d.at(0), d.at(1)
	if !positive(sigma) {
		return math.NaN()
	}

	return distuv.LogNormal{Mu: mu, Sigma: sigma, Src: src}.Rand()
}

// Clone returns a copy bound to the same parameter nodes.
func (d *LogNormal) Clone() dag.Distribution[float64] { return &LogNormal{slots: d.clone()} }

// Exponential has density rate·exp(-rate·x) on [0, +Inf).
type Exponential struct {
	slots[float64]
	halfLine
}

// NewExponential binds an exponential distribution to its rate node.
func NewExponential(rate dag.Valuer[float64]) *Exponential {
	return &Exponential{slots: newSlots("exponential", rate)}
}

// LnPdf returns the log density at x; -Inf for x < 0.
func (d *Exponential) LnPdf(x float64) float64 {
	rate := d.at(0)
	if !positive(rate) || x < 0 {
		return negInf
	}

	return distuv.Exponential{Rate: rate}.LogProb(x)
}

// Pdf returns the density at x.
func (d *Exponential) Pdf(x float64) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws a value.
func (d *Exponential) Rv(src rand.Source) float64 {
	rate := d.at(0)
	if !positive(rate) {
		return math.NaN()
	}

	return distuv.Exponential{Rate: rate, Src: src}.Rand()
}

// Clone returns a copy bound to the same parameter nodes.
func (d *Exponential) Clone() dag.Distribution[float64] { return &Exponential{slots: d.clone()} }

// Gamma is parameterized by shape and rate (mean shape/rate).
type Gamma struct {
	slots[float64]
	halfLine
}

// NewGamma binds a gamma distribution to its shape and rate nodes.
func NewGamma(shape, rate dag.Valuer[float64]) *Gamma {
	return &Gamma{slots: newSlots("gamma", shape, rate)}
}

// LnPdf returns the log density at x; -Inf for x <= 0.
func (d *Gamma) LnPdf(x float64) float64 {
	shape, rate := d.at(0), d.at(1)
	if !positive(shape, rate) || !(x > 0) {
		return negInf
	}

	return distuv.Gamma{Alpha: shape, Beta: rate}.LogProb(x)
}

// Pdf returns the density at x.
func (d *Gamma) Pdf(x float64) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws a value.
func (d *Gamma) Rv(src rand.Source) float64 {
	shape, rate := d.at(0), d.at(1)
	if !positive(shape, rate) {
		return math.NaN()
	}

	return distuv.Gamma{Alpha: shape, Beta: rate, Src: src}.Rand()
}

// Clone returns a copy bound to the same parameter nodes.
func (d *Gamma) Clone() dag.Distribution[float64] { return &Gamma{slots: d.clone()} }

// Beta is the beta distribution on [0, 1].
type Beta struct {
	slots[float64]
}

// NewBeta binds a beta distribution to its two shape nodes.
func NewBeta(alpha, beta dag.Valuer[float64]) *Beta {
	return &Beta{newSlots("beta", alpha, beta)}
}

// LnPdf returns the log density at x; -Inf outside [0, 1].
func (d *Beta) LnPdf(x float64) float64 {
	a, b := d.at(0), d.at(1)
	if !positive(a, b) || x < 0 || x > 1 {
		return negInf
	}

	return distuv.Beta{Alpha: a, Beta: b}.LogProb(x)
}

// Pdf returns the density at x.
func (d *Beta) Pdf(x float64) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws a value.
func (d *Beta) Rv(src rand.Source) float64 {
	a, b := d.at(0), d.at(1)
	if !positive(a, b) {
		return math.NaN()
	}

	return distuv.Beta{Alpha: a, Beta: b, Src: src}.Rand()
}

// Min returns 0.
func (d *Beta) Min() float64 { return 0 }

// Max returns 1.
func (d *Beta) Max() float64 { return 1 }

// Clone returns a copy bound to the same parameter nodes.
func (d *Beta) Clone() dag.Distribution[float64] { return &Beta{d.clone()} }

// Uniform is the continuous uniform distribution on [min, max].
type Uniform struct {
	slots[float64]
}

// NewUniform binds a uniform distribution to its bound nodes.
func NewUniform(lower, upper dag.Valuer[float64]) *Uniform {
	return &Uniform{newSlots("uniform", lower, upper)}
}

func (d *Uniform) valid() bool {
	lo, hi := d.at(0), d.at(1)
	return lo < hi && !math.IsInf(lo, 0) && !math.IsInf(hi, 0)
}

// LnPdf returns -log(max-min) inside the interval and -Inf outside.
func (d *Uniform) LnPdf(x float64) float64 {
	if !d.valid() {
		return negInf
	}

	return distuv.Uniform{Min: d.at(0), Max: d.at(1)}.LogProb(x)
}

// Pdf returns the density at x.
func (d *Uniform) Pdf(x float64) float64 { return math.Exp(d.LnPdf(x)) }

// Rv draws a value.
func (d *Uniform) Rv(src rand.Source) float64 {
	if !d.valid() {
		return math.NaN()
	}

	return distuv.Uniform{Min: d.at(0), Max: d.at(1), Src: src}.Rand()
}

// Min returns the current lower bound.
func (d *Uniform) Min() float64 { return d.at(0) }

// Max returns the current upper bound.
func (d *Uniform) Max() float64 { return d.at(1) }

// Clone returns a copy bound to the same parameter nodes.
func (d *Uniform) Clone() dag.Distribution[float64] { return &Uniform{d.clone()} }
