// SPDX-License-Identifier: MIT

// Package distributions: functional options shared by Normal and
// MultitaskNormal constructors.
//
// Design goals:
//   - Deterministic behaviour: sampling uses an explicit rand.Source when given.
//   - Safe by construction: option constructors panic only on nonsensical
//     values (programmer error); constructors never panic on user data.

package distributions

import (
	"math"

	"golang.org/x/exp/rand"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultInterleaved selects the task-minor layout (flat = obs·t + task).
	DefaultInterleaved = true

	// DefaultValidateArgs leaves the O(n²) symmetry/positivity checks off.
	DefaultValidateArgs = false

	// DefaultSymmetryTolerance bounds |Σ[i,j] − Σ[j,i]| under WithValidateArgs.
	DefaultSymmetryTolerance = 1e-8
)

const (
	panicNilSource    = "distributions: WithSource: source must not be nil"
	panicSymTolerance = "distributions: WithSymmetryTolerance: tol must be finite, non-negative"
)

// Option mutates internal options.
type Option func(*Options)

// Options is the resolved configuration; fields are unexported and set only
// through Option constructors.
type Options struct {
	validateArgs bool
	interleaved  bool
	symTol       float64
	src          rand.Source // nil ⇒ package-level generator of x/exp/rand
}

// WithValidateArgs enables argument validation: finite mean, symmetric
// covariance within the symmetry tolerance, positive finite diagonal.
// Complexity of the checks: O(B·n²).
func WithValidateArgs() Option {
	return func(o *Options) { o.validateArgs = true }
}

// WithInterleaved selects the flattening layout of a MultitaskNormal.
// true: flat index = obs·t + task. false: flat index = task·n + obs.
func WithInterleaved(interleaved bool) Option {
	return func(o *Options) { o.interleaved = interleaved }
}

// WithSource fixes the random source used for base samples.
// Panics if src is nil.
func WithSource(src rand.Source) Option {
	if src == nil {
		panic(panicNilSource)
	}

	return func(o *Options) { o.src = src }
}

// WithSymmetryTolerance sets the tolerance used by WithValidateArgs.
// Panics on NaN, ±Inf or negative values.
func WithSymmetryTolerance(tol float64) Option {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		panic(panicSymTolerance)
	}

	return func(o *Options) { o.symTol = tol }
}

func defaultOptions() Options {
	return Options{
		validateArgs: DefaultValidateArgs,
		interleaved:  DefaultInterleaved,
		symTol:       DefaultSymmetryTolerance,
	}
}

// gatherOptions applies user options over the defaults, in order.
func gatherOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
