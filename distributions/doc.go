// SPDX-License-Identifier: MIT

// Package distributions provides the Gaussian distributions used by gpdist.
//
// Normal is a (batched) multivariate normal over a flat event vector of size
// n, backed by a linop.Operator covariance. MultitaskNormal is a joint
// Gaussian over an n×t grid of (observation, task) outputs. It holds a Normal
// over the flattened n·t vector and reshapes on the way in and out:
//
//	interleaved (default)  flat index = obs·t + task   (tasks contiguous)
//	task-major             flat index = task·n + obs   (observations contiguous)
//
// Every accessor of MultitaskNormal (Mean, Variance, BaseSamples, RSample,
// LogProb) goes through the same flatten/unflatten pair, so samples drawn
// with BaseSamples feed back into RSample unchanged and LogProb does not
// depend on the layout chosen for the same joint distribution.
//
// FromIndependent builds a task-major MultitaskNormal from t independent
// Normals by composing their covariances block-diagonally; no dense
// (n·t)×(n·t) matrix is ever factorised.
//
// Distributions are immutable after construction and safe for concurrent
// reads; sampling draws from the configured rand.Source, which callers must
// not share across goroutines unless it is itself safe for concurrent use.
package distributions
