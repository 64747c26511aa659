// SPDX-License-Identifier: MIT

// Package gpdist collects the distribution utilities behind multitask
// Gaussian-process models.
//
// The module is organised in layers:
//
//	tensor/        dense row-major float64 tensors with placement tags
//	linop/         lazy covariance operators (dense, block-diagonal, cat, interpolated)
//	distributions/ Normal and MultitaskNormal with sampling, LogProb and KL
//	inducing/      additive grid inducing-point module with cubic interpolation
//	parameters/    Monte-Carlo parameter groups sampled from univariate priors
//	envconfig/     GPDIST_* environment settings
//	cmd/mtnormal/  CLI for inspecting YAML-described models
//
// Quick example, two independent tasks over three observations:
//
//	mt, err := distributions.FromIndependent([]*distributions.Normal{a, b})
//	if err != nil {
//		return err
//	}
//	x, _ := mt.Sample([]int{10}) // shape (10, 3, 2)
//	lp, _ := mt.LogProb(x)       // shape (10)
package gpdist
