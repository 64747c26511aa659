// SPDX-License-Identifier: MIT

// Package parameters groups named scalar parameters that carry prior
// distributions and are optimised by Monte-Carlo sampling rather than by
// gradient descent.
//
// An MCGroup owns no storage for the values themselves: every Param points at
// a float64 held by the caller, and Sample writes the Monte-Carlo estimate
// (the mean of the drawn samples) back through that pointer.
//
// Priors are sampled by inverse-CDF: a uniform draw from the group's source is
// mapped through Prior.Quantile. Every continuous distribution in
// gonum.org/v1/gonum/stat/distuv satisfies Prior.
package parameters
