// SPDX-License-Identifier: MIT

package inducing

import (
	"fmt"
	"math"

	"github.com/katalvlaran/gpdist/linop"
	"github.com/katalvlaran/gpdist/tensor"
)

// Kernel is a stationary or non-stationary covariance function on scalars.
type Kernel interface {
	Covariance(x, y float64) float64
}

// RBF is the squared-exponential kernel σ²·exp(−(x−y)²/(2ℓ²)).
type RBF struct {
	LengthScale float64
	Variance    float64
}

// Validate rejects a non-positive or non-finite length scale or variance.
func (k RBF) Validate() error {
	for _, p := range []struct {
		name string
		v    float64
	}{{"LengthScale", k.LengthScale}, {"Variance", k.Variance}} {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("RBF: %s=%v must be positive and finite: %w", p.name, p.v, ErrBadGrid)
		}
	}

	return nil
}

// Covariance implements Kernel.
func (k RBF) Covariance(x, y float64) float64 {
	d := (x - y) / k.LengthScale

	return k.Variance * math.Exp(-0.5*d*d)
}

// gram evaluates k on every pair of points as an m×m operator.
func gram(k Kernel, points []float64) (*linop.Dense, error) {
	m := len(points)
	buf := make([]float64, m*m)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			v := k.Covariance(points[i], points[j])
			buf[i*m+j] = v
			buf[j*m+i] = v
		}
	}
	t, err := tensor.FromSlice(buf, m, m)
	if err != nil {
		return nil, fmt.Errorf("gram: %w", err)
	}
	if err := tensor.ValidateFinite(t); err != nil {
		return nil, fmt.Errorf("gram: %v: %w", err, ErrBadGrid)
	}

	return linop.Wrap(t)
}
