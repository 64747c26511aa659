// SPDX-License-Identifier: MIT

package inducing

import "runtime"

// Defaults.
const (
	// DefaultExactInference selects the variational path.
	DefaultExactInference = false

	// MinGridSize is the smallest grid: two padding points on each side plus
	// two interior points.
	MinGridSize = 6
)

const panicWorkers = "inducing: WithWorkers: n must be >= 1"

// GridOption configures an AdditiveGrid.
type GridOption func(*gridOptions)

type gridOptions struct {
	exact   bool
	workers int
}

// WithExactInference selects exact GP inference on the grid instead of the
// variational approximation.
func WithExactInference() GridOption {
	return func(o *gridOptions) { o.exact = true }
}

// WithWorkers bounds the number of components interpolated concurrently.
// Panics if n < 1.
func WithWorkers(n int) GridOption {
	if n < 1 {
		panic(panicWorkers)
	}

	return func(o *gridOptions) { o.workers = n }
}

func gatherGridOptions(opts ...GridOption) gridOptions {
	o := gridOptions{exact: DefaultExactInference, workers: runtime.GOMAXPROCS(0)}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
