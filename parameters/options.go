// SPDX-License-Identifier: MIT

package parameters

import "golang.org/x/exp/rand"

// DefaultNumSamples is the number of draws per parameter in Sample.
const DefaultNumSamples = 20

const (
	panicNumSamples = "parameters: WithNumSamples: k must be >= 1"
	panicNilSource  = "parameters: WithSource: source must not be nil"
)

// MCOption configures an MCGroup.
type MCOption func(*mcOptions)

type mcOptions struct {
	numSamples int
	src        rand.Source // nil ⇒ package-level generator of x/exp/rand
}

// WithNumSamples sets the draws per parameter. Panics if k < 1.
func WithNumSamples(k int) MCOption {
	if k < 1 {
		panic(panicNumSamples)
	}

	return func(o *mcOptions) { o.numSamples = k }
}

// WithSource fixes the random source. Panics if src is nil.
func WithSource(src rand.Source) MCOption {
	if src == nil {
		panic(panicNilSource)
	}

	return func(o *mcOptions) { o.src = src }
}

func gatherMCOptions(opts ...MCOption) mcOptions {
	o := mcOptions{numSamples: DefaultNumSamples}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
