// SPDX-License-Identifier: MIT

package parameters

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// Prior is a univariate distribution that can be evaluated and inverted.
type Prior interface {
	LogProb(x float64) float64
	Quantile(p float64) float64
}

// Param binds a caller-owned value to its prior.
type Param struct {
	Value *float64
	Prior Prior
}

// MCGroup is a set of named parameters optimised by Monte-Carlo sampling.
type MCGroup struct {
	mu         sync.Mutex
	names      []string
	params     map[string]Param
	samples    map[string][]float64
	numSamples int
	uniform    func() float64
}

// NewMCGroup validates params and builds a group.
// Errors:
//   - ErrInvalidParam when any parameter lacks a value pointer or a prior.
func NewMCGroup(params map[string]Param, opts ...MCOption) (*MCGroup, error) {
	names := make([]string, 0, len(params))
	for name, p := range params {
		if p.Value == nil || p.Prior == nil {
			return nil, fmt.Errorf("NewMCGroup: %q: %w", name, ErrInvalidParam)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	o := gatherMCOptions(opts...)
	uniform := rand.Float64
	if o.src != nil {
		uniform = rand.New(o.src).Float64
	}
	g := &MCGroup{
		names:      names,
		params:     make(map[string]Param, len(params)),
		samples:    make(map[string][]float64, len(params)),
		numSamples: o.numSamples,
		uniform:    uniform,
	}
	for name, p := range params {
		g.params[name] = p
	}

	return g, nil
}

// Names returns the parameter names in ascending order.
func (g *MCGroup) Names() []string { return append([]string(nil), g.names...) }

// NumSamples returns the number of draws per parameter.
func (g *MCGroup) NumSamples() int { return g.numSamples }

// Sample draws NumSamples values for every parameter from its prior, records
// them, and sets each value to the mean of its draws.
// Parameters are visited in name order, so a seeded source reproduces results.
func (g *MCGroup) Sample() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, name := range g.names {
		p := g.params[name]
		draws := make([]float64, g.numSamples)
		for i := range draws {
			draws[i] = p.Prior.Quantile(g.openUnit())
		}
		g.samples[name] = draws
		*p.Value = stat.Mean(draws, nil)
	}
}

// openUnit returns a uniform draw in (0, 1).
func (g *MCGroup) openUnit() float64 {
	for {
		if u := g.uniform(); u > 0 {
			return u
		}
	}
}

// Samples returns a copy of the last draws for name (empty before Sample).
func (g *MCGroup) Samples(name string) ([]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.params[name]; !ok {
		return nil, fmt.Errorf("Samples: %q: %w", name, ErrUnknownParam)
	}

	return append([]float64{}, g.samples[name]...), nil
}

// Value returns the current value of name.
func (g *MCGroup) Value(name string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.params[name]
	if !ok {
		return 0, fmt.Errorf("Value: %q: %w", name, ErrUnknownParam)
	}

	return *p.Value, nil
}

// LogPrior sums every prior's log-density at the current values.
func (g *MCGroup) LogPrior() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0.0
	for _, name := range g.names {
		p := g.params[name]
		total += p.Prior.LogProb(*p.Value)
	}

	return total
}

// HasConverged always reports true: a Monte-Carlo group is resampled, not
// iterated to a fixed point, so there is nothing to check against loss.
func (g *MCGroup) HasConverged(loss func() float64) bool { return true }
