package inducing

// HasTrainInterp exposes whether a training interpolation is cached.
func HasTrainInterp(g *AdditiveGrid) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.trainInterp != nil
}

// CubicWeight exposes the interpolation kernel.
var CubicWeight = cubicWeight
