package imageproc

import (
	"image"
	"math"
)

// sampleStep is the row/column stride of RegionVariance. Every other pixel on
// both axes is enough to rank candidate regions.
const sampleStep = 2

// RegionVariance returns the luminance variance E[x²]-E[x]² over r, sampled
// every sampleStep pixels. r is clipped to the map. A region without samples
// scores math.MaxFloat64 so it never wins.
func RegionVariance(m *BrightnessMap, r image.Rectangle) float64 {
	if m == nil {
		return math.MaxFloat64
	}
	r = r.Intersect(m.Bounds())

	var sum, sumSq float64
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y += sampleStep {
		row := m.values[y*m.Width:]
		for x := r.Min.X; x < r.Max.X; x += sampleStep {
			v := row[x]
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return math.MaxFloat64
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		// cancellation noise on flat regions
		return 0
	}
	return variance
}
