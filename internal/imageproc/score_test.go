package imageproc

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func mapOf(t *testing.T, img image.Image) *BrightnessMap {
	t.Helper()
	m, err := NewBrightnessMap(img)
	require.NoError(t, err)
	return m
}

func TestRegionVariance_Uniform(t *testing.T) {
	for _, c := range []color.NRGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}, {R: 17, G: 200, B: 3, A: 255}} {
		m := mapOf(t, solidImage(64, 48, c))
		require.InDelta(t, 0.0, RegionVariance(m, image.Rect(3, 5, 40, 30)), 1e-9)
	}
}

func TestRegionVariance_HalfAndHalf(t *testing.T) {
	img := solidImage(8, 2, color.NRGBA{A: 255})
	paint(img, image.Rect(4, 0, 8, 2), color.NRGBA{R: 100, G: 100, B: 100, A: 255})

	// samples at x = 0,2,4,6 -> 0,0,100,100
	require.InDelta(t, 2500.0, RegionVariance(mapOf(t, img), image.Rect(0, 0, 8, 2)), 1e-6)
}

// Stripes one pixel wide fall between samples and read as flat.
func TestRegionVariance_SkipsOddPixels(t *testing.T) {
	img := solidImage(16, 16, color.NRGBA{A: 255})
	for x := 1; x < 16; x += 2 {
		paint(img, image.Rect(x, 0, x+1, 16), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}

	require.InDelta(t, 0.0, RegionVariance(mapOf(t, img), image.Rect(0, 0, 16, 16)), 1e-9)
}

func TestRegionVariance_Degenerate(t *testing.T) {
	m := mapOf(t, solidImage(10, 10, color.NRGBA{A: 255}))

	require.Equal(t, math.MaxFloat64, RegionVariance(m, image.Rect(5, 5, 5, 9)))
	require.Equal(t, math.MaxFloat64, RegionVariance(m, image.Rect(20, 20, 30, 30)))
	require.Equal(t, math.MaxFloat64, RegionVariance(nil, image.Rect(0, 0, 1, 1)))
	require.InDelta(t, 0.0, RegionVariance(m, image.Rect(9, 9, 10, 10)), 1e-9)
}

func TestRegionVariance_MatchesPopulationVariance(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, 50, 40))
	for i := range img.Pix {
		img.Pix[i] = uint8(rnd.Intn(256))
	}
	m := mapOf(t, img)
	r := image.Rect(5, 3, 46, 37)

	var samples []float64
	for y := r.Min.Y; y < r.Max.Y; y += 2 {
		for x := r.Min.X; x < r.Max.X; x += 2 {
			samples = append(samples, m.At(x, y))
		}
	}
	_, sampleVar := stat.MeanVariance(samples, nil)
	n := float64(len(samples))
	popVar := sampleVar * (n - 1) / n

	require.InEpsilon(t, popVar, RegionVariance(m, r), 1e-9)
}
