package imageproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/anthonynsimon/bild/noise"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func TestCandidates(t *testing.T) {
	got := Candidates(1000, 1000, 100, 100)

	want := []struct {
		pos  Position
		x, y int
	}{
		{TopLeft, 100, 100}, {TopCenter, 450, 100}, {TopRight, 800, 100},
		{MiddleLeft, 100, 450}, {Center, 450, 450}, {MiddleRight, 800, 450},
		{BottomLeft, 100, 800}, {BottomCenter, 450, 800}, {BottomRight, 800, 800},
	}
	for i, w := range want {
		require.Equal(t, w.pos, got[i].Position, "slot %d", i)
		require.Equal(t, w.x, got[i].X, "slot %s", w.pos)
		require.Equal(t, w.y, got[i].Y, "slot %s", w.pos)
		require.Equal(t, 100, got[i].W)
		require.Equal(t, 100, got[i].H)
	}
	require.Equal(t, "bottom-right", BottomRight.String())
	require.Equal(t, "unknown", Position(42).String())
}

func TestBestPosition_SolidBlackPicksTopLeft(t *testing.T) {
	m := mapOf(t, solidImage(1000, 1000, color.NRGBA{A: 255}))

	c, score, fallback := BestPosition(m, 100, 100)
	require.False(t, fallback)
	require.Equal(t, TopLeft, c.Position)
	require.Equal(t, image.Pt(100, 100), image.Pt(c.X, c.Y))
	require.InDelta(t, 0.0, score, 1e-9)
}

func TestBestPosition_PicksCalmRegion(t *testing.T) {
	busy := imaging.Clone(noise.Generate(400, 300, &noise.Options{NoiseFn: noise.Uniform, Monochrome: true}))
	calm := Candidates(400, 300, 60, 40)[MiddleRight]
	paint(busy, calm.Rect(), color.NRGBA{R: 90, G: 90, B: 90, A: 255})

	c, score, fallback := BestPosition(mapOf(t, busy), 60, 40)
	require.False(t, fallback)
	require.Equal(t, MiddleRight, c.Position)
	require.InDelta(t, 0.0, score, 1e-9)
}

func TestBestPosition_TieBreakFollowsEnumerationOrder(t *testing.T) {
	busy := imaging.Clone(noise.Generate(400, 300, &noise.Options{NoiseFn: noise.Uniform, Monochrome: true}))
	cands := Candidates(400, 300, 60, 40)
	// two equally flat slots, bottom-right is enumerated last
	paint(busy, cands[BottomRight].Rect(), color.NRGBA{R: 30, G: 30, B: 30, A: 255})
	paint(busy, cands[TopCenter].Rect(), color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	c, _, _ := BestPosition(mapOf(t, busy), 60, 40)
	require.Equal(t, TopCenter, c.Position)
}

func TestBestPosition_NeverOutOfBounds(t *testing.T) {
	sizes := [][4]int{{100, 100, 10, 10}, {100, 100, 85, 20}, {50, 300, 45, 45}, {640, 480, 300, 100}}

	for _, s := range sizes {
		m := mapOf(t, solidImage(s[0], s[1], color.NRGBA{R: 5, A: 255}))
		c, _, fallback := BestPosition(m, s[2], s[3])
		if fallback {
			continue
		}
		require.True(t, c.Rect().In(m.Bounds()), "%v placed at %v", s, c.Rect())
	}
}

func TestBestPosition_FallbackWhenNothingFits(t *testing.T) {
	m := mapOf(t, solidImage(100, 80, color.NRGBA{A: 255}))

	c, _, fallback := BestPosition(m, 120, 90)
	require.True(t, fallback)
	require.Equal(t, BottomRight, c.Position)
	want := Candidates(100, 80, 120, 90)[BottomRight]
	require.Equal(t, want, c)
}

func TestFitWatermark(t *testing.T) {
	target := solidImage(1000, 800, color.NRGBA{A: 255})

	tests := []struct {
		name         string
		wmW, wmH     int
		wantW, wantH int
		shrunk       bool
	}{
		{"small stays", 100, 50, 100, 50, false},
		{"exactly half stays", 500, 400, 500, 400, false},
		{"too wide", 600, 100, 300, 50, true},
		{"too tall", 100, 500, 48, 240, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wm := solidImage(tt.wmW, tt.wmH, color.NRGBA{R: 255, A: 255})

			got, err := FitWatermark(target, wm)
			require.NoError(t, err)
			require.Equal(t, tt.wantW, got.Bounds().Dx())
			require.Equal(t, tt.wantH, got.Bounds().Dy())
			if tt.shrunk {
				require.LessOrEqual(t, got.Bounds().Dx(), 300)
				require.LessOrEqual(t, got.Bounds().Dy(), 240)
				// the shared watermark is untouched
				require.Equal(t, tt.wmW, wm.Bounds().Dx())
			}
		})
	}

	_, err := FitWatermark(nil, target)
	require.Error(t, err)
}

func TestPlace(t *testing.T) {
	target := solidImage(1000, 1000, color.NRGBA{A: 255})
	wm := solidImage(100, 100, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	pl, err := Place(target, wm)
	require.NoError(t, err)
	require.Equal(t, image.Pt(100, 100), pl.Point())
	require.False(t, pl.Fallback)
	require.Same(t, wm, pl.Watermark.(*image.NRGBA))

	big := solidImage(900, 900, color.NRGBA{R: 255, A: 255})
	pl, err = Place(target, big)
	require.NoError(t, err)
	require.Equal(t, 300, pl.W)
	require.Equal(t, 300, pl.H)
	require.True(t, pl.Rect().In(target.Bounds()))
}
