package imageproc

import (
	"fmt"
	"image"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
)

// Position names one of the nine candidate slots.
type Position int

const (
	TopLeft Position = iota
	TopCenter
	TopRight
	MiddleLeft
	Center
	MiddleRight
	BottomLeft
	BottomCenter
	BottomRight
)

var positionNames = [...]string{
	"top-left", "top-center", "top-right",
	"middle-left", "center", "middle-right",
	"bottom-left", "bottom-center", "bottom-right",
}

func (p Position) String() string {
	if p < TopLeft || p > BottomRight {
		return "unknown"
	}
	return positionNames[p]
}

// Watermark size limits relative to the target image.
const (
	shrinkTrigger = 0.5
	shrinkTarget  = 0.3
)

// Candidate is a possible top-left corner of the watermark.
type Candidate struct {
	Position Position
	X, Y     int
	W, H     int
}

// Rect returns the watermark box the candidate would cover.
func (c Candidate) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)
}

// Placement is the outcome of Place.
type Placement struct {
	Candidate
	Score    float64
	Fallback bool
	// Watermark is the image to draw: the original or a private shrunk copy.
	Watermark image.Image
}

// Point returns the top-left corner of the placement.
func (p Placement) Point() image.Point {
	return image.Pt(p.X, p.Y)
}

// Candidates enumerates the 3x3 grid in tie-break order: rows top to bottom,
// columns left to right. The near margin is a tenth of the image side and the
// far slot keeps the same margin to the opposite edge.
func Candidates(imgW, imgH, wmW, wmH int) [9]Candidate {
	mx, my := imgW/10, imgH/10
	xs := [3]int{mx, (imgW - wmW) / 2, imgW - wmW - mx}
	ys := [3]int{my, (imgH - wmH) / 2, imgH - wmH - my}

	var out [9]Candidate
	for row := range 3 {
		for col := range 3 {
			i := row*3 + col
			out[i] = Candidate{Position: Position(i), X: xs[col], Y: ys[row], W: wmW, H: wmH}
		}
	}
	return out
}

// BestPosition scores every in-bounds candidate and returns the first one with
// the lowest variance. When nothing fits, the bottom-right candidate is
// returned with fallback set.
func BestPosition(m *BrightnessMap, wmW, wmH int) (best Candidate, score float64, fallback bool) {
	bounds := m.Bounds()
	cands := Candidates(m.Width, m.Height, wmW, wmH)

	found := false
	for _, c := range cands {
		if !c.Rect().In(bounds) {
			continue
		}
		s := RegionVariance(m, c.Rect())
		if !found || s < score {
			best, score, found = c, s, true
		}
	}
	if !found {
		return cands[BottomRight], 0, true
	}
	return best, score, false
}

// FitWatermark returns wm unchanged unless it takes more than half of either
// target side; then a copy shrunk to at most 30% of each side is returned.
func FitWatermark(target, wm image.Image) (image.Image, error) {
	if target == nil || wm == nil {
		return nil, fmt.Errorf("nil image provided to FitWatermark: %w", model.ErrInvalidGeometry)
	}
	tw, th := target.Bounds().Dx(), target.Bounds().Dy()
	ww, wh := wm.Bounds().Dx(), wm.Bounds().Dy()

	if float64(ww) <= float64(tw)*shrinkTrigger && float64(wh) <= float64(th)*shrinkTrigger {
		return wm, nil
	}
	return Resize(wm, max(int(float64(tw)*shrinkTarget), 1), max(int(float64(th)*shrinkTarget), 1))
}

// Place picks where wm goes on target, shrinking wm first when it is too big.
func Place(target, wm image.Image) (Placement, error) {
	fitted, err := FitWatermark(target, wm)
	if err != nil {
		return Placement{}, err
	}

	bm, err := NewBrightnessMap(target)
	if err != nil {
		return Placement{}, fmt.Errorf("brightness map: %w", err)
	}

	c, score, fallback := BestPosition(bm, fitted.Bounds().Dx(), fitted.Bounds().Dy())
	return Placement{Candidate: c, Score: score, Fallback: fallback, Watermark: fitted}, nil
}
