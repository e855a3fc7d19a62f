// Package imageproc provides operations for images: aspect-preserving resize,
// luminance analysis, watermark placement and compositing, plus the codec glue.
package imageproc

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/disintegration/imaging"
)

// Composite blends wm over src at pos: out = src*(1-opacity) + wm*opacity for
// opaque watermark pixels. Pixels outside the watermark box are copied from src.
func Composite(src, wm image.Image, pos image.Point, opacity float64) (*image.NRGBA, error) {
	if src == nil {
		return nil, errors.New("nil base image provided")
	}
	if wm == nil {
		return nil, errors.New("nil watermark image provided")
	}
	if math.IsNaN(opacity) || opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("opacity %v: %w", opacity, model.ErrInvalidOpacity)
	}

	return imaging.Overlay(src, wm, pos, opacity), nil
}

// Watermark places wm on base at the calmest candidate slot and blends it.
func Watermark(base, wm image.Image, opacity float64) (*image.NRGBA, Placement, error) {
	pl, err := Place(base, wm)
	if err != nil {
		return nil, Placement{}, fmt.Errorf("place watermark: %w", err)
	}

	result, err := Composite(base, pl.Watermark, pl.Point(), opacity)
	if err != nil {
		return nil, Placement{}, fmt.Errorf("composite watermark: %w", err)
	}
	return result, pl, nil
}
