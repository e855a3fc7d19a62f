package imageproc

import (
	"fmt"
	"image"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/disintegration/imaging"
)

// Resize scales src down to fit inside maxW x maxH keeping the aspect ratio.
// Images that already fit are copied as is: Resize never upscales.
func Resize(src image.Image, maxW, maxH int) (*image.NRGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("nil image provided to Resize: %w", model.ErrInvalidGeometry)
	}
	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("bounding box %dx%d: %w", maxW, maxH, model.ErrInvalidGeometry)
	}

	srcW, srcH := src.Bounds().Dx(), src.Bounds().Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("source image %dx%d: %w", srcW, srcH, model.ErrInvalidGeometry)
	}

	if srcW <= maxW && srcH <= maxH {
		return imaging.Clone(src), nil
	}

	w, h := FitSize(srcW, srcH, maxW, maxH)
	return imaging.Resize(src, w, h, imaging.CatmullRom), nil
}

// FitSize returns floor(src*ratio) for ratio = min(maxW/srcW, maxH/srcH).
// Integer arithmetic keeps the limiting side exactly on its max.
func FitSize(srcW, srcH, maxW, maxH int) (int, int) {
	var w, h int
	if maxW*srcH <= maxH*srcW {
		w, h = maxW, srcH*maxW/srcW
	} else {
		w, h = srcW*maxH/srcH, maxH
	}
	return max(w, 1), max(h, 1)
}
