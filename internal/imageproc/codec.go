package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/disintegration/imaging"
)

// Decode reads one image. Any failure wraps model.ErrDecode.
func Decode(r io.Reader) (image.Image, error) {
	if r == nil {
		return nil, fmt.Errorf("nil reader: %w", model.ErrDecode)
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if errors.Is(err, image.ErrFormat) {
		return nil, errors.Join(model.ErrDecode, model.ErrUnsupportedFormat, err)
	}
	if err != nil {
		return nil, errors.Join(model.ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty image: %w", model.ErrDecode)
	}
	return img, nil
}

// FormatFromPath picks the output format from the destination extension;
// anything unknown is written as JPEG.
func FormatFromPath(path string) imaging.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imaging.PNG
	case ".bmp":
		return imaging.BMP
	case ".gif":
		return imaging.GIF
	default:
		return imaging.JPEG
	}
}

// Encode serializes img and returns the buffer together with its size.
func Encode(img image.Image, format imaging.Format) (io.Reader, int64, error) {
	if img == nil {
		return nil, 0, fmt.Errorf("nil image: %w", model.ErrEncode)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, 0, errors.Join(model.ErrEncode, err)
	}
	return &buf, int64(buf.Len()), nil
}
