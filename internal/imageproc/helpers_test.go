package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func encodedImage(t *testing.T, w, h int, format imaging.Format) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	err := imaging.Encode(&buf, solidImage(w, h, color.NRGBA{R: 100, G: 100, B: 200, A: 255}), format)
	require.NoError(t, err)

	return bytes.NewReader(buf.Bytes())
}

// paint fills r on img with c.
func paint(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}
