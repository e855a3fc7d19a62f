package imageproc

import (
	"fmt"
	"image"
	"image/color"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/disintegration/imaging"
)

// BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Layout describes the channel order of a packed pixel buffer.
type Layout int

const (
	LayoutRGBA Layout = iota
	LayoutBGRA
	LayoutRGB
	LayoutBGR
)

// BytesPerPixel returns the pixel size of the layout.
func (l Layout) BytesPerPixel() int {
	switch l {
	case LayoutRGB, LayoutBGR:
		return 3
	default:
		return 4
	}
}

// offsets returns the byte offsets of R, G and B within one pixel.
func (l Layout) offsets() (r, g, b int) {
	switch l {
	case LayoutBGRA, LayoutBGR:
		return 2, 1, 0
	default:
		return 0, 1, 2
	}
}

// PixelView is a read-only window over a borrowed packed pixel buffer.
// Rows start every Stride bytes; bytes past Width*BytesPerPixel are padding.
// The owner must not write to Pix while the view is in use.
type PixelView struct {
	pix    []byte
	width  int
	height int
	stride int
	layout Layout
}

// NewPixelView validates the geometry of pix before handing out a view.
func NewPixelView(pix []byte, width, height, stride int, layout Layout) (PixelView, error) {
	if width <= 0 || height <= 0 {
		return PixelView{}, fmt.Errorf("pixel view %dx%d: %w", width, height, model.ErrInvalidGeometry)
	}
	rowBytes := width * layout.BytesPerPixel()
	if stride < rowBytes {
		return PixelView{}, fmt.Errorf("stride %d < row %d: %w", stride, rowBytes, model.ErrInvalidStride)
	}
	if need := (height-1)*stride + rowBytes; len(pix) < need {
		return PixelView{}, fmt.Errorf("buffer has %d bytes, need %d: %w", len(pix), need, model.ErrInvalidGeometry)
	}
	return PixelView{pix: pix, width: width, height: height, stride: stride, layout: layout}, nil
}

// BrightnessMap is a per-pixel luminance grid, row-major. It is never mutated
// after construction.
type BrightnessMap struct {
	Width  int
	Height int
	values []float64
}

// At returns the luminance at (x, y). Coordinates are relative to the map origin.
func (m *BrightnessMap) At(x, y int) float64 {
	return m.values[y*m.Width+x]
}

// Bounds returns the map rectangle anchored at (0,0).
func (m *BrightnessMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func newMap(w, h int) *BrightnessMap {
	return &BrightnessMap{Width: w, Height: h, values: make([]float64, w*h)}
}

// BrightnessFromView converts a raw pixel view into a luminance grid.
func BrightnessFromView(v PixelView) *BrightnessMap {
	m := newMap(v.width, v.height)
	bpp := v.layout.BytesPerPixel()
	ro, gofs, bo := v.layout.offsets()

	for y := 0; y < v.height; y++ {
		off := y * v.stride
		row := m.values[y*v.width : (y+1)*v.width]
		for x := range row {
			row[x] = lumaR*float64(v.pix[off+ro]) + lumaG*float64(v.pix[off+gofs]) + lumaB*float64(v.pix[off+bo])
			off += bpp
		}
	}
	return m
}

// NewBrightnessMap builds the luminance grid of img from straight (non-premultiplied)
// color. Common decoder outputs are read straight from their pixel buffers; other
// types, and *image.RGBA with any translucent pixel, are converted once.
func NewBrightnessMap(img image.Image) (*BrightnessMap, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image provided to NewBrightnessMap: %w", model.ErrInvalidGeometry)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image %dx%d: %w", b.Dx(), b.Dy(), model.ErrInvalidGeometry)
	}

	switch src := img.(type) {
	case *image.NRGBA:
		return fromPacked(src.Pix[src.PixOffset(b.Min.X, b.Min.Y):], b, src.Stride)
	case *image.RGBA:
		// premultiplied channels equal straight ones only at full alpha
		if src.Opaque() {
			return fromPacked(src.Pix[src.PixOffset(b.Min.X, b.Min.Y):], b, src.Stride)
		}
	case *image.YCbCr:
		return fromYCbCr(src), nil
	case *image.Gray:
		return fromGray(src), nil
	}

	nrgba := imaging.Clone(img)
	return fromPacked(nrgba.Pix, nrgba.Bounds(), nrgba.Stride)
}

func fromPacked(pix []byte, b image.Rectangle, stride int) (*BrightnessMap, error) {
	v, err := NewPixelView(pix, b.Dx(), b.Dy(), stride, LayoutRGBA)
	if err != nil {
		return nil, err
	}
	return BrightnessFromView(v), nil
}

func fromYCbCr(src *image.YCbCr) *BrightnessMap {
	b := src.Bounds()
	m := newMap(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := m.values[(y-b.Min.Y)*m.Width:]
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := color.YCbCrToRGB(src.Y[src.YOffset(x, y)], src.Cb[src.COffset(x, y)], src.Cr[src.COffset(x, y)])
			row[x-b.Min.X] = lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(bl)
		}
	}
	return m
}

func fromGray(src *image.Gray) *BrightnessMap {
	b := src.Bounds()
	m := newMap(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := src.PixOffset(b.Min.X, y)
		row := m.values[(y-b.Min.Y)*m.Width : (y-b.Min.Y+1)*m.Width]
		for x := range row {
			// weights sum to 1, so gray luminance is the gray level itself
			row[x] = float64(src.Pix[off+x])
		}
	}
	return m
}
