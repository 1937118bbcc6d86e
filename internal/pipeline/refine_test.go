package pipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/snscan/internal/ocr"
)

// gradient gives every pixel a distinct colour so placement can be checked.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func TestRefine_CanvasDimensionsAndPlacement(t *testing.T) {
	img := gradient(200, 120)
	ref := NewRefiner(DefaultRefinerConfig())

	boxes := []ocr.Box{
		{X: 50, Y: 40, W: 60, H: 12},
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 190, Y: 110, W: 10, H: 10},
		{X: 0, Y: 0, W: 200, H: 120},
		{X: 3, Y: 117, W: 1, H: 1},
	}
	for _, box := range boxes {
		reg, err := ref.Refine(img, box)
		require.NoError(t, err, "%+v", box)

		cw, ch := reg.Crop.Bounds().Dx(), reg.Crop.Bounds().Dy()
		require.Positive(t, cw)
		require.Positive(t, ch)
		assert.Equal(t, cw+2*32, reg.Canvas.Bounds().Dx())
		assert.Equal(t, ch+2*32, reg.Canvas.Bounds().Dy())
		assert.True(t, reg.Bounds.In(img.Bounds()))

		for y := range ch {
			for x := range cw {
				require.Equal(t, reg.Crop.NRGBAAt(x, y), reg.Canvas.NRGBAAt(x+32, y+32))
				require.Equal(t, img.NRGBAAt(reg.Bounds.Min.X+x, reg.Bounds.Min.Y+y), reg.Crop.NRGBAAt(x, y))
			}
		}
		corner := reg.Crop.NRGBAAt(0, 0)
		assert.Equal(t, corner, reg.Canvas.NRGBAAt(0, 0))
		assert.Equal(t, corner, reg.Canvas.NRGBAAt(reg.Canvas.Bounds().Dx()-1, reg.Canvas.Bounds().Dy()-1))
	}
}

func TestRefine_InsetExpandsBox(t *testing.T) {
	img := gradient(100, 100)
	reg, err := NewRefiner(DefaultRefinerConfig()).Refine(img, ocr.Box{X: 20, Y: 30, W: 10, H: 5})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(16, 26, 34, 39), reg.Bounds)
}

func TestRefine_ClampsAtEdges(t *testing.T) {
	img := gradient(100, 100)
	reg, err := NewRefiner(RefinerConfig{Inset: 10, Margin: 5}).Refine(img, ocr.Box{X: 95, Y: -3, W: 20, H: 8})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(85, 0, 100, 15), reg.Bounds)
	assert.Equal(t, image.Rect(0, 0, 15+10, 15+10), reg.Canvas.Bounds())
}

func TestRefine_NonZeroOrigin(t *testing.T) {
	img := gradient(100, 100).SubImage(image.Rect(10, 10, 60, 60))
	reg, err := NewRefiner(RefinerConfig{}).Refine(img, ocr.Box{X: 0, Y: 0, W: 5, H: 5})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 10, 15, 15), reg.Bounds)
	assert.Equal(t, color.NRGBA{R: 10, G: 10, B: 0, A: 255}, reg.Canvas.NRGBAAt(0, 0))
}

func TestRefine_Degenerate(t *testing.T) {
	img := gradient(50, 50)
	ref := NewRefiner(DefaultRefinerConfig())

	for _, box := range []ocr.Box{
		{X: 500, Y: 500, W: 10, H: 10},
		{X: 10, Y: 10, W: 0, H: 10},
		{X: 10, Y: 10, W: 5, H: -2},
		{X: -100, Y: 0, W: 20, H: 20},
	} {
		_, err := ref.Refine(img, box)
		require.ErrorIs(t, err, ErrDegenerateRegion, "%+v", box)
	}
	_, err := ref.Refine(nil, ocr.Box{W: 1, H: 1})
	require.ErrorIs(t, err, ErrDegenerateRegion)
}

func TestNewRefiner_NegativeValues(t *testing.T) {
	ref := NewRefiner(RefinerConfig{Inset: -1, Margin: -5})
	assert.Equal(t, RefinerConfig{}, ref.Config())
}
