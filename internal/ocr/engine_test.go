package ocr

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeString(t *testing.T) {
	assert.Equal(t, "sparse", ModeSparse.String())
	assert.Equal(t, "single-line", ModeSingleLine.String())
	assert.Equal(t, "mode(9)", Mode(9).String())
	assert.Equal(t, 11, PageSegMode(ModeSparse))
	assert.Equal(t, 7, PageSegMode(ModeSingleLine))
}

func TestBoxRectAndUnion(t *testing.T) {
	b := Box{X: 10, Y: 5, W: 20, H: 8}
	assert.Equal(t, image.Rect(11, 7, 31, 15), b.Rect(image.Pt(1, 2)))

	u := b.Union(Box{X: 40, Y: 0, W: 5, H: 5})
	assert.Equal(t, Box{X: 10, Y: 0, W: 35, H: 13}, u)
	assert.Equal(t, b, Box{}.Union(b))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0, clampConfidence(-1))
	assert.Equal(t, 100, clampConfidence(140))
	assert.Equal(t, 97, clampConfidence(96.6))
}

func TestOptionsLanguages(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "eng+kor", opts.languages(ModeSparse))
	assert.Equal(t, "eng", opts.languages(ModeSingleLine))

	opts.LineLanguages = nil
	assert.Equal(t, "eng+kor", opts.languages(ModeSingleLine))
	assert.Equal(t, "eng", Options{}.languages(ModeSparse))
}
