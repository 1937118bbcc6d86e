//go:build !gocv

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmooth_PureBackend(t *testing.T) {
	assert.Equal(t, "pure-go", SmoothingBackend)

	src := halfImage(20, 10)
	cfg := DefaultPreprocessConfig()
	want := BilateralFilter(smoothPure(src, PreprocessConfig{BlurSigma: cfg.BlurSigma}),
		cfg.BilateralDiameter, cfg.BilateralSigmaColor, cfg.BilateralSigmaSpace)
	assert.Equal(t, want.Pix, NewPreprocessor(cfg).Preprocess(src).Pix)
}
