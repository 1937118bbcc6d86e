//go:build !gocv

package utils

import "image"

// SmoothingBackend names the filter implementation linked into the binary.
const SmoothingBackend = "pure-go"

func smooth(img *image.NRGBA, cfg PreprocessConfig) *image.NRGBA {
	return smoothPure(img, cfg)
}
