//go:build gocv

package utils

import (
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// SmoothingBackend names the filter implementation linked into the binary.
const SmoothingBackend = "gocv"

// smooth runs the gaussian and bilateral filters through OpenCV. If the image
// cannot be moved in or out of a Mat the pure-Go chain is used.
func smooth(img *image.NRGBA, cfg PreprocessConfig) *image.NRGBA {
	if !cfg.blurEnabled() && !cfg.bilateralEnabled() {
		return img
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return smoothPure(img, cfg)
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	filtered := gocv.NewMat()
	defer filtered.Close()

	cur := src
	if cfg.blurEnabled() {
		// A zero kernel size lets OpenCV derive it from sigma.
		gocv.GaussianBlur(cur, &blurred, image.Point{}, cfg.BlurSigma, cfg.BlurSigma, gocv.BorderDefault)
		cur = blurred
	}
	if cfg.bilateralEnabled() {
		gocv.BilateralFilter(cur, &filtered, cfg.BilateralDiameter, cfg.BilateralSigmaColor, cfg.BilateralSigmaSpace)
		cur = filtered
	}

	res, err := cur.ToImage()
	if err != nil {
		return smoothPure(img, cfg)
	}
	out := imaging.Clone(res)
	copyAlpha(out, img)
	return out
}

// copyAlpha restores the alpha channel dropped by the 3-channel Mat.
func copyAlpha(dst, src *image.NRGBA) {
	if dst.Bounds().Size() != src.Bounds().Size() {
		return
	}
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := range h {
		d := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		s := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 3; x < len(d); x += 4 {
			d[x] = s[x]
		}
	}
}
