package utils

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// PreprocessConfig controls the smoothing applied before the first OCR pass.
type PreprocessConfig struct {
	// BlurSigma is the gaussian sigma; 0 disables smoothing.
	BlurSigma float64
	// BilateralDiameter is the neighbourhood size of the edge-preserving filter; 0 disables it.
	BilateralDiameter int
	// BilateralSigmaColor weights intensity differences (0..255 scale).
	BilateralSigmaColor float64
	// BilateralSigmaSpace weights spatial distance in pixels.
	BilateralSigmaSpace float64
}

// DefaultPreprocessConfig returns mild smoothing that keeps glyph edges.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		BlurSigma:           0.5,
		BilateralDiameter:   5,
		BilateralSigmaColor: 40,
		BilateralSigmaSpace: 3,
	}
}

// Preprocessor normalizes decoded images for OCR. It holds no state besides
// its configuration.
type Preprocessor struct {
	cfg PreprocessConfig
}

// NewPreprocessor returns a Preprocessor for cfg.
func NewPreprocessor(cfg PreprocessConfig) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// Preprocess returns a smoothed copy of img with the same dimensions,
// anchored at the origin. It never fails. The filters run on OpenCV when the
// binary is built with the gocv tag; see SmoothingBackend.
func (p *Preprocessor) Preprocess(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	if out.Bounds().Empty() {
		return out
	}
	return smooth(out, p.cfg)
}

func (c PreprocessConfig) blurEnabled() bool { return c.BlurSigma > 0 }

func (c PreprocessConfig) bilateralEnabled() bool {
	return c.BilateralDiameter > 1 && c.BilateralSigmaColor > 0 && c.BilateralSigmaSpace > 0
}

// smoothPure is the filter chain without OpenCV.
func smoothPure(img *image.NRGBA, cfg PreprocessConfig) *image.NRGBA {
	out := img
	if cfg.blurEnabled() {
		out = imaging.Blur(out, cfg.BlurSigma)
	}
	if cfg.bilateralEnabled() {
		out = BilateralFilter(out, cfg.BilateralDiameter, cfg.BilateralSigmaColor, cfg.BilateralSigmaSpace)
	}
	return out
}

// Grayscale returns the single-luminance rendition used for the retry pass.
func Grayscale(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}

// BilateralFilter smooths flat areas while keeping strong edges: each output
// pixel is the average of its neighbours weighted by spatial distance and by
// colour similarity. Alpha is copied unchanged. Builds with the gocv tag use
// gocv.BilateralFilter instead.
func BilateralFilter(src *image.NRGBA, diameter int, sigmaColor, sigmaSpace float64) *image.NRGBA {
	if diameter < 2 || sigmaColor <= 0 || sigmaSpace <= 0 {
		return imaging.Clone(src)
	}
	radius := diameter / 2
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	side := 2*radius + 1
	spatial := make([]float64, side*side)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*side+dx+radius] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}
	var rangeW [256 * 3]float64
	for i := range rangeW {
		d := float64(i) / 3
		rangeW[i] = math.Exp(-d * d / (2 * sigmaColor * sigmaColor))
	}

	at := func(x, y int) (int, int, int, uint8) {
		c := src.NRGBAAt(b.Min.X+x, b.Min.Y+y)
		return int(c.R), int(c.G), int(c.B), c.A
	}
	for y := range h {
		for x := range w {
			r0, g0, b0, a0 := at(x, y)
			var sr, sg, sb, sw float64
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					r1, g1, b1, _ := at(xx, yy)
					diff := absInt(r1-r0) + absInt(g1-g0) + absInt(b1-b0)
					wt := spatial[(dy+radius)*side+dx+radius] * rangeW[diff]
					sr += wt * float64(r1)
					sg += wt * float64(g1)
					sb += wt * float64(b1)
					sw += wt
				}
			}
			dst.SetNRGBA(x, y, color.NRGBA{
				R: uint8(sr/sw + 0.5),
				G: uint8(sg/sw + 0.5),
				B: uint8(sb/sw + 0.5),
				A: a0,
			})
		}
	}
	return dst
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
