package pipeline

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/snscan/internal/ocr"
)

// ErrDegenerateRegion is returned when a box clamps to an empty crop.
var ErrDegenerateRegion = errors.New("pipeline: degenerate region")

// RefinerConfig sizes the isolated canvas used for the second pass.
type RefinerConfig struct {
	// Inset expands the token box on every side before cropping.
	Inset int `json:"inset"`
	// Margin is the fill border around the crop.
	Margin int `json:"margin"`
}

// DefaultRefinerConfig is the tuned 4px inset inside a 32px border.
func DefaultRefinerConfig() RefinerConfig {
	return RefinerConfig{Inset: 4, Margin: 32}
}

// RefinedRegion is a candidate crop embedded unscaled in a padded canvas.
type RefinedRegion struct {
	// Canvas is (crop height + 2*Margin) x (crop width + 2*Margin).
	Canvas *image.NRGBA
	// Crop is the clamped, inset-expanded region of the source image.
	Crop *image.NRGBA
	// Bounds is Crop's rectangle in source image coordinates.
	Bounds image.Rectangle
	Margin int
}

// Refiner isolates candidate regions.
type Refiner struct {
	cfg RefinerConfig
}

// NewRefiner returns a Refiner; negative values are treated as zero.
func NewRefiner(cfg RefinerConfig) *Refiner {
	cfg.Inset = max(cfg.Inset, 0)
	cfg.Margin = max(cfg.Margin, 0)
	return &Refiner{cfg: cfg}
}

// Config returns the effective configuration.
func (r *Refiner) Config() RefinerConfig { return r.cfg }

// Refine crops box (relative to img's top-left) expanded by the inset and
// clamped to img, then centres it on a canvas filled with the crop's
// top-left pixel colour. No resizing or contrast change is applied.
func (r *Refiner) Refine(img image.Image, box ocr.Box) (*RefinedRegion, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDegenerateRegion)
	}
	b := img.Bounds()
	rect := box.Rect(b.Min).Inset(-r.cfg.Inset)
	if box.W <= 0 || box.H <= 0 {
		rect = image.Rectangle{}
	}
	rect = rect.Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: box %+v in %v", ErrDegenerateRegion, box, b)
	}

	crop := imaging.Crop(img, rect)
	w, h := crop.Bounds().Dx(), crop.Bounds().Dy()
	m := r.cfg.Margin
	canvas := imaging.New(w+2*m, h+2*m, crop.NRGBAAt(0, 0))
	canvas = imaging.Paste(canvas, crop, image.Pt(m, m))

	return &RefinedRegion{Canvas: canvas, Crop: crop, Bounds: rect, Margin: m}, nil
}
