package pipeline

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/snscan/internal/utils"
)

// RenderOverlay draws candidate boxes and their canonical text over the image
// and returns an RGBA copy.
func RenderOverlay(img image.Image, candidates []Candidate, boxColor color.Color) *image.RGBA {
	if img == nil {
		return nil
	}
	dst := utils.ToRGBA(img)
	for _, c := range candidates {
		rect := c.Box.Rect(image.Point{})
		utils.DrawRect(dst, rect, boxColor, 2)
		utils.DrawLabel(dst, rect, c.Text, boxColor)
	}
	return dst
}

// OverlayWriter is a ScanHook that saves one overlay PNG per scanned file.
type OverlayWriter struct {
	Dir   string
	Color color.Color
}

// NewOverlayWriter writes overlays into dir using red boxes.
func NewOverlayWriter(dir string) *OverlayWriter {
	return &OverlayWriter{Dir: dir, Color: color.RGBA{R: 255, A: 255}}
}

// Path returns the overlay file name for an input file. Relative directories
// are folded into the name so recursive scans do not collide.
func (w *OverlayWriter) Path(name string) string {
	base := utils.FlatName(name)
	return filepath.Join(w.Dir, "overlay_"+strings.TrimSuffix(base, filepath.Ext(base))+".png")
}

func (w *OverlayWriter) OnScan(name string, img image.Image, candidates []Candidate) error {
	col := w.Color
	if col == nil {
		col = color.RGBA{R: 255, A: 255}
	}
	return utils.SaveImage(RenderOverlay(img, candidates, col), w.Path(name))
}
