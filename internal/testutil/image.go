package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/snscan/internal/ocr"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
)

// LabelConfig describes a synthetic device label.
type LabelConfig struct {
	Text       string
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	// Origin is the top-left of the text box; the text is centred when zero.
	Origin image.Point
}

// DefaultLabelConfig returns a white label carrying a serial.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		Text:       "S/N: R54T1067RRR",
		Size:       SmallSize,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GenerateLabelImage renders cfg and returns the image together with the
// pixel box the text occupies.
func GenerateLabelImage(cfg LabelConfig) (*image.RGBA, ocr.Box) {
	if cfg.FontFace == nil {
		cfg.FontFace = basicfont.Face7x13
	}
	img := image.NewRGBA(image.Rect(0, 0, cfg.Size.Width, cfg.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	m := cfg.FontFace.Metrics()
	w := font.MeasureString(cfg.FontFace, cfg.Text).Ceil()
	h := m.Height.Ceil()
	origin := cfg.Origin
	if origin == (image.Point{}) {
		origin = image.Pt((cfg.Size.Width-w)/2, (cfg.Size.Height-h)/2)
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: cfg.FontFace,
		Dot:  fixed.P(origin.X, origin.Y+m.Ascent.Ceil()),
	}
	d.DrawString(cfg.Text)
	return img, ocr.Box{X: origin.X, Y: origin.Y, W: w, H: h}
}

// CreateTestImage creates a uniform image.
func CreateTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// SaveImage saves an image as PNG to the specified path.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")
	return img
}
