// Package ocr wraps the Tesseract OCR engine behind a small interface that
// returns word or line tokens with confidences and pixel bounding boxes.
package ocr

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// Mode selects the recognition granularity.
type Mode int

const (
	// ModeSparse finds as much text as possible on a whole page (PSM 11).
	ModeSparse Mode = iota
	// ModeSingleLine treats the image as one text line (PSM 7).
	ModeSingleLine
)

func (m Mode) String() string {
	switch m {
	case ModeSparse:
		return "sparse"
	case ModeSingleLine:
		return "single-line"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Box is a bounding box in pixel coordinates relative to the input image.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect converts the box to an image.Rectangle anchored at origin.
func (b Box) Rect(origin image.Point) image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H).Add(origin)
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if b.W == 0 && b.H == 0 {
		return o
	}
	r := image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H).Union(image.Rect(o.X, o.Y, o.X+o.W, o.Y+o.H))
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Token is one recognized text fragment.
type Token struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Box        Box    `json:"box"`
}

// Engine is the OCR primitive. Implementations are not safe for concurrent use.
type Engine interface {
	Recognize(img image.Image, mode Mode) ([]Token, error)
	Close() error
}

var (
	// ErrEngineUnavailable indicates a missing or misconfigured OCR engine.
	ErrEngineUnavailable = errors.New("ocr: engine unavailable")
	// ErrBackendNotLinked is returned for the gosseract backend in builds without the tag.
	ErrBackendNotLinked = errors.New("ocr: gosseract backend not linked; build with -tags=gosseract")
)

// Backend names accepted by New.
const (
	BackendExec      = "exec"
	BackendGosseract = "gosseract"
)

// Options configures a Tesseract backend.
type Options struct {
	// Binary is the tesseract executable (exec backend only).
	Binary string
	// TessdataDir overrides the tessdata location when non-empty.
	TessdataDir string
	// Languages used for ModeSparse.
	Languages []string
	// LineLanguages used for ModeSingleLine; falls back to Languages when empty.
	LineLanguages []string
	// OEM is the engine mode (3 = default).
	OEM int
	// Whitelist optionally restricts recognized characters.
	Whitelist string
}

// DefaultOptions mirrors the tuned settings: Korean labels on the first pass,
// English only on the isolated second pass.
func DefaultOptions() Options {
	return Options{
		Binary:        "tesseract",
		Languages:     []string{"eng", "kor"},
		LineLanguages: []string{"eng"},
		OEM:           3,
	}
}

func (o Options) languages(mode Mode) string {
	if mode == ModeSingleLine && len(o.LineLanguages) > 0 {
		return strings.Join(o.LineLanguages, "+")
	}
	if len(o.Languages) == 0 {
		return "eng"
	}
	return strings.Join(o.Languages, "+")
}

// PageSegMode maps a Mode to the Tesseract page segmentation mode number.
func PageSegMode(mode Mode) int {
	if mode == ModeSingleLine {
		return 7
	}
	return 11
}

// New constructs the named backend. An unusable engine yields an error
// wrapping ErrEngineUnavailable.
func New(backend string, opts Options) (Engine, error) {
	switch backend {
	case "", BackendExec:
		return newExecEngine(opts)
	case BackendGosseract:
		return newGosseractEngine(opts)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrEngineUnavailable, backend)
	}
}

func clampConfidence(c float64) int {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	default:
		return int(c + 0.5)
	}
}

// JoinLines merges word tokens that share a line into one token per line,
// words separated by a single space, in input order.
func JoinLines(words []Token, lineOf func(i int) int) []Token {
	var (
		out  []Token
		last = -1
	)
	for i, w := range words {
		line := lineOf(i)
		if line != last || len(out) == 0 {
			out = append(out, Token{Text: w.Text, Confidence: w.Confidence, Box: w.Box})
			last = line
			continue
		}
		cur := &out[len(out)-1]
		cur.Text += " " + w.Text
		cur.Box = cur.Box.Union(w.Box)
		if w.Confidence < cur.Confidence {
			cur.Confidence = w.Confidence
		}
	}
	return out
}
