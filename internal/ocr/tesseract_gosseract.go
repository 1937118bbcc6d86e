//go:build gosseract

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// gosseractEngine links libtesseract through cgo. One client is reused for
// every call, so the engine must not be shared between goroutines.
// gosseract exposes no engine-mode setter, so Options.OEM is not applied and
// libtesseract runs its default mode (OEM 3).
type gosseractEngine struct {
	client *gosseract.Client
	opts   Options
}

func newGosseractEngine(opts Options) (Engine, error) {
	client := gosseract.NewClient()
	if opts.TessdataDir != "" {
		client.TessdataPrefix = opts.TessdataDir
	}
	if err := client.SetLanguage(opts.Languages...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: set language: %w", ErrEngineUnavailable, err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%w: set whitelist: %w", ErrEngineUnavailable, err)
		}
	}
	// Serial numbers are not dictionary words.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	return &gosseractEngine{client: client, opts: opts}, nil
}

func (e *gosseractEngine) Recognize(img image.Image, mode Mode) ([]Token, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("ocr: empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("ocr: encode png: %w", err)
	}

	langs := e.opts.Languages
	level := gosseract.RIL_WORD
	psm := gosseract.PSM_SPARSE_TEXT
	if mode == ModeSingleLine {
		if len(e.opts.LineLanguages) > 0 {
			langs = e.opts.LineLanguages
		}
		level = gosseract.RIL_TEXTLINE
		psm = gosseract.PSM_SINGLE_LINE
	}
	if err := e.client.SetLanguage(langs...); err != nil {
		return nil, fmt.Errorf("ocr: set language %s: %w", strings.Join(langs, "+"), err)
	}
	if err := e.client.SetPageSegMode(psm); err != nil {
		return nil, fmt.Errorf("ocr: set psm: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("ocr: set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(level)
	if err != nil {
		return nil, fmt.Errorf("ocr: bounding boxes: %w", err)
	}

	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:       text,
			Confidence: clampConfidence(b.Confidence),
			Box:        Box{X: b.Box.Min.X, Y: b.Box.Min.Y, W: b.Box.Dx(), H: b.Box.Dy()},
		})
	}
	return tokens, nil
}

func (e *gosseractEngine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
