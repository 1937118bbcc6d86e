package pipeline

import (
	"image"

	"github.com/MeKo-Tech/snscan/internal/ocr"
	"github.com/MeKo-Tech/snscan/internal/serial"
)

// Scanner runs the OCR primitive over an image. It does not interpret errors.
type Scanner struct {
	engine ocr.Engine
}

// NewScanner wraps engine.
func NewScanner(engine ocr.Engine) *Scanner {
	return &Scanner{engine: engine}
}

// Scan returns the engine's tokens in its native reading order.
func (s *Scanner) Scan(img image.Image, mode ocr.Mode) ([]ocr.Token, error) {
	return s.engine.Recognize(img, mode)
}

// SelectCandidates keeps, in scan order, the tokens whose canonical text
// matches the serial pattern.
func SelectCandidates(tokens []ocr.Token, canon *serial.Canonicalizer, pass Pass) []Candidate {
	var out []Candidate
	for i, tok := range tokens {
		text, ok := canon.Canonicalize(tok.Text)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Index:      i,
			Text:       text,
			Confidence: tok.Confidence,
			Box:        tok.Box,
			Pass:       pass,
		})
	}
	return out
}

// lineText concatenates single-line tokens the way one text line reads.
func lineText(tokens []ocr.Token) (string, int) {
	var (
		text string
		conf = -1
	)
	for _, t := range tokens {
		text += t.Text
		if conf < 0 || t.Confidence < conf {
			conf = t.Confidence
		}
	}
	if conf < 0 {
		conf = 0
	}
	return text, conf
}
