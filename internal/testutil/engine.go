package testutil

import (
	"errors"
	"image"
	"sync"

	"github.com/MeKo-Tech/snscan/internal/ocr"
)

// ErrScripted is a convenience error for failing responses.
var ErrScripted = errors.New("scripted engine failure")

// Response is one scripted Recognize result.
type Response struct {
	Tokens []ocr.Token
	Err    error
}

// Call records one Recognize invocation.
type Call struct {
	Mode   ocr.Mode
	Bounds image.Rectangle
	Image  image.Image
}

// ScriptedEngine is a fake ocr.Engine. Sparse and single-line calls consume
// their own queues in order; an exhausted queue returns no tokens.
type ScriptedEngine struct {
	mu     sync.Mutex
	sparse []Response
	line   []Response
	calls  []Call
	closed bool
}

// NewScriptedEngine returns an empty fake.
func NewScriptedEngine() *ScriptedEngine { return &ScriptedEngine{} }

// OnSparse queues responses for whole-image scans.
func (e *ScriptedEngine) OnSparse(rs ...Response) *ScriptedEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sparse = append(e.sparse, rs...)
	return e
}

// OnLine queues responses for single-line scans.
func (e *ScriptedEngine) OnLine(rs ...Response) *ScriptedEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.line = append(e.line, rs...)
	return e
}

func (e *ScriptedEngine) Recognize(img image.Image, mode ocr.Mode) ([]ocr.Token, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := Call{Mode: mode, Image: img}
	if img != nil {
		c.Bounds = img.Bounds()
	}
	e.calls = append(e.calls, c)

	q := &e.sparse
	if mode == ocr.ModeSingleLine {
		q = &e.line
	}
	if len(*q) == 0 {
		return nil, nil
	}
	r := (*q)[0]
	*q = (*q)[1:]
	return r.Tokens, r.Err
}

func (e *ScriptedEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Calls returns a copy of the recorded invocations.
func (e *ScriptedEngine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// CallsFor counts invocations in mode.
func (e *ScriptedEngine) CallsFor(mode ocr.Mode) int {
	n := 0
	for _, c := range e.Calls() {
		if c.Mode == mode {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (e *ScriptedEngine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Tok builds a token.
func Tok(text string, conf int, box ocr.Box) ocr.Token {
	return ocr.Token{Text: text, Confidence: conf, Box: box}
}
