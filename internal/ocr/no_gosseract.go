//go:build !gosseract

package ocr

import "fmt"

func newGosseractEngine(Options) (Engine, error) {
	return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, ErrBackendNotLinked)
}
