// Package ocr implements text extraction from document rasters with a
// primary deterministic recognizer and an optional vision-language fallback.
package ocr

import (
	"context"

	"github.com/MaksimPopov64/ocr-drw/constants"
)

// Engine is one text-recognition capability: encoded image in, text out.
type Engine interface {
	Name() string
	Kind() constants.EngineKind
	// Ready reports whether the engine can currently serve a call. In-process
	// engines always answer true; remote ones probe reachability.
	Ready(ctx context.Context) bool
	// Recognize returns the recognized text and an engine-reported confidence
	// in [0,1]; zero means the engine does not report one.
	Recognize(ctx context.Context, image []byte) (string, float32, error)
}

// Result is the outcome of one extraction, produced exactly once per
// pipeline run. It never carries an error: internal failures collapse to
// empty text with zero confidence.
type Result struct {
	Text       string
	Engine     constants.EngineKind
	Confidence float32
}
