// Package ocr produces raw text from document images.
package ocr

import (
	"context"
	"time"
)

// TextResult is the outcome of one OCR run. Success is false when the engine
// failed or produced no text; RawText is then empty.
type TextResult struct {
	RawText    string
	Success    bool
	Engine     string
	Confidence float32 // 0..1
	Lines      int
	Words      int
	Duration   time.Duration
	Error      string
}

// TextProvider turns a document image into raw text.
type TextProvider interface {
	Recognize(ctx context.Context, path string) (TextResult, error)
}
