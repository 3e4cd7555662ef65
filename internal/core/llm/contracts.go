// Package llm turns raw OCR text into the ten-field document mapping, either
// through an OpenAI-compatible chat model or by pattern matching.
package llm

import (
	"context"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

type ExtractRequest struct {
	OCRText      string
	DocumentType constants.DocumentType
	PersonID     string
}

// FieldExtractor is the interface the pipeline depends on. Implementations
// always return a complete mapping; on failure it is the all-absent mapping
// and err says why.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (entity.DocumentFields, []byte /*rawJSON*/, error)
}
