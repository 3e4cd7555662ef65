package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// FallbackExtractor asks the primary extractor first and switches to the
// secondary when the primary fails or finds no non-empty value.
type FallbackExtractor struct {
	primary   FieldExtractor
	secondary FieldExtractor
	logger    *slog.Logger
}

func NewFallbackExtractor(primary, secondary FieldExtractor, logger *slog.Logger) *FallbackExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackExtractor{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackExtractor) ExtractFields(ctx context.Context, req ExtractRequest) (entity.DocumentFields, []byte, error) {
	fields, raw, err := f.primary.ExtractFields(ctx, req)
	if err == nil && countNonEmpty(fields) > 0 {
		return fields, raw, nil
	}
	f.logger.Warn("llm.extract.fallback",
		"person_id", req.PersonID,
		"document_type", req.DocumentType,
		"error", err,
	)

	alt, _, altErr := f.secondary.ExtractFields(ctx, req)
	if altErr != nil {
		return entity.NewDocumentFields(constants.SourceError), raw, errors.Join(err, altErr)
	}
	return alt.Complete(), raw, nil
}

func countNonEmpty(fields entity.DocumentFields) int {
	n := 0
	for _, f := range fields {
		if f.NonEmpty() {
			n++
		}
	}
	return n
}
