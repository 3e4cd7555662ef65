package extract

import (
	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// MergeExtractions overlays extra onto base. A field from extra wins when
// base has no value for it, or when extra reports strictly higher confidence.
// Neither input is modified.
func MergeExtractions(base, extra entity.DocumentFields) entity.DocumentFields {
	out := base.Clone()
	for name, candidate := range extra {
		if !candidate.HasValue() {
			continue
		}
		current, ok := out[name]
		if !ok || !current.HasValue() || candidate.Confidence.Rank() > current.Confidence.Rank() {
			out[name] = candidate
		}
	}
	return out.Complete()
}

// EmptyDocumentFields returns the mapping with every field absent, attributed
// to source. Extractors return it on any failure.
func EmptyDocumentFields(source constants.Source) entity.DocumentFields {
	return entity.NewDocumentFields(source)
}
