// Package extract post-processes per-document field mappings produced by an
// extractor: confusion correction, field normalization and merging.
package extract

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/normalize"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// CorrectExtraction applies the confusion corrector to every non-empty
// string value, choosing the hint by field name. Structured values pass
// through. A nil mapping is logged and returned as is.
func CorrectExtraction(doc entity.DocumentFields) entity.DocumentFields {
	if doc == nil {
		slog.Warn("extract.correct.nil_input")
		return doc
	}
	out := doc.Clone()
	for name, f := range out {
		if f.Text == nil || *f.Text == "" {
			continue
		}
		corrected := normalize.Correct(*f.Text, constants.HintFor(name))
		f.Text = &corrected
		out[name] = f
	}
	return out
}

type fieldNormalizer func(string) (string, bool)

// validating normalizers; accepted values are promoted to high confidence
var validators = map[constants.FieldName]fieldNormalizer{
	constants.DateOfBirth:   normalize.Date,
	constants.PhoneNumber:   normalize.Phone,
	constants.PANNumber:     normalize.PAN,
	constants.AadhaarNumber: normalize.Aadhaar,
	constants.EmailAddress:  normalize.Email,
	constants.EmployeeID:    normalize.EmployeeID,
	constants.AccountNumber: normalize.AccountNumber,
}

// NormalizeExtraction replaces every value with its canonical form. Values a
// normalizer rejects are cleared, so a field is either canonical or absent.
// Address strings become structured addresses.
func NormalizeExtraction(doc entity.DocumentFields) entity.DocumentFields {
	if doc == nil {
		slog.Warn("extract.normalize.nil_input")
		return doc
	}
	out := doc.Clone()
	for name, f := range out {
		out[name] = normalizeField(name, f)
	}
	return out
}

func normalizeField(name constants.FieldName, f entity.ExtractedField) entity.ExtractedField {
	if f.Address != nil {
		if name != constants.Address {
			return clearValue(f)
		}
		return f
	}
	if f.Text == nil {
		return f
	}
	raw := strings.TrimSpace(*f.Text)
	if raw == "" {
		return clearValue(f)
	}

	switch name {
	case constants.FullName, constants.FatherName:
		v := normalize.Name(raw)
		if v == "" {
			return clearValue(f)
		}
		f.Text = &v
		return f
	case constants.Address:
		addr := normalize.Address(raw)
		f.Text = nil
		f.Address = &addr
		return f
	}

	fn, ok := validators[name]
	if !ok {
		return f
	}
	v, ok := fn(raw)
	if !ok {
		return clearValue(f)
	}
	f.Text = &v
	f.Confidence = constants.ConfidenceHigh
	return f
}

func clearValue(f entity.ExtractedField) entity.ExtractedField {
	f.Text = nil
	f.Address = nil
	f.Confidence = constants.ConfidenceLow
	return f
}

// PostProcess runs correction then normalization, the order the pipeline
// uses for each document. Fields without a correction hint (email, address)
// skip the conservative table: their normalizers carry their own OCR
// repairs, and the table would turn every "l" in them into "1". A date of
// birth that already parses is kept uncorrected, since numeric correction
// strips spaces and rewrites month names ("15 August 1947").
func PostProcess(doc entity.DocumentFields) entity.DocumentFields {
	if doc == nil {
		slog.Warn("extract.postprocess.nil_input")
		return doc
	}
	corrected := CorrectExtraction(doc)
	for name, f := range doc {
		switch {
		case constants.HintFor(name) == constants.HintNone:
			corrected[name] = f
		case name == constants.DateOfBirth && parsesAsDate(f):
			corrected[name] = f
		}
	}
	return NormalizeExtraction(corrected)
}

func parsesAsDate(f entity.ExtractedField) bool {
	if f.Text == nil {
		return false
	}
	_, ok := normalize.Date(*f.Text)
	return ok
}

// PostProcessPerson applies PostProcess to every document of a person that
// arrived as a raw extraction, for callers that bypass the pipeline.
func PostProcessPerson(ext entity.PersonExtraction) entity.PersonExtraction {
	out := make(entity.PersonExtraction, len(ext))
	for dt, doc := range ext {
		if doc == nil {
			doc = entity.NewDocumentFields(constants.SourceNone)
		}
		out[dt] = PostProcess(doc.Clone().Complete())
	}
	return out
}
