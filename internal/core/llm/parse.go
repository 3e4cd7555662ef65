package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// fallbackPatterns scrape "field": {..."value": "..."} pairs out of a response
// that is not valid JSON.
var fallbackPatterns = map[constants.FieldName]*regexp.Regexp{}

func init() {
	for _, f := range []constants.FieldName{
		constants.FullName,
		constants.DateOfBirth,
		constants.PhoneNumber,
		constants.EmailAddress,
		constants.AadhaarNumber,
		constants.PANNumber,
	} {
		fallbackPatterns[f] = regexp.MustCompile(`"` + string(f) + `"[^}]*"value"\s*:\s*"([^"]*)"`)
	}
}

// ParseFieldsResponse turns the model's message content into a complete
// document mapping. Present values are attributed to source with high
// confidence. Content that does not decode as JSON goes through the
// pattern fallback (source "fallback", confidence medium). A response that
// decodes but cannot be sanitized into the schema yields the empty mapping
// and an error. The returned bytes are the sanitized JSON, when there is one.
func ParseFieldsResponse(content string, source constants.Source, logger *slog.Logger) (entity.DocumentFields, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleaned := []byte(ExtractJSONObject(content))

	if !json.Valid(cleaned) {
		fields := FallbackFields(content)
		logger.Warn("llm.parse.fallback", "source", source, "recovered", fields.Count())
		return fields, nil, nil
	}

	sanitized, notes, err := SanitizeFields(cleaned)
	if err != nil {
		return entity.NewDocumentFields(constants.SourceNone), nil, fmt.Errorf("sanitize response: %w", err)
	}
	if len(notes) > 0 {
		logger.Warn("llm.parse.lenient_sanitize_applied", "source", source, "dropped", notes)
	}
	if err := ValidateFields(sanitized); err != nil {
		return entity.NewDocumentFields(constants.SourceNone), sanitized, fmt.Errorf("schema validation failed: %w", err)
	}

	var decoded map[constants.FieldName]entity.ExtractedField
	if err := json.Unmarshal(sanitized, &decoded); err != nil {
		return entity.NewDocumentFields(constants.SourceNone), sanitized, fmt.Errorf("unmarshal fields: %w", err)
	}

	fields := entity.DocumentFields(decoded).Complete()
	for name, f := range fields {
		if f.NonEmpty() {
			f.Source = source
			f.Confidence = constants.ConfidenceHigh
			fields[name] = f
		}
	}
	return fields, sanitized, nil
}

// FallbackFields recovers the handful of flat string fields that can be
// scraped from malformed model output.
func FallbackFields(content string) entity.DocumentFields {
	fields := entity.NewDocumentFields(constants.SourceNone)
	for name, re := range fallbackPatterns {
		if m := re.FindStringSubmatch(content); m != nil {
			fields[name] = entity.TextField(m[1], constants.ConfidenceMedium, constants.SourceFallback)
		}
	}
	return fields
}
