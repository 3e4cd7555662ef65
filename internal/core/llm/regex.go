package llm

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

type pattern struct {
	field constants.FieldName
	re    *regexp.Regexp
}

// Patterns are tried in order; the first submatch wins per field.
var regexPatterns = []pattern{
	{constants.PANNumber, regexp.MustCompile(`\b([A-Z]{5}[0-9]{4}[A-Z])\b`)},
	{constants.AadhaarNumber, regexp.MustCompile(`\b([2-9][0-9]{3} ?[0-9]{4} ?[0-9]{4})\b`)},
	{constants.EmailAddress, regexp.MustCompile(`([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)},
	{constants.PhoneNumber, regexp.MustCompile(`(\+91[ \-]?[6-9][0-9]{4} ?[0-9]{5}|\b[6-9][0-9]{4} ?[0-9]{5})\b`)},
	{constants.DateOfBirth, regexp.MustCompile(`(?i)(?:\bdob\b|d\.o\.b\.?|date\s+of\s+birth|birth\s+date)\s*[:\-]?\s*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{2,4}|[0-9]{1,2}\s+[A-Za-z]{3,9}\s+[0-9]{4})`)},
	{constants.FatherName, regexp.MustCompile(`(?im)^[ \t]*(?:father'?s?[ \t]+name|s/o|d/o)[ \t]*[:\-]?[ \t]*([A-Za-z][A-Za-z .]{1,60}?)[ \t]*$`)},
	{constants.FullName, regexp.MustCompile(`(?im)^[ \t]*(?:full[ \t]+)?name[ \t]*[:\-][ \t]*([A-Za-z][A-Za-z .]{1,60}?)[ \t]*$`)},
	{constants.EmployeeID, regexp.MustCompile(`(?i)\b(?:employee\s*id|emp\.?\s*id|emp\.?\s*no)\s*[:\-#]?\s*([A-Z0-9][A-Z0-9\-]{1,19})\b`)},
	{constants.AccountNumber, regexp.MustCompile(`(?i)\b(?:a/c|account)\s*(?:no\.?|number|#)?\s*[:\-]?\s*([0-9][0-9 ]{4,20}[0-9])\b`)},
	{constants.Address, regexp.MustCompile(`(?im)^[ \t]*address[ \t]*[:\-][ \t]*(.+?)[ \t]*$`)},
}

// RegexExtractor scrapes labelled values out of OCR text. It is the
// fallback when no model is configured or the model finds nothing.
type RegexExtractor struct {
	logger *slog.Logger
}

func NewRegexExtractor(logger *slog.Logger) *RegexExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegexExtractor{logger: logger}
}

func (r *RegexExtractor) ExtractFields(_ context.Context, req ExtractRequest) (entity.DocumentFields, []byte, error) {
	fields := entity.NewDocumentFields(constants.SourceNone)
	text := strings.ReplaceAll(req.OCRText, "\r", "")
	if strings.TrimSpace(text) == "" {
		return fields, nil, nil
	}

	found := 0
	for _, p := range regexPatterns {
		if fields[p.field].HasValue() {
			continue
		}
		loc := p.re.FindStringSubmatchIndex(text)
		if loc == nil || loc[2] < 0 {
			continue
		}
		value := strings.TrimSpace(text[loc[2]:loc[3]])
		if value == "" {
			continue
		}
		f := entity.TextField(value, constants.ConfidenceMedium, constants.SourceRegex)
		line := lineAround(text, loc[0])
		f.RawContext = &line
		fields[p.field] = f
		found++
	}

	r.logger.Debug("llm.regex.extract", "document_type", req.DocumentType, "fields", found)
	return fields, nil, nil
}

func lineAround(text string, idx int) string {
	start := strings.LastIndexByte(text[:idx], '\n') + 1
	end := strings.IndexByte(text[idx:], '\n')
	if end < 0 {
		return strings.TrimSpace(text[start:])
	}
	return strings.TrimSpace(text[start : idx+end])
}
