package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

// MaxPromptOCRChars bounds the OCR text sent to the model.
const MaxPromptOCRChars = 3500

const exampleResponse = `{
  "full_name": {"value": "John Doe", "raw_context": "line with name"},
  "father_name": {"value": "Richard Doe", "raw_context": "line"},
  "date_of_birth": {"value": "1990-01-01", "raw_context": "line"},
  "address": {"value": {"city": "Bangalore"}, "raw_context": "line"},
  "phone_number": {"value": "+919876543210", "raw_context": "line"},
  "email_address": {"value": "john@example.com", "raw_context": "line"},
  "aadhaar_number": {"value": "123456789012", "raw_context": "line"},
  "pan_number": {"value": "ABCDE1234F", "raw_context": "line"},
  "employee_id": {"value": "EMP001", "raw_context": "line"},
  "account_number": {"value": "9876543210", "raw_context": "line"}
}`

func BuildSystemPrompt() string {
	return strings.Join([]string{
		"You are an expert at extracting structured information from document OCR text.",
		"Extract the requested entities and return ONLY valid JSON.",
		"Use null for any value that does not appear in the text. Never guess.",
		"Dates must be ISO-8601 (YYYY-MM-DD).",
	}, " ")
}

// BuildUserPrompt lists the ten fields, shows the expected shape and carries
// the (truncated) OCR text.
func BuildUserPrompt(req ExtractRequest) string {
	ocr := strings.TrimSpace(req.OCRText)
	if len(ocr) > MaxPromptOCRChars {
		ocr = ocr[:MaxPromptOCRChars]
	}

	var b strings.Builder
	b.WriteString("DOCUMENT TYPE: ")
	b.WriteString(string(req.DocumentType))
	b.WriteString("\n\nOCR TEXT:\n")
	b.WriteString(ocr)
	b.WriteString("\n\nREQUIRED FIELDS:\n")
	for i, f := range constants.FieldNames {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(string(f))
		if f == constants.DateOfBirth {
			b.WriteString(" (YYYY-MM-DD)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nReturn JSON exactly like:\n")
	b.WriteString(exampleResponse)
	b.WriteString("\n\nReturn ONLY the JSON, no explanations.")
	return b.String()
}

// SchemaText renders a schema for inclusion in a prompt.
func SchemaText(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
