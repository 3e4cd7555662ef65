package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

// StructuredAddress is the parsed form of an address value.
type StructuredAddress struct {
	House   *string `json:"house"`
	Street  *string `json:"street"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Pincode *string `json:"pincode"`
}

// ExtractedField holds one field value as reported by an extractor. At most
// one of Text and Address is set; neither set means the value is absent.
type ExtractedField struct {
	Text       *string
	Address    *StructuredAddress
	RawContext *string
	Confidence constants.Confidence
	Source     constants.Source
}

// EmptyField is the placeholder for a field the extractor did not find.
func EmptyField(source constants.Source) ExtractedField {
	return ExtractedField{Confidence: constants.ConfidenceLow, Source: source}
}

// TextField builds a string-valued field.
func TextField(value string, conf constants.Confidence, source constants.Source) ExtractedField {
	return ExtractedField{Text: &value, Confidence: conf, Source: source}
}

// HasValue reports whether the value is present at all (may be empty).
func (f ExtractedField) HasValue() bool {
	return f.Text != nil || f.Address != nil
}

// NonEmpty reports whether the value is present and not the empty string.
func (f ExtractedField) NonEmpty() bool {
	if f.Address != nil {
		return true
	}
	return f.Text != nil && *f.Text != ""
}

// Value returns the value as a plain Go value: string, StructuredAddress or nil.
func (f ExtractedField) Value() any {
	switch {
	case f.Address != nil:
		return *f.Address
	case f.Text != nil:
		return *f.Text
	}
	return nil
}

// StringValue returns the text value or "".
func (f ExtractedField) StringValue() string {
	if f.Text == nil {
		return ""
	}
	return *f.Text
}

type fieldWire struct {
	Value      json.RawMessage      `json:"value"`
	RawContext *string              `json:"raw_context"`
	Confidence constants.Confidence `json:"confidence"`
	Source     constants.Source     `json:"source"`
}

func (f ExtractedField) MarshalJSON() ([]byte, error) {
	var value any
	switch {
	case f.Address != nil:
		value = f.Address
	case f.Text != nil:
		value = *f.Text
	}
	vb, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fieldWire{
		Value:      vb,
		RawContext: f.RawContext,
		Confidence: f.Confidence,
		Source:     f.Source,
	})
}

// UnmarshalJSON accepts string, number, boolean, object or null values.
// Scalars are kept as text; objects are read as a StructuredAddress.
func (f *ExtractedField) UnmarshalJSON(b []byte) error {
	var w fieldWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := ExtractedField{
		RawContext: w.RawContext,
		Confidence: w.Confidence,
		Source:     w.Source,
	}
	if out.Confidence == "" {
		out.Confidence = constants.ConfidenceLow
	}
	if out.Source == "" {
		out.Source = constants.SourceNone
	}

	raw := bytes.TrimSpace(w.Value)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		switch raw[0] {
		case '{':
			var addr StructuredAddress
			if err := json.Unmarshal(raw, &addr); err != nil {
				return fmt.Errorf("address value: %w", err)
			}
			out.Address = &addr
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			out.Text = &s
		case '[':
			return fmt.Errorf("unsupported array value")
		default:
			s := string(raw)
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				s = strconv.FormatFloat(n, 'f', -1, 64)
			}
			out.Text = &s
		}
	}
	*f = out
	return nil
}
