package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

var (
	reFenceOpen  = regexp.MustCompile("```json\\s*")
	reFenceClose = regexp.MustCompile("```\\s*")
	reJSONObject = regexp.MustCompile(`(?s)\{.*\}`)
)

var addressKeys = []string{"house", "street", "city", "state", "pincode"}

// ExtractJSONObject strips markdown code fences and returns the span from
// the first '{' to the last '}'. Content without braces is returned trimmed.
func ExtractJSONObject(content string) string {
	s := strings.TrimSpace(content)
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	if m := reJSONObject.FindString(s); m != "" {
		return m
	}
	return s
}

// SanitizeFields reshapes a decoded model response so it can validate
// against BuildFieldsJSONSchema: unknown keys are dropped, every expected
// field becomes an object, bare scalars are wrapped as {"value": ...},
// numbers are rendered as strings and unrecognized confidences removed.
// It returns the re-encoded document and what was dropped or coerced.
func SanitizeFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var notes []string
	out := make(map[string]any, len(constants.FieldNames))
	for k := range m {
		if !constants.FieldName(k).Valid() {
			notes = append(notes, k+"(unknown)")
		}
	}

	for _, f := range constants.FieldNames {
		key := string(f)
		v, ok := m[key]
		if !ok {
			out[key] = emptyFieldObject()
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			obj, dropped := sanitizeFieldObject(t)
			for _, d := range dropped {
				notes = append(notes, key+"."+d)
			}
			out[key] = obj
		case string, float64, bool:
			out[key] = map[string]any{"value": scalarString(t), "raw_context": nil}
			notes = append(notes, key+"(wrapped)")
		default:
			out[key] = emptyFieldObject()
			if t != nil {
				notes = append(notes, key+"(type)")
			}
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, notes, fmt.Errorf("sanitize: encode: %w", err)
	}
	return b, notes, nil
}

func emptyFieldObject() map[string]any {
	return map[string]any{"value": nil, "raw_context": nil}
}

func sanitizeFieldObject(in map[string]any) (map[string]any, []string) {
	var dropped []string
	out := map[string]any{"value": nil}

	switch v := in["value"].(type) {
	case nil:
	case string, float64, bool:
		out["value"] = scalarString(v)
	case map[string]any:
		addr := make(map[string]any, len(addressKeys))
		for _, k := range addressKeys {
			switch c := v[k].(type) {
			case string, float64, bool:
				addr[k] = scalarString(c)
			default:
				addr[k] = nil
			}
		}
		out["value"] = addr
	default:
		dropped = append(dropped, "value(type)")
	}

	switch rc := in["raw_context"].(type) {
	case string:
		out["raw_context"] = rc
	case float64, bool:
		out["raw_context"] = scalarString(rc)
	default:
		out["raw_context"] = nil
	}

	if c, ok := in["confidence"].(string); ok {
		c = strings.ToLower(strings.TrimSpace(c))
		if constants.Confidence(c).Rank() > 0 {
			out["confidence"] = c
		} else {
			dropped = append(dropped, "confidence")
		}
	}
	if s, ok := in["source"].(string); ok && strings.TrimSpace(s) != "" {
		out["source"] = strings.TrimSpace(s)
	}

	for k := range in {
		switch k {
		case "value", "raw_context", "confidence", "source":
		default:
			dropped = append(dropped, k)
		}
	}
	return out, dropped
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
