package llm

import "github.com/joseph-ayodele/kyc-verifier/constants"

// BuildFieldsJSONSchema returns the JSON Schema (draft 2020-12 subset) of a
// sanitized extractor response: all ten fields, each an object whose value
// is a string, an address object or null.
func BuildFieldsJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	address := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"house":   nullableString,
			"street":  nullableString,
			"city":    nullableString,
			"state":   nullableString,
			"pincode": nullableString,
		},
	}
	field := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"value"},
		"properties": map[string]any{
			"value": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "null"},
					address,
				},
			},
			"raw_context": nullableString,
			"confidence":  map[string]any{"enum": []string{"low", "medium", "high"}},
			"source":      map[string]any{"type": "string"},
		},
	}

	props := make(map[string]any, len(constants.FieldNames))
	required := make([]string, 0, len(constants.FieldNames))
	for _, f := range constants.FieldNames {
		props[string(f)] = field
		required = append(required, string(f))
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
