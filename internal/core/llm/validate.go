package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const fieldsSchemaURL = "kyc://schemas/document-fields.json"

var fieldsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(BuildFieldsJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("encode fields schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(fieldsSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load fields schema: %w", err)
	}
	return c.Compile(fieldsSchemaURL)
})

// ValidateFields checks a sanitized extractor response against the
// ten-field schema, which is compiled on first use.
func ValidateFields(data []byte) error {
	schema, err := fieldsSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match field schema: %w", err)
	}
	return nil
}
