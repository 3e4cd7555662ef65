package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/common"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/llm"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

var errNoAPIKey = errors.New("llm api key is not configured")

// ExtractFields implements llm.FieldExtractor with a single text-only
// chat/completions call.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (entity.DocumentFields, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	if req.PersonID != "" {
		ctx = common.WithPersonID(ctx, req.PersonID)
	}
	start := time.Now()
	empty := entity.NewDocumentFields(constants.SourceNone)

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"person_id", req.PersonID,
		"document_type", req.DocumentType,
		"model", c.cfg.Model,
		"text_len", len(req.OCRText),
	)

	if c.cfg.APIKey == "" {
		return empty, nil, errNoAPIKey
	}
	if strings.TrimSpace(req.OCRText) == "" {
		c.logger.Warn("llm.extract.empty_text", "req_id", rid, "document_type", req.DocumentType)
		return empty, nil, nil
	}

	schema := llm.BuildFieldsJSONSchema()
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
			{"role": "system", "content": "JSON Schema:\n" + llm.SchemaText(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return empty, raw, fmt.Errorf("chat completions: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return empty, raw, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return empty, raw, fmt.Errorf("no choices in chat response")
	}

	content := cc.Choices[0].Message.Content
	fields, cleaned, err := llm.ParseFieldsResponse(content, c.Source(), c.logger)
	if err != nil {
		c.logger.Error("llm.extract.parse_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return empty, []byte(content), err
	}
	if cleaned == nil {
		cleaned = []byte(content)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"document_type", req.DocumentType,
		"fields", fields.Count(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, cleaned, nil
}
