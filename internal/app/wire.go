// Package app wires configuration into the pipeline for the commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/kyc-verifier/internal/async"
	"github.com/joseph-ayodele/kyc-verifier/internal/common"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/llm"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/llm/openai"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/ocr"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/pipeline"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/verify"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/metrics"
)

// NewLogger builds the JSON logger used by every command and makes it the
// default.
func NewLogger(w io.Writer, cfg common.LogConfig) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return logger
}

// NewEngine builds the rule engine from the verification policy settings.
func NewEngine(cfg common.VerifyConfig, logger *slog.Logger) (*verify.Engine, error) {
	policy := verify.Policy{KeyRules: cfg.RuleIDs(), MinExtractedFields: cfg.MinExtractedFields}
	if err := policy.Validate(); err != nil {
		return nil, common.NewAppError(common.CodeConfig, "verification policy", fmt.Errorf("%w: %v", common.ErrValidation, err))
	}
	return verify.NewEngine(policy, logger), nil
}

// NewExtractor returns the model-backed extractor with the pattern extractor
// behind it, or the pattern extractor alone when no API key is configured.
func NewExtractor(cfg common.LLMConfig, logger *slog.Logger) llm.FieldExtractor {
	patterns := llm.NewRegexExtractor(logger)
	if cfg.APIKey == "" {
		logger.Warn("llm.disabled", "reason", "no API key configured; using pattern extraction")
		return patterns
	}
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		Provider:    cfg.Provider,
	}, logger)
	logger.Info("llm.enabled", "provider", cfg.Provider, "model", cfg.Model)
	if !cfg.RegexFallback {
		return client
	}
	return llm.NewFallbackExtractor(client, patterns, logger)
}

func NewTextProvider(cfg common.OCRConfig, logger *slog.Logger) ocr.TextProvider {
	return ocr.NewTesseract(ocr.Config{
		Tesseract:   cfg.Tesseract,
		Lang:        cfg.Lang,
		TessdataDir: cfg.TessdataDir,
		PSM:         cfg.PSM,
		OEM:         cfg.OEM,
	}, logger)
}

// NewProcessor assembles the person pipeline. store and m may be nil.
func NewProcessor(cfg *common.Config, store pipeline.Store, m *metrics.Metrics, logger *slog.Logger) (*pipeline.Processor, error) {
	engine, err := NewEngine(cfg.Verify, logger)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithConcurrency(cfg.Queue.DocumentWorkers),
		pipeline.WithMetrics(m),
	}
	if store != nil {
		opts = append(opts, pipeline.WithStore(store))
	}
	return pipeline.NewProcessor(logger,
		NewTextProvider(cfg.OCR, logger),
		NewExtractor(cfg.LLM, logger),
		engine,
		opts...,
	), nil
}

// ProcessAll pushes persons through a bounded worker queue and returns the
// results sorted by person id. Persons whose processing failed outright are
// reported through their Errors with a FAILED result, so every input person
// appears in the output.
func ProcessAll(ctx context.Context, proc async.PersonProcessor, persons []entity.PersonDocuments, cfg common.QueueConfig, m *metrics.Metrics, logger *slog.Logger) ([]entity.PersonResult, error) {
	var (
		mu      sync.Mutex
		results = make([]entity.PersonResult, 0, len(persons))
	)
	q := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Workers),
		async.WithQueueSize(cfg.Size),
		async.WithProcessTimeout(cfg.ProcessTimeout),
		async.WithMetrics(m),
		async.WithResultHandler(func(job async.Job, res entity.PersonResult, err error) {
			if res.PersonID == "" {
				res = failedResult(job.Person.PersonID, err)
			} else if err != nil {
				res.Errors = append(res.Errors, err.Error())
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}),
	)

	var enqueueErr error
	for _, p := range persons {
		if err := q.Enqueue(ctx, async.Job{Person: p, TraceID: uuid.NewString()}); err != nil {
			enqueueErr = fmt.Errorf("enqueue %s: %w", p.PersonID, err)
			break
		}
	}
	q.Shutdown(ctx)

	mu.Lock()
	out := append([]entity.PersonResult(nil), results...)
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, enqueueErr
}

func failedResult(personID string, err error) entity.PersonResult {
	out := verify.VerifyPerson(entity.PersonExtraction{})
	res := entity.NewPersonResult(personID, entity.PersonExtraction{}, out, []string{})
	if err != nil {
		res.Errors = []string{err.Error()}
	}
	return res
}
