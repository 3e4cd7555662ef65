// Package pipeline runs one person through OCR, field extraction,
// post-processing and verification.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/extract"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/llm"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/ocr"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/verify"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/metrics"
)

// Store persists verification records. repository.VerificationRepository
// satisfies it.
type Store interface {
	Save(ctx context.Context, rec entity.VerificationRecord) error
}

// Processor coordinates OCR then structured extraction for every document
// of a person, then verifies the assembled extraction.
type Processor struct {
	logger      *slog.Logger
	ocr         ocr.TextProvider
	extractor   llm.FieldExtractor
	engine      *verify.Engine
	store       Store
	metrics     *metrics.Metrics
	concurrency int
	now         func() time.Time
}

type Option func(*Processor)

// WithStore persists every outcome.
func WithStore(s Store) Option {
	return func(p *Processor) { p.store = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithConcurrency bounds how many documents of one person run at once.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func NewProcessor(logger *slog.Logger, textProvider ocr.TextProvider, extractor llm.FieldExtractor, engine *verify.Engine, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = verify.NewEngine(verify.DefaultPolicy(), logger)
	}
	p := &Processor{
		logger:      logger,
		ocr:         textProvider,
		extractor:   extractor,
		engine:      engine,
		concurrency: len(constants.DocumentTypes),
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type documentOutcome struct {
	fields entity.DocumentFields
	engine string
	err    error
}

// ProcessPerson extracts and verifies the documents of one person. A failing
// document contributes the all-absent mapping and an entry in Errors; only
// context cancellation aborts the person. A storage failure is returned
// alongside the otherwise complete result.
func (p *Processor) ProcessPerson(ctx context.Context, person entity.PersonDocuments) (entity.PersonResult, error) {
	start := p.now()
	p.logger.Info("pipeline.person.start", "person_id", person.PersonID, "documents", len(person.Documents))

	var mu sync.Mutex
	outcomes := make(map[constants.DocumentType]documentOutcome, len(person.Documents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, dt := range documentOrder(person.Documents) {
		path := person.Documents[dt]
		g.Go(func() error {
			out := p.processDocument(gctx, person.PersonID, dt, path)
			if err := gctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			outcomes[dt] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.logger.Warn("pipeline.person.cancelled", "person_id", person.PersonID, "error", err)
		return entity.PersonResult{}, err
	}

	ext := make(entity.PersonExtraction, len(outcomes))
	engines := make(map[string]struct{})
	var errs []string
	for dt, out := range outcomes {
		ext[dt] = out.fields
		if out.engine != "" {
			engines[out.engine] = struct{}{}
		}
		if out.err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", dt, out.err))
		}
	}
	sort.Strings(errs)

	result, err := p.verify(ctx, person.PersonID, ext, sortedKeys(engines))
	result.Errors = errs
	p.metrics.ObservePerson(start)

	p.logger.Info("pipeline.person.done",
		"person_id", person.PersonID,
		"overall_status", result.OverallStatus,
		"document_errors", len(errs),
		"elapsed_ms", p.now().Sub(start).Milliseconds(),
	)
	return result, err
}

// VerifyExtraction verifies an already extracted person, for callers that
// bring their own extraction.
func (p *Processor) VerifyExtraction(ctx context.Context, personID string, ext entity.PersonExtraction) (entity.PersonResult, error) {
	return p.verify(ctx, personID, ext, []string{})
}

func (p *Processor) verify(ctx context.Context, personID string, ext entity.PersonExtraction, engines []string) (entity.PersonResult, error) {
	if ext == nil {
		ext = entity.PersonExtraction{}
	}
	ext.Complete()

	outcome := p.engine.VerifyPerson(ext)
	p.metrics.ObserveOutcome(outcome)
	result := entity.NewPersonResult(personID, ext, outcome, engines)

	if p.store == nil {
		return result, nil
	}
	rec := entity.VerificationRecord{
		ID:              uuid.New(),
		PersonID:        personID,
		OverallStatus:   outcome.OverallStatus,
		ExtractedFields: ext.Count(),
		Outcome:         outcome,
		Extraction:      ext,
		CreatedAt:       p.now().UTC(),
	}
	if err := p.store.Save(ctx, rec); err != nil {
		p.metrics.IncStoreSaveErrors()
		p.logger.Error("pipeline.store.save_failed", "person_id", personID, "error", err)
		return result, fmt.Errorf("save verification: %w", err)
	}
	return result, nil
}

// processDocument never fails the person: OCR and extraction errors are
// logged and reported with the all-absent mapping.
func (p *Processor) processDocument(ctx context.Context, personID string, dt constants.DocumentType, path string) documentOutcome {
	start := p.now()

	text, err := p.ocr.Recognize(ctx, path)
	if err != nil || !text.Success {
		if err == nil {
			err = fmt.Errorf("no text recognized")
		}
		p.logger.Warn("pipeline.document.ocr_failed",
			"person_id", personID, "document_type", dt, "path", path, "error", err)
		p.metrics.ObserveDocument(dt, metrics.DocumentOCRFailed)
		return documentOutcome{fields: extract.EmptyDocumentFields(constants.SourceNone), engine: text.Engine, err: err}
	}

	fields, _, err := p.extractor.ExtractFields(ctx, llm.ExtractRequest{
		OCRText:      text.RawText,
		DocumentType: dt,
		PersonID:     personID,
	})
	if err != nil {
		p.logger.Warn("pipeline.document.extract_failed",
			"person_id", personID, "document_type", dt, "error", err)
		p.metrics.ObserveDocument(dt, metrics.DocumentExtractFailed)
		if fields == nil {
			fields = extract.EmptyDocumentFields(constants.SourceError)
		}
	} else {
		p.metrics.ObserveDocument(dt, metrics.DocumentOK)
	}

	fields = extract.PostProcess(fields.Complete())
	p.logger.Debug("pipeline.document.done",
		"person_id", personID,
		"document_type", dt,
		"ocr_confidence", text.Confidence,
		"fields", fields.Count(),
		"elapsed_ms", p.now().Sub(start).Milliseconds(),
	)
	return documentOutcome{fields: fields, engine: text.Engine, err: err}
}

func documentOrder(docs map[constants.DocumentType]string) []constants.DocumentType {
	out := make([]constants.DocumentType, 0, len(docs))
	for _, dt := range constants.DocumentTypes {
		if _, ok := docs[dt]; ok {
			out = append(out, dt)
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
