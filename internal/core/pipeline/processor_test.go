package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/llm"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/ocr"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/metrics"
)

// fakeOCR returns the text registered for a path; unknown paths fail.
type fakeOCR struct {
	texts map[string]string
}

func (f *fakeOCR) Recognize(_ context.Context, path string) (ocr.TextResult, error) {
	txt, ok := f.texts[path]
	if !ok {
		return ocr.TextResult{Engine: "fake"}, errors.New("unreadable image")
	}
	return ocr.TextResult{RawText: txt, Success: txt != "", Engine: "fake", Confidence: 0.9}, nil
}

// fakeExtractor turns "field=value" lines into medium-confidence text fields.
type fakeExtractor struct {
	mu    sync.Mutex
	calls []constants.DocumentType
	fail  map[constants.DocumentType]bool
}

func (f *fakeExtractor) ExtractFields(_ context.Context, req llm.ExtractRequest) (entity.DocumentFields, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.DocumentType)
	f.mu.Unlock()

	fields := entity.NewDocumentFields(constants.SourceNone)
	if f.fail[req.DocumentType] {
		return fields, nil, errors.New("model unavailable")
	}
	for _, line := range splitLines(req.OCRText) {
		for i := 0; i < len(line); i++ {
			if line[i] == '=' {
				fields[constants.FieldName(line[:i])] = entity.TextField(line[i+1:], constants.ConfidenceMedium, "fake")
				break
			}
		}
	}
	return fields, nil, nil
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

type memStore struct {
	mu   sync.Mutex
	recs []entity.VerificationRecord
	err  error
}

func (m *memStore) Save(_ context.Context, rec entity.VerificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

type ProcessorTestSuite struct {
	suite.Suite
	ocr       *fakeOCR
	extractor *fakeExtractor
	store     *memStore
	reg       *prometheus.Registry
	proc      *Processor
}

func TestProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}

func (s *ProcessorTestSuite) SetupTest() {
	s.ocr = &fakeOCR{texts: map[string]string{
		"/d/p1/gov.png":  "full_name=JOHN D0E\ndate_of_birth=15/08/1990\npan_number=abcde1234f",
		"/d/p1/bank.png": "full_name=Doe John\ndate_of_birth=1990-08-15\nphone_number=98765 43210",
		"/d/p1/emp.png":  "full_name=John Doe\nemployee_id=EMP-0042\nphone_number=+91 9876543210",
	}}
	s.extractor = &fakeExtractor{}
	s.store = &memStore{}
	s.reg = prometheus.NewRegistry()
	s.proc = NewProcessor(nil, s.ocr, s.extractor, nil,
		WithStore(s.store),
		WithMetrics(metrics.New(s.reg)),
		WithConcurrency(2),
	)
}

func person(docs map[constants.DocumentType]string) entity.PersonDocuments {
	return entity.PersonDocuments{PersonID: "p1", Documents: docs}
}

func (s *ProcessorTestSuite) allDocs() entity.PersonDocuments {
	return person(map[constants.DocumentType]string{
		constants.GovernmentID:     "/d/p1/gov.png",
		constants.BankStatement:    "/d/p1/bank.png",
		constants.EmploymentLetter: "/d/p1/emp.png",
	})
}

func (s *ProcessorTestSuite) TestProcessPersonVerified() {
	res, err := s.proc.ProcessPerson(context.Background(), s.allDocs())
	s.Require().NoError(err)

	s.Equal("p1", res.PersonID)
	s.Equal(constants.StatusVerified, res.OverallStatus)
	s.Equal([]string{"fake"}, res.OCREnginesUsed)
	s.Empty(res.Errors)
	s.Len(res.VerificationResults, len(constants.RuleIDs))

	gov := res.ExtractedData[constants.GovernmentID]
	s.Equal("John Doe", gov[constants.FullName].StringValue(), "zero read as O, then title-cased")
	s.Equal("1990-08-15", gov[constants.DateOfBirth].StringValue())
	s.Equal("ABCDE1234F", gov[constants.PANNumber].StringValue())
	s.Equal(constants.ConfidenceHigh, gov[constants.PANNumber].Confidence)
	s.Equal("+919876543210", res.ExtractedData[constants.BankStatement][constants.PhoneNumber].StringValue())
	s.Equal(constants.RulePass, res.VerificationResults[constants.RulePhoneMatch].Status)

	s.Require().Len(s.store.recs, 1)
	rec := s.store.recs[0]
	s.Equal("p1", rec.PersonID)
	s.Equal(constants.StatusVerified, rec.OverallStatus)
	s.Equal(res.ExtractedData.Count(), rec.ExtractedFields)
	s.Len(s.extractor.calls, 3)
}

func (s *ProcessorTestSuite) TestOCRFailureYieldsEmptyDocument() {
	docs := s.allDocs()
	docs.Documents[constants.BankStatement] = "/d/p1/missing.png"

	res, err := s.proc.ProcessPerson(context.Background(), docs)
	s.Require().NoError(err)

	bank := res.ExtractedData[constants.BankStatement]
	s.Len(bank, len(constants.FieldNames))
	s.Equal(0, bank.Count())
	s.Require().Len(res.Errors, 1)
	s.Contains(res.Errors[0], "bank_statement")
	s.Len(s.extractor.calls, 2, "extractor is skipped when OCR fails")
}

func (s *ProcessorTestSuite) TestExtractorFailureYieldsEmptyDocument() {
	s.extractor.fail = map[constants.DocumentType]bool{constants.EmploymentLetter: true}

	res, err := s.proc.ProcessPerson(context.Background(), s.allDocs())
	s.Require().NoError(err)
	s.Equal(0, res.ExtractedData[constants.EmploymentLetter].Count())
	s.Require().Len(res.Errors, 1)
	s.Contains(res.Errors[0], "model unavailable")
}

func (s *ProcessorTestSuite) TestMissingDocumentTypeIsAbsent() {
	docs := s.allDocs()
	delete(docs.Documents, constants.EmploymentLetter)

	res, err := s.proc.ProcessPerson(context.Background(), docs)
	s.Require().NoError(err)
	s.NotContains(res.ExtractedData, constants.EmploymentLetter)
}

func (s *ProcessorTestSuite) TestStoreFailureReturnsResult() {
	s.store.err = errors.New("disk full")

	res, err := s.proc.ProcessPerson(context.Background(), s.allDocs())
	s.Require().Error(err)
	s.ErrorContains(err, "disk full")
	s.Equal(constants.StatusVerified, res.OverallStatus)
}

func (s *ProcessorTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.proc.ProcessPerson(ctx, s.allDocs())
	s.Require().ErrorIs(err, context.Canceled)
	s.Empty(s.store.recs)
}

func (s *ProcessorTestSuite) TestVerifyExtraction() {
	ext := entity.PersonExtraction{
		constants.GovernmentID: {
			constants.FullName: entity.TextField("Asha Rao", constants.ConfidenceHigh, "api"),
		},
	}
	res, err := s.proc.VerifyExtraction(context.Background(), "p9", ext)
	s.Require().NoError(err)
	s.Equal(constants.StatusFailed, res.OverallStatus)
	s.Len(res.ExtractedData[constants.GovernmentID], len(constants.FieldNames))
	s.NotNil(res.OCREnginesUsed)
	s.Len(s.store.recs, 1)
}

func TestDocumentOrder(t *testing.T) {
	got := documentOrder(map[constants.DocumentType]string{
		constants.EmploymentLetter: "c",
		constants.GovernmentID:     "a",
		"passport":                 "x",
	})
	require.Len(t, got, 2)
	assert.Equal(t, []constants.DocumentType{constants.GovernmentID, constants.EmploymentLetter}, got)
}
