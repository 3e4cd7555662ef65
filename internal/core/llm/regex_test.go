package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

const govIDText = `GOVERNMENT OF INDIA
Name: Lalita Sharma
Father's Name: Mohan Sharma
DOB: 15/08/1990
Aadhaar: 2345 6789 0123
Permanent Account Number ABCDE1234F
Address: 12 MG Road, Bangalore, Karnataka 560001
Mobile +91 98765 43210
lalita.sharma@example.com`

func TestRegexExtractor(t *testing.T) {
	fields, raw, err := NewRegexExtractor(nil).ExtractFields(context.Background(), ExtractRequest{
		OCRText:      govIDText,
		DocumentType: constants.GovernmentID,
	})
	require.NoError(t, err)
	assert.Nil(t, raw)
	require.Len(t, fields, len(constants.FieldNames))

	want := map[constants.FieldName]string{
		constants.FullName:      "Lalita Sharma",
		constants.FatherName:    "Mohan Sharma",
		constants.DateOfBirth:   "15/08/1990",
		constants.AadhaarNumber: "2345 6789 0123",
		constants.PANNumber:     "ABCDE1234F",
		constants.Address:       "12 MG Road, Bangalore, Karnataka 560001",
		constants.PhoneNumber:   "+91 98765 43210",
		constants.EmailAddress:  "lalita.sharma@example.com",
	}
	for field, v := range want {
		f := fields[field]
		assert.Equal(t, v, f.StringValue(), field)
		assert.Equal(t, constants.SourceRegex, f.Source, field)
		assert.Equal(t, constants.ConfidenceMedium, f.Confidence, field)
	}
	require.NotNil(t, fields[constants.DateOfBirth].RawContext)
	assert.Equal(t, "DOB: 15/08/1990", *fields[constants.DateOfBirth].RawContext)
	assert.False(t, fields[constants.EmployeeID].HasValue())
}

func TestRegexExtractorEmptyText(t *testing.T) {
	fields, _, err := NewRegexExtractor(nil).ExtractFields(context.Background(), ExtractRequest{OCRText: "  \n "})
	require.NoError(t, err)
	assert.Equal(t, 0, fields.Count())
}

type stubExtractor struct {
	fields entity.DocumentFields
	err    error
	calls  int
}

func (s *stubExtractor) ExtractFields(context.Context, ExtractRequest) (entity.DocumentFields, []byte, error) {
	s.calls++
	return s.fields, []byte(`{}`), s.err
}

func TestFallbackExtractor(t *testing.T) {
	found := entity.NewDocumentFields(constants.SourceNone)
	found[constants.PANNumber] = entity.TextField("ABCDE1234F", constants.ConfidenceHigh, "groq")
	scraped := entity.NewDocumentFields(constants.SourceNone)
	scraped[constants.FullName] = entity.TextField("Lalita Sharma", constants.ConfidenceMedium, constants.SourceRegex)

	t.Run("primary result kept", func(t *testing.T) {
		primary := &stubExtractor{fields: found}
		secondary := &stubExtractor{fields: scraped}
		got, _, err := NewFallbackExtractor(primary, secondary, nil).ExtractFields(context.Background(), ExtractRequest{})
		require.NoError(t, err)
		assert.Equal(t, "ABCDE1234F", got[constants.PANNumber].StringValue())
		assert.Zero(t, secondary.calls)
	})

	t.Run("nothing found falls back", func(t *testing.T) {
		primary := &stubExtractor{fields: entity.NewDocumentFields(constants.SourceNone)}
		secondary := &stubExtractor{fields: scraped}
		got, _, err := NewFallbackExtractor(primary, secondary, nil).ExtractFields(context.Background(), ExtractRequest{})
		require.NoError(t, err)
		assert.Equal(t, "Lalita Sharma", got[constants.FullName].StringValue())
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("primary error falls back", func(t *testing.T) {
		primary := &stubExtractor{fields: entity.NewDocumentFields(constants.SourceNone), err: errors.New("boom")}
		secondary := &stubExtractor{fields: scraped}
		got, _, err := NewFallbackExtractor(primary, secondary, nil).ExtractFields(context.Background(), ExtractRequest{})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Count())
	})

	t.Run("both fail", func(t *testing.T) {
		primary := &stubExtractor{err: errors.New("boom")}
		secondary := &stubExtractor{err: errors.New("bust")}
		got, _, err := NewFallbackExtractor(primary, secondary, nil).ExtractFields(context.Background(), ExtractRequest{})
		require.Error(t, err)
		assert.ErrorContains(t, err, "bust")
		assert.Len(t, got, len(constants.FieldNames))
		assert.Equal(t, 0, got.Count())
	})
}
