package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/verify"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/repository"
)

func sampleResult(personID, name string) entity.PersonResult {
	ext := entity.PersonExtraction{}
	for _, dt := range constants.DocumentTypes {
		ext[dt] = entity.DocumentFields{
			constants.FullName:    entity.TextField(name, constants.ConfidenceHigh, constants.SourceRegex),
			constants.DateOfBirth: entity.TextField("1990-08-15", constants.ConfidenceHigh, constants.SourceRegex),
		}.Complete()
	}
	ext[constants.BankStatement][constants.FullName] = entity.TextField("Someone Else", constants.ConfidenceHigh, constants.SourceRegex)
	out := verify.VerifyPerson(ext)
	return entity.NewPersonResult(personID, ext, out, []string{"tesseract"})
}

func TestBuildWorkbook(t *testing.T) {
	results := []entity.PersonResult{sampleResult("person_001", "John Doe"), sampleResult("person_002", "Jane Roe")}

	b, err := NewService(nil, nil).ResultsXLSX(results)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Person ID", rows[0][0])
	assert.Equal(t, string(constants.RuleNameMatch), rows[0][2])
	assert.Equal(t, "person_001", rows[1][0])
	assert.Equal(t, string(constants.StatusFailed), rows[1][1])
	assert.Equal(t, string(constants.RuleFail), rows[1][2])
	assert.Equal(t, string(constants.RulePass), rows[1][3])

	details, err := f.GetRows(SheetDetails)
	require.NoError(t, err)
	assert.Len(t, details, 1+2*len(constants.RuleIDs))
	assert.Equal(t, string(constants.RuleNameMatch), details[1][1])
	assert.Contains(t, details[1][3], "Name mismatch")

	fields, err := f.GetRows(SheetFields)
	require.NoError(t, err)
	// two values on each of three documents, for two persons
	assert.Len(t, fields, 1+12)
}

func TestSaveAndReadResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	results := []entity.PersonResult{sampleResult("person_001", "John Doe")}
	require.NoError(t, SaveResults(path, results))

	got, err := ReadResultsJSON(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "person_001", got[0].PersonID)
	assert.Equal(t, results[0].OverallStatus, got[0].OverallStatus)
	assert.Equal(t, "John Doe", got[0].ExtractedData[constants.GovernmentID][constants.FullName].StringValue())

	var buf bytes.Buffer
	require.NoError(t, WriteResultsJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestSummarize(t *testing.T) {
	results := []entity.PersonResult{
		{OverallStatus: constants.StatusVerified},
		{OverallStatus: constants.StatusFailed},
		{OverallStatus: constants.StatusVerified},
	}
	assert.Equal(t, Summary{Total: 3, Verified: 2, Failed: 1}, Summarize(results))
}

func TestStoredXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.OpenSQLite(repository.InMemory, nil)
	require.NoError(t, err)
	defer repository.Close(db, nil)
	repo := repository.NewVerificationRepository(db, nil)
	require.NoError(t, repo.Migrate(ctx))

	res := sampleResult("person_009", "John Doe")
	require.NoError(t, repo.Save(ctx, entity.VerificationRecord{
		ID:            uuid.New(),
		PersonID:      res.PersonID,
		OverallStatus: res.OverallStatus,
		Outcome:       res.Outcome(),
		Extraction:    res.ExtractedData,
		CreatedAt:     time.Now(),
	}))

	b, err := NewService(repo, nil).StoredXLSX(ctx, constants.StatusFailed, 10)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "person_009", rows[1][0])

	_, err = NewService(nil, nil).StoredXLSX(ctx, constants.StatusFailed, 10)
	assert.Error(t, err)
}
