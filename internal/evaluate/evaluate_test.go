package evaluate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"pass", "PASS"},
		{" Verified ", "PASS"},
		{true, "PASS"},
		{"OK", "PASS"},
		{"rejected", "FAIL"},
		{false, "FAIL"},
		{"Invalid", "FAIL"},
		{"pending", "PENDING"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.in), "%v", tt.in)
	}
}

func mustDecode(t *testing.T, s string) []Record {
	t.Helper()
	recs, err := DecodeRecords([]byte(s))
	require.NoError(t, err)
	return recs
}

func TestEvaluate(t *testing.T) {
	gt := mustDecode(t, `[
	  {"person_id": "p1", "overall_status": "VERIFIED",
	   "verification_results": {"rule_1": {"status": "PASS"}, "rule_2": {"status": "PASS"}, "rule_6": {"status": "FAIL"}}},
	  {"person_id": "p2", "overall_status": "FAILED",
	   "checks": {"rule_1_name_match": {"status": "fail"}}},
	  {"person_id": "p3", "overall_status": "FAILED"}
	]`)
	pred := mustDecode(t, `[
	  {"person_id": "p1", "overall_status": "verified",
	   "verification_results": {"rule_1_name_match": {"status": "PASS"}, "rule_2_dob_match": {"status": "FAIL"},
	                            "rule_3_address_match": {"status": "PASS"}, "rule_6_pan_format": {"status": "failed"}}},
	  {"person_id": "p2", "overall_status": "VERIFIED",
	   "result": {"rules": {"rule_1": {"status": "rejected"}}}},
	  {"person_id": "p9", "overall_status": "VERIFIED"}
	]`)

	rep, err := Evaluate(gt, pred)
	require.NoError(t, err)

	assert.Equal(t, Counts{
		GTCount:           3,
		PredCount:         3,
		MatchedPersons:    2,
		MissingPreds:      1,
		CorrectPersons:    1,
		TotalRuleChecks:   4,
		CorrectRuleChecks: 3,
	}, rep.Counts)
	assert.InDelta(t, 1.0/3.0, rep.PersonLevelAccuracy, 1e-9)
	assert.InDelta(t, 0.75, rep.OverallAccuracy, 1e-9)

	assert.Equal(t, RuleAccuracy{Correct: 2, Total: 2, Accuracy: 1}, rep.RuleAccuracy["rule_1"])
	assert.Equal(t, RuleAccuracy{Correct: 0, Total: 1, Accuracy: 0}, rep.RuleAccuracy["rule_2"])
	assert.Equal(t, RuleAccuracy{Correct: 1, Total: 1, Accuracy: 1}, rep.RuleAccuracy["rule_6"])
	assert.Equal(t, RuleAccuracy{}, rep.RuleAccuracy["rule_3"])
	assert.Len(t, rep.RuleAccuracy, 7)

	require.Len(t, rep.Details, 3)
	p1 := rep.Details[0]
	assert.Equal(t, "p1", p1.PersonID)
	assert.Equal(t, DetailRuleMismatch, p1.Type)
	require.Len(t, p1.RuleMismatches, 2)
	assert.Equal(t, "rule_2", p1.RuleMismatches[0].Rule)
	assert.Equal(t, "rule_2", p1.RuleMismatches[0].GTKey)
	assert.Equal(t, "rule_2_dob_match", p1.RuleMismatches[0].PredKey)
	assert.Equal(t, "rule_3", p1.RuleMismatches[1].Rule)
	assert.Equal(t, "rule missing on one side", p1.RuleMismatches[1].Note)

	assert.Equal(t, DetailOverallMismatch, rep.Details[1].Type)
	assert.Equal(t, "p2", rep.Details[1].PersonID)
	assert.Equal(t, "FAIL", rep.Details[1].GTNormalized)
	assert.Equal(t, "PASS", rep.Details[1].PredNormalized)

	assert.Equal(t, DetailMissingPrediction, rep.Details[2].Type)
	assert.Equal(t, "p3", rep.Details[2].PersonID)
}

func TestEvaluateRequiresPersonID(t *testing.T) {
	_, err := Evaluate(mustDecode(t, `[{"overall_status": "PASS"}]`), nil)
	assert.Error(t, err)
}

func TestEvaluateEmpty(t *testing.T) {
	rep, err := Evaluate(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, rep.OverallAccuracy)
	assert.Zero(t, rep.PersonLevelAccuracy)
	assert.Empty(t, rep.Details)
}

func TestDecodeRecordsEncodings(t *testing.T) {
	bom := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`[{"person_id": 7, "overall_status": "PASS"}]`)...)
	recs, err := DecodeRecords(bom)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rep, err := Evaluate(recs, recs)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Counts.CorrectPersons)

	// "José" in Latin-1
	latin := []byte("[{\"person_id\": \"Jos\xe9\"}]")
	recs, err = DecodeRecords(latin)
	require.NoError(t, err)
	assert.Equal(t, "José", recs[0]["person_id"])
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gt.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"person_id": "p1", "overall_status": "PASS"}]`), 0o644))

	recs, err := LoadRecords(path)
	require.NoError(t, err)
	rep, err := Evaluate(recs, recs)
	require.NoError(t, err)

	out := filepath.Join(dir, "metrics", "report.json")
	require.NoError(t, SaveReport(out, rep))
	assert.FileExists(t, out)

	_, err = LoadRecords(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
