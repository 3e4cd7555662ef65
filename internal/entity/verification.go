package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

// RuleResult is the verdict of one rule for one person.
type RuleResult struct {
	Status constants.RuleStatus           `json:"status"`
	Reason string                         `json:"reason"`
	Values map[constants.DocumentType]any `json:"values"`
}

// VerificationOutcome is computed once per person and never mutated.
type VerificationOutcome struct {
	Rules         map[constants.RuleID]RuleResult `json:"rules"`
	OverallStatus constants.OverallStatus         `json:"overall_status"`
}

// Passed reports whether the named rule passed.
func (o VerificationOutcome) Passed(id constants.RuleID) bool {
	r, ok := o.Rules[id]
	return ok && r.Status == constants.RulePass
}

// PersonResult is the pipeline's per-person output record.
type PersonResult struct {
	PersonID            string                          `json:"person_id"`
	OverallStatus       constants.OverallStatus         `json:"overall_status"`
	VerificationResults map[constants.RuleID]RuleResult `json:"verification_results"`
	ExtractedData       PersonExtraction                `json:"extracted_data"`
	OCREnginesUsed      []string                        `json:"ocr_engines_used"`
	Errors              []string                        `json:"errors,omitempty"`
}

// NewPersonResult folds an outcome into the reporting record.
func NewPersonResult(personID string, ext PersonExtraction, out VerificationOutcome, engines []string) PersonResult {
	return PersonResult{
		PersonID:            personID,
		OverallStatus:       out.OverallStatus,
		VerificationResults: out.Rules,
		ExtractedData:       ext,
		OCREnginesUsed:      engines,
	}
}

// Outcome rebuilds the VerificationOutcome view of a result.
func (r PersonResult) Outcome() VerificationOutcome {
	return VerificationOutcome{Rules: r.VerificationResults, OverallStatus: r.OverallStatus}
}

// VerificationRecord is a stored verification.
type VerificationRecord struct {
	ID              uuid.UUID               `json:"id"`
	PersonID        string                  `json:"person_id"`
	OverallStatus   constants.OverallStatus `json:"overall_status"`
	ExtractedFields int                     `json:"extracted_fields"`
	Outcome         VerificationOutcome     `json:"outcome"`
	Extraction      PersonExtraction        `json:"extraction"`
	CreatedAt       time.Time               `json:"created_at"`
}
