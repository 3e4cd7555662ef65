// Package verify runs the cross-document consistency rules for one person
// and derives the overall verdict.
package verify

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// Policy decides how rule results fold into the overall status.
type Policy struct {
	// KeyRules must all pass for a VERIFIED verdict; other rules are advisory.
	KeyRules []constants.RuleID
	// MinExtractedFields is the number of present field values, across all
	// documents, below which the verdict is always FAILED.
	MinExtractedFields int
}

// DefaultPolicy gates on name and date-of-birth agreement with a floor of
// five extracted values.
func DefaultPolicy() Policy {
	return Policy{
		KeyRules:           []constants.RuleID{constants.RuleNameMatch, constants.RuleDOBMatch},
		MinExtractedFields: 5,
	}
}

// Validate rejects unknown rule ids and negative floors.
func (p Policy) Validate() error {
	for _, id := range p.KeyRules {
		if !id.Valid() {
			return fmt.Errorf("unknown key rule %q", id)
		}
	}
	if p.MinExtractedFields < 0 {
		return fmt.Errorf("min extracted fields must be >= 0, got %d", p.MinExtractedFields)
	}
	return nil
}

// Engine evaluates the rules under a policy. It holds no per-person state and
// is safe for concurrent use.
type Engine struct {
	policy Policy
	logger *slog.Logger
}

func NewEngine(policy Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{policy: policy, logger: logger}
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy { return e.policy }

// VerifyPerson evaluates every rule against a fully assembled extraction.
// Missing or malformed data produces FAIL results, never an error.
func (e *Engine) VerifyPerson(ext entity.PersonExtraction) entity.VerificationOutcome {
	results := make(map[constants.RuleID]entity.RuleResult, len(rules))
	for _, r := range rules {
		res := e.run(r, ext)
		if res.Status == constants.RuleFail {
			e.logger.Debug("verify.rule.fail", "rule", r.id, "reason", res.Reason)
		}
		results[r.id] = res
	}

	out := entity.VerificationOutcome{Rules: results, OverallStatus: constants.StatusFailed}
	total := ext.Count()
	passed := 0
	for _, id := range e.policy.KeyRules {
		if out.Passed(id) {
			passed++
		}
	}

	switch {
	case total < e.policy.MinExtractedFields:
		e.logger.Warn("verify.insufficient_data",
			"extracted_fields", total,
			"min_fields", e.policy.MinExtractedFields,
		)
	case passed == len(e.policy.KeyRules):
		out.OverallStatus = constants.StatusVerified
	}

	e.logger.Info("verify.done",
		"overall_status", out.OverallStatus,
		"key_rules_passed", passed,
		"key_rules", len(e.policy.KeyRules),
		"extracted_fields", total,
	)
	return out
}

// run evaluates one rule; a panic inside a rule is reported as a FAIL.
func (e *Engine) run(r rule, ext entity.PersonExtraction) (res entity.RuleResult) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("verify.rule.panic", "rule", r.id, "panic", p)
			res = entity.RuleResult{
				Status: constants.RuleFail,
				Reason: fmt.Sprintf("Rule evaluation failed: %v", p),
				Values: map[constants.DocumentType]any{},
			}
		}
	}()
	return r.check(ext)
}

// VerifyPerson evaluates ext under the default policy.
func VerifyPerson(ext entity.PersonExtraction) entity.VerificationOutcome {
	return NewEngine(DefaultPolicy(), nil).VerifyPerson(ext)
}
