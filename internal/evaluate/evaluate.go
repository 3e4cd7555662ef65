// Package evaluate scores verification results against a labelled ground
// truth. Both sides are read loosely: status labels, rule keys and the key
// that holds the per-rule map vary between producers.
package evaluate

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

const (
	DetailMissingPrediction = "missing_prediction"
	DetailOverallMismatch   = "overall_status_mismatch"
	DetailRuleMismatch      = "rule_mismatch"
)

type RuleAccuracy struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

type Counts struct {
	GTCount           int `json:"gt_count"`
	PredCount         int `json:"pred_count"`
	MatchedPersons    int `json:"matched_persons"`
	MissingPreds      int `json:"missing_predictions"`
	CorrectPersons    int `json:"correct_persons"`
	TotalRuleChecks   int `json:"total_rule_checks"`
	CorrectRuleChecks int `json:"correct_rule_checks"`
}

type RuleMismatch struct {
	Rule           string `json:"rule"`
	GTKey          string `json:"gt_key,omitempty"`
	PredKey        string `json:"pred_key,omitempty"`
	GTRaw          any    `json:"gt_raw,omitempty"`
	PredRaw        any    `json:"pred_raw,omitempty"`
	GTNormalized   string `json:"gt_normalized,omitempty"`
	PredNormalized string `json:"pred_normalized,omitempty"`
	Note           string `json:"note,omitempty"`
}

type Detail struct {
	PersonID       string         `json:"person_id"`
	Type           string         `json:"type"`
	Message        string         `json:"message,omitempty"`
	GTRaw          any            `json:"gt_raw,omitempty"`
	PredRaw        any            `json:"pred_raw,omitempty"`
	GTNormalized   string         `json:"gt_normalized,omitempty"`
	PredNormalized string         `json:"pred_normalized,omitempty"`
	RuleMismatches []RuleMismatch `json:"rule_mismatches,omitempty"`
}

// Report is the evaluation output. RuleAccuracy is keyed by the short rule
// key ("rule_1" .. "rule_7").
type Report struct {
	OverallAccuracy     float64                 `json:"overall_accuracy"`
	RuleAccuracy        map[string]RuleAccuracy `json:"rule_accuracy"`
	PersonLevelAccuracy float64                 `json:"person_level_accuracy"`
	Counts              Counts                  `json:"counts"`
	Details             []Detail                `json:"details"`
}

// Record is one person object as decoded from JSON.
type Record map[string]any

var (
	containerKeys = []string{
		"verification_results", "verification", "verification_result", "rules",
		"checks", "verificationResults", "verification_data",
	}
	nestedParents    = []string{"result", "meta", "data", "verification_summary"}
	nestedContainers = []string{"verification_results", "verification", "rules", "checks"}
)

// NormalizeStatus maps the accepted spellings onto PASS or FAIL. Unknown
// labels come back upper-cased; nil comes back empty.
func NormalizeStatus(v any) string {
	if v == nil {
		return ""
	}
	s := strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	switch s {
	case "pass", "passed", "verified", "true", "ok", "success":
		return string(constants.RulePass)
	case "fail", "failed", "rejected", "false", "no", "invalid":
		return string(constants.RuleFail)
	}
	return strings.ToUpper(s)
}

// rulesContainer finds the per-rule map inside a person record.
func rulesContainer(rec Record) map[string]any {
	for _, k := range containerKeys {
		if m, ok := rec[k].(map[string]any); ok {
			return m
		}
	}
	for _, parent := range nestedParents {
		sub, ok := rec[parent].(map[string]any)
		if !ok {
			continue
		}
		for _, k := range nestedContainers {
			if m, ok := sub[k].(map[string]any); ok {
				return m
			}
		}
	}
	return map[string]any{}
}

// ruleKey returns the key under which rules holds id, trying the short form
// first and then the long form. Empty means the rule is absent.
func ruleKey(rules map[string]any, id constants.RuleID) string {
	short := constants.ShortRuleKey(id)
	if _, ok := rules[short]; ok {
		return short
	}
	if _, ok := rules[string(id)]; ok {
		return string(id)
	}
	return ""
}

func ruleStatus(rules map[string]any, key string) any {
	if m, ok := rules[key].(map[string]any); ok {
		return m["status"]
	}
	return nil
}

// index keys records by person_id. A repeated id keeps its first position and
// its last value.
func index(records []Record, side string) ([]string, map[string]Record, error) {
	order := make([]string, 0, len(records))
	byID := make(map[string]Record, len(records))
	for i, r := range records {
		raw, ok := r["person_id"]
		if !ok || raw == nil {
			return nil, nil, fmt.Errorf("%s record %d has no person_id", side, i)
		}
		id := fmt.Sprint(raw)
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = r
	}
	return order, byID, nil
}

// Evaluate compares predictions against ground truth by person_id.
func Evaluate(groundTruth, predictions []Record) (Report, error) {
	gtOrder, gt, err := index(groundTruth, "ground truth")
	if err != nil {
		return Report{}, err
	}
	_, pred, err := index(predictions, "prediction")
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		RuleAccuracy: make(map[string]RuleAccuracy, len(constants.RuleIDs)),
		Counts:       Counts{GTCount: len(gt), PredCount: len(pred)},
		Details:      []Detail{},
	}
	for _, id := range constants.RuleIDs {
		rep.RuleAccuracy[constants.ShortRuleKey(id)] = RuleAccuracy{}
	}

	for _, personID := range gtOrder {
		gtRec := gt[personID]
		predRec, ok := pred[personID]
		if !ok {
			rep.Counts.MissingPreds++
			rep.Details = append(rep.Details, Detail{
				PersonID: personID,
				Type:     DetailMissingPrediction,
				Message:  "No prediction found for this ground-truth person",
			})
			continue
		}
		rep.Counts.MatchedPersons++

		gtRaw, predRaw := gtRec["overall_status"], predRec["overall_status"]
		gtStatus, predStatus := NormalizeStatus(gtRaw), NormalizeStatus(predRaw)
		if gtStatus == predStatus {
			rep.Counts.CorrectPersons++
		} else {
			rep.Details = append(rep.Details, Detail{
				PersonID:       personID,
				Type:           DetailOverallMismatch,
				GTRaw:          gtRaw,
				PredRaw:        predRaw,
				GTNormalized:   gtStatus,
				PredNormalized: predStatus,
			})
		}

		gtRules, predRules := rulesContainer(gtRec), rulesContainer(predRec)
		var mismatches []RuleMismatch
		for _, id := range constants.RuleIDs {
			short := constants.ShortRuleKey(id)
			gtKey, predKey := ruleKey(gtRules, id), ruleKey(predRules, id)
			switch {
			case gtKey == "" && predKey == "":
				continue
			case gtKey == "" || predKey == "":
				// diagnostics only; not counted as a check
				mismatches = append(mismatches, RuleMismatch{
					Rule: short, GTKey: gtKey, PredKey: predKey, Note: "rule missing on one side",
				})
				continue
			}

			gtR, predR := ruleStatus(gtRules, gtKey), ruleStatus(predRules, predKey)
			acc := rep.RuleAccuracy[short]
			acc.Total++
			rep.Counts.TotalRuleChecks++
			if NormalizeStatus(gtR) == NormalizeStatus(predR) {
				acc.Correct++
				rep.Counts.CorrectRuleChecks++
			} else {
				mismatches = append(mismatches, RuleMismatch{
					Rule:           short,
					GTKey:          gtKey,
					PredKey:        predKey,
					GTRaw:          gtR,
					PredRaw:        predR,
					GTNormalized:   NormalizeStatus(gtR),
					PredNormalized: NormalizeStatus(predR),
				})
			}
			rep.RuleAccuracy[short] = acc
		}
		if len(mismatches) > 0 {
			rep.Details = append(rep.Details, Detail{
				PersonID:       personID,
				Type:           DetailRuleMismatch,
				RuleMismatches: mismatches,
			})
		}
	}

	if rep.Counts.GTCount > 0 {
		rep.PersonLevelAccuracy = float64(rep.Counts.CorrectPersons) / float64(rep.Counts.GTCount)
	}
	if rep.Counts.TotalRuleChecks > 0 {
		rep.OverallAccuracy = float64(rep.Counts.CorrectRuleChecks) / float64(rep.Counts.TotalRuleChecks)
	}
	for k, acc := range rep.RuleAccuracy {
		if acc.Total > 0 {
			acc.Accuracy = float64(acc.Correct) / float64(acc.Total)
			rep.RuleAccuracy[k] = acc
		}
	}
	return rep, nil
}
