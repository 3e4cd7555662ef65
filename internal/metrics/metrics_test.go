package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// counterValue sums a counter family across label sets matching labels.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestObserveOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	out := entity.VerificationOutcome{
		OverallStatus: constants.StatusVerified,
		Rules: map[constants.RuleID]entity.RuleResult{
			constants.RuleNameMatch: {Status: constants.RulePass},
			constants.RuleDOBMatch:  {Status: constants.RulePass},
			constants.RulePANFormat: {Status: constants.RuleFail},
		},
	}
	m.ObserveOutcome(out)
	m.ObserveOutcome(out)

	assert.Equal(t, 2.0, counterValue(t, reg, "kycverify_outcomes_total", map[string]string{"status": "VERIFIED"}))
	assert.Equal(t, 4.0, counterValue(t, reg, "kycverify_rule_results_total", map[string]string{"status": "PASS"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "kycverify_rule_results_total",
		map[string]string{"rule": "rule_6_pan_format", "status": "FAIL"}))
}

func TestObserveDocument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDocument(constants.GovernmentID, DocumentOK)
	m.ObserveDocument(constants.BankStatement, DocumentOCRFailed)
	m.ObservePerson(time.Now())
	m.SetQueueDepth(3)
	m.IncStoreSaveErrors()

	assert.Equal(t, 1.0, counterValue(t, reg, "kycverify_documents_total", map[string]string{"outcome": "ocr_failed"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "kycverify_store_save_errors_total", nil))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOutcome(entity.VerificationOutcome{})
		m.ObservePerson(time.Now())
		m.ObserveDocument(constants.GovernmentID, DocumentOK)
		m.SetQueueDepth(1)
		m.IncStoreSaveErrors()
	})
}
