// Package metrics exposes Prometheus instrumentation for the verification
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

// Document outcomes recorded by ObserveDocument.
const (
	DocumentOK            = "ok"
	DocumentOCRFailed     = "ocr_failed"
	DocumentExtractFailed = "extract_failed"
)

type Metrics struct {
	Outcomes        *prometheus.CounterVec
	RuleResults     *prometheus.CounterVec
	Documents       *prometheus.CounterVec
	PersonDuration  prometheus.Histogram
	QueueDepth      prometheus.Gauge
	StoreSaveErrors prometheus.Counter
}

// New registers all pipeline metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycverify_outcomes_total",
			Help: "Persons verified, by overall status",
		}, []string{"status"}),
		RuleResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycverify_rule_results_total",
			Help: "Rule evaluations, by rule id and status",
		}, []string{"rule", "status"}),
		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycverify_documents_total",
			Help: "Documents processed, by document type and outcome",
		}, []string{"document_type", "outcome"}),
		PersonDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycverify_person_duration_seconds",
			Help:    "End-to-end processing time for one person",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "kycverify_queue_depth",
			Help: "Persons waiting in the processing queue",
		}),
		StoreSaveErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "kycverify_store_save_errors_total",
			Help: "Verification records that could not be persisted",
		}),
	}
}

// ObserveOutcome records the overall status and every rule result.
func (m *Metrics) ObserveOutcome(out entity.VerificationOutcome) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(string(out.OverallStatus)).Inc()
	for _, id := range constants.RuleIDs {
		if r, ok := out.Rules[id]; ok {
			m.RuleResults.WithLabelValues(string(id), string(r.Status)).Inc()
		}
	}
}

// ObservePerson records the duration of one person since start.
func (m *Metrics) ObservePerson(start time.Time) {
	if m == nil {
		return
	}
	m.PersonDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveDocument(dt constants.DocumentType, outcome string) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(string(dt), outcome).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) IncStoreSaveErrors() {
	if m == nil {
		return
	}
	m.StoreSaveErrors.Inc()
}
