// Package metrics holds the Prometheus instruments for reviews and deploy
// decisions.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments for the reviewer.
type Metrics struct {
	ReviewsTotal     *prometheus.CounterVec
	DeployDecisions  *prometheus.CounterVec
	DetectorDuration *prometheus.HistogramVec
	LeakageFindings  prometheus.Counter
	SessionSaveErrs  prometheus.Counter
}

// New creates the instruments and registers them with reg. A nil reg
// creates unregistered instruments, which is handy in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReviewsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "critic",
				Name:      "reviews_total",
				Help:      "Completed reviews by executive risk level",
			},
			[]string{"risk_level"},
		),
		DeployDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "critic",
				Name:      "deploy_decisions_total",
				Help:      "Deploy gate decisions by outcome",
			},
			[]string{"deploy"},
		),
		DetectorDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "critic",
				Name:      "detector_duration_seconds",
				Help:      "Wall time per review stage",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"detector"},
		),
		LeakageFindings: f.NewCounter(prometheus.CounterOpts{
			Namespace: "critic",
			Name:      "leakage_findings_total",
			Help:      "Features flagged as leaking the target",
		}),
		SessionSaveErrs: f.NewCounter(prometheus.CounterOpts{
			Namespace: "critic",
			Name:      "session_save_errors_total",
			Help:      "Session snapshots that failed to persist",
		}),
	}
}

// ObserveStage records how long a stage took since start. Nil-safe.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.DetectorDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Review counts a finished review. Nil-safe.
func (m *Metrics) Review(riskLevel string, leakageFindings int) {
	if m == nil {
		return
	}
	m.ReviewsTotal.WithLabelValues(riskLevel).Inc()
	m.LeakageFindings.Add(float64(leakageFindings))
}

// Decision counts a deploy gate outcome. Nil-safe.
func (m *Metrics) Decision(deploy bool) {
	if m == nil {
		return
	}
	m.DeployDecisions.WithLabelValues(strconv.FormatBool(deploy)).Inc()
}

// SessionSaveFailed counts a failed session save. Nil-safe.
func (m *Metrics) SessionSaveFailed() {
	if m == nil {
		return
	}
	m.SessionSaveErrs.Inc()
}
