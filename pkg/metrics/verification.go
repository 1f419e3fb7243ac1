package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VerificationMetrics records counters and timings for the verification
// and certificate issuance pipeline.
type VerificationMetrics struct {
	decisions *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	issued    prometheus.Counter
	revoked   prometheus.Counter
	checks    *prometheus.CounterVec
}

// NewVerificationMetrics registers the verification metrics on the provided registerer.
func NewVerificationMetrics(reg prometheus.Registerer) *VerificationMetrics {
	if reg == nil {
		return &VerificationMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_decisions_total",
		Help: "Verification outcomes by resulting application status.",
	}, []string{"decision"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "verification_duration_seconds",
		Help:    "Duration of verification stages in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	issued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certificates_issued_total",
		Help: "Certificates generated and persisted.",
	})
	revoked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certificates_revoked_total",
		Help: "Certificates revoked.",
	})
	checks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "public_verify_checks_total",
		Help: "Public certificate verification checks by result.",
	}, []string{"result"})
	reg.MustRegister(decisions, duration, issued, revoked, checks)
	return &VerificationMetrics{
		decisions: decisions,
		duration:  duration,
		issued:    issued,
		revoked:   revoked,
		checks:    checks,
	}
}

// IncDecision increments the counter for the given verification outcome.
func (v *VerificationMetrics) IncDecision(decision string) {
	if v == nil || v.decisions == nil {
		return
	}
	v.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

// ObserveStage records the duration for the named pipeline stage.
func (v *VerificationMetrics) ObserveStage(stage string, duration time.Duration) {
	if v == nil || v.duration == nil {
		return
	}
	v.duration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// IncIssued increments the certificate issuance counter.
func (v *VerificationMetrics) IncIssued() {
	if v == nil || v.issued == nil {
		return
	}
	v.issued.Inc()
}

// IncRevoked increments the certificate revocation counter.
func (v *VerificationMetrics) IncRevoked() {
	if v == nil || v.revoked == nil {
		return
	}
	v.revoked.Inc()
}

// IncCheck increments the public verification check counter for a result.
func (v *VerificationMetrics) IncCheck(result string) {
	if v == nil || v.checks == nil {
		return
	}
	v.checks.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
