package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestVerificationMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewVerificationMetrics(reg)
	metrics.IncDecision("Approved")
	metrics.IncDecision("Approved")
	metrics.IncDecision("ExceptionReview")
	metrics.ObserveStage("scoring", 150*time.Millisecond)
	metrics.IncIssued()
	metrics.IncRevoked()
	metrics.IncCheck("valid")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "verification_decisions_total", "decision", "Approved"); err != nil {
		t.Fatalf("fetch decisions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected approved=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "public_verify_checks_total", "result", "valid"); err != nil {
		t.Fatalf("fetch checks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected valid=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "verification_duration_seconds", "stage", "scoring"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	issued := findMetricFamily(mfs, "certificates_issued_total")
	if issued == nil || issued.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected issued counter = 1")
	}
}

func TestVerificationMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewVerificationMetrics(nil)
	metrics.IncDecision("Approved")
	metrics.ObserveStage("scoring", time.Second)
	metrics.IncIssued()
	metrics.IncRevoked()
	metrics.IncCheck("valid")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
