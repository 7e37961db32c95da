package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if outcome == "" {
				return metric.GetCounter().GetValue()
			}
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestPrometheusObserverRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	observer, err := NewPrometheusObserver("bptest", reg)
	if err != nil {
		t.Fatalf("new observer failed: %v", err)
	}
	observer.RecordIssue(OutcomeSuccess)
	observer.RecordIssue(OutcomeRejected)
	observer.RecordRedeem(OutcomeSuccess, 20*time.Millisecond)
	observer.RecordRollup(time.Second, errors.New("partial"))

	if got := counterValue(t, reg, "bptest_qr_issue_total", OutcomeRejected); got != 1 {
		t.Fatalf("unexpected rejected issue count: %v", got)
	}
	if got := counterValue(t, reg, "bptest_analytics_rollup_failures_total", ""); got != 1 {
		t.Fatalf("unexpected rollup failure count: %v", got)
	}

	recorder := httptest.NewRecorder()
	observer.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(recorder.Body)
	if !strings.Contains(string(body), "bptest_qr_redeem_total") {
		t.Fatalf("metrics output missing redeem counter: %s", body)
	}
}

func TestPrometheusObserverReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusObserver("bpdup", reg); err != nil {
		t.Fatalf("first observer failed: %v", err)
	}
	second, err := NewPrometheusObserver("bpdup", reg)
	if err != nil {
		t.Fatalf("second observer should reuse collectors: %v", err)
	}
	second.RecordIssue(OutcomeSuccess)
	if got := counterValue(t, reg, "bpdup_qr_issue_total", OutcomeSuccess); got != 1 {
		t.Fatalf("collectors should be shared, got %v", got)
	}
}

func TestNilObserverIsSafe(t *testing.T) {
	var observer *PrometheusObserver
	observer.RecordIssue(OutcomeSuccess)
	observer.RecordRedeem(OutcomeError, time.Millisecond)
	Nop().RecordOutboxPublish(OutcomeSuccess)
}
