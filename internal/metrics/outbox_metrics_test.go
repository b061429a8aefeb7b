package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetrics(t *testing.T) {
	m := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordEnqueued()
	m.RecordEnqueued()
	m.RecordPublishAttempt(PublishResultSent)
	m.RecordPublishAttempt(PublishResultRetryError)
	m.RecordPublishAttempt(PublishResultRetryError)

	if got := counterValue(t, m.enqueued); got != 2 {
		t.Fatalf("expected 2 enqueued, got %f", got)
	}
	if got := counterValue(t, m.publishAttempts.WithLabelValues(PublishResultRetryError)); got != 2 {
		t.Fatalf("expected 2 retry errors, got %f", got)
	}
	if got := counterValue(t, m.publishAttempts.WithLabelValues(PublishResultSent)); got != 1 {
		t.Fatalf("expected 1 sent, got %f", got)
	}
}

func TestOutboxMetrics_SetBacklog(t *testing.T) {
	m := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())

	m.SetBacklog(3, 1500*time.Millisecond)
	if got := gaugeValue(t, m.pending); got != 3 {
		t.Fatalf("expected 3 pending, got %f", got)
	}
	if got := gaugeValue(t, m.oldestPendingAge); got != 1.5 {
		t.Fatalf("expected age 1.5s, got %f", got)
	}

	m.SetBacklog(0, -time.Second)
	if got := gaugeValue(t, m.oldestPendingAge); got != 0 {
		t.Fatalf("expected negative age clamped to 0, got %f", got)
	}
}

func TestOutboxMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewOutboxMetricsWithRegisterer(reg)
	second := NewOutboxMetricsWithRegisterer(reg)

	first.RecordEnqueued()
	if got := counterValue(t, second.enqueued); got != 1 {
		t.Fatalf("expected shared counter value 1, got %f", got)
	}
}
