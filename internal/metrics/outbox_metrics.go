package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты попыток публикации (label result).
const (
	PublishResultSent       = "sent"
	PublishResultRetryError = "retry_error"
	PublishResultFailed     = "failed"
	PublishResultDLQFailed  = "dlq_failed"
)

// OutboxMetrics содержит метрики очереди событий заказов.
type OutboxMetrics struct {
	publishAttempts  *prometheus.CounterVec
	enqueued         prometheus.Counter
	pending          prometheus.Gauge
	oldestPendingAge prometheus.Gauge
}

// NewOutboxMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewOutboxMetrics() *OutboxMetrics {
	return NewOutboxMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOutboxMetricsWithRegisterer позволяет тестам использовать изолированный реестр.
func NewOutboxMetricsWithRegisterer(registerer prometheus.Registerer) *OutboxMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OutboxMetrics{
		publishAttempts: register(registerer, "restaurant_outbox_publish_attempts_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restaurant_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result",
		}, []string{"result"})),
		enqueued: register(registerer, "restaurant_outbox_enqueued_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restaurant_outbox_enqueued_total",
			Help: "Total number of order events put into the outbox",
		})),
		pending: register(registerer, "restaurant_outbox_pending_records", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "restaurant_outbox_pending_records",
			Help: "Current number of pending records in the outbox",
		})),
		oldestPendingAge: register(registerer, "restaurant_outbox_oldest_pending_age_seconds", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "restaurant_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record",
		})),
	}
}

// RecordPublishAttempt учитывает попытку публикации с результатом result.
func (m *OutboxMetrics) RecordPublishAttempt(result string) {
	m.publishAttempts.WithLabelValues(result).Inc()
}

// RecordEnqueued учитывает событие, поставленное в очередь.
func (m *OutboxMetrics) RecordEnqueued() {
	m.enqueued.Inc()
}

// SetBacklog выставляет размер очереди и возраст самого старого сообщения.
func (m *OutboxMetrics) SetBacklog(pending int, oldestAge time.Duration) {
	if oldestAge < 0 {
		oldestAge = 0
	}
	m.pending.Set(float64(pending))
	m.oldestPendingAge.Set(oldestAge.Seconds())
}
