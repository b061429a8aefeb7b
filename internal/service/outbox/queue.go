package outbox

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
	"github.com/vladislavdragonenkov/restaurant/internal/metrics"
)

// Queue реализует domain.OrderEventPublisher: событие только ставится в outbox,
// в брокер его доставляет Worker.
type Queue struct {
	repo    domain.OutboxRepository
	metrics *metrics.OutboxMetrics
}

// NewQueue создаёт паблишер поверх outbox. m может быть nil.
func NewQueue(repo domain.OutboxRepository, m *metrics.OutboxMetrics) *Queue {
	return &Queue{repo: repo, metrics: m}
}

func (q *Queue) Publish(_ context.Context, event domain.OrderEvent) error {
	if _, err := q.repo.Enqueue(event); err != nil {
		return fmt.Errorf("enqueue %s event: %w", event.Type, err)
	}
	if q.metrics != nil {
		q.metrics.RecordEnqueued()
	}
	return nil
}

var _ domain.OrderEventPublisher = (*Queue)(nil)
