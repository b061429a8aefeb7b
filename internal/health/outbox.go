package health

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// DefaultOutboxBacklogLimit — размер очереди, после которого доставка считается отстающей.
const DefaultOutboxBacklogLimit = 1000

// OutboxStatsSource отдаёт состояние очереди событий.
type OutboxStatsSource interface {
	Stats() (domain.OutboxStats, error)
}

// OutboxChecker сообщает о деградации, если события не доставляются.
// Сервис заказов продолжает работать и без брокера, поэтому unhealthy здесь не бывает.
type OutboxChecker struct {
	source       OutboxStatsSource
	backlogLimit int
}

func NewOutboxChecker(source OutboxStatsSource, backlogLimit int) *OutboxChecker {
	if backlogLimit <= 0 {
		backlogLimit = DefaultOutboxBacklogLimit
	}
	return &OutboxChecker{source: source, backlogLimit: backlogLimit}
}

func (c *OutboxChecker) Check(context.Context) Check {
	started := time.Now()
	check := Check{Name: "outbox", Status: StatusHealthy}

	stats, err := c.source.Stats()
	if err != nil {
		check.Status = StatusDegraded
		check.Message = err.Error()
		check.DurationMs = time.Since(started).Milliseconds()
		return check
	}

	check.Details = map[string]int{
		"pending": stats.PendingCount,
		"failed":  stats.FailedCount,
	}
	switch {
	case stats.FailedCount > 0:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("%d order events were not delivered", stats.FailedCount)
	case stats.PendingCount > c.backlogLimit:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("%d order events are waiting for delivery", stats.PendingCount)
	}
	check.DurationMs = time.Since(started).Milliseconds()
	return check
}
