package domain

import (
	"errors"
	"time"
)

// ErrOutboxMessageNotFound — сообщения с таким идентификатором нет в очереди.
var ErrOutboxMessageNotFound = errors.New("outbox message not found")

// OutboxStatus — состояние сообщения в очереди событий.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage — событие заказа, ожидающее отправки брокеру.
type OutboxMessage struct {
	ID        string
	Event     OrderEvent
	Status    OutboxStatus
	CreatedAt time.Time
}

// OutboxStats описывает текущий backlog очереди.
type OutboxStats struct {
	PendingCount    int
	FailedCount     int
	OldestPendingAt time.Time
}

// OutboxRepository хранит события до их публикации.
// PullPending отдаёт сообщения в порядке постановки в очередь.
type OutboxRepository interface {
	Enqueue(event OrderEvent) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}
