package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// OutboxRepository — очередь событий заказов в памяти.
// Отправленные сообщения удаляются, неотправленные остаются со статусом failed.
type OutboxRepository struct {
	mu      sync.Mutex
	records map[string]*domain.OutboxMessage
	pending []string
	failed  int
	now     func() time.Time
}

// NewOutboxRepository создаёт пустую очередь.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		records: make(map[string]*domain.OutboxMessage),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue ставит событие в конец очереди.
func (r *OutboxRepository) Enqueue(event domain.OrderEvent) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := &domain.OutboxMessage{
		ID:        uuid.NewString(),
		Event:     event,
		Status:    domain.OutboxStatusPending,
		CreatedAt: r.now(),
	}
	r.records[msg.ID] = msg
	r.pending = append(r.pending, msg.ID)
	return *msg, nil
}

// PullPending возвращает до limit ожидающих сообщений, начиная с самого старого.
func (r *OutboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.pending) {
		limit = len(r.pending)
	}
	result := make([]domain.OutboxMessage, 0, limit)
	for _, id := range r.pending[:limit] {
		result = append(result, *r.records[id])
	}
	return result, nil
}

// Stats возвращает размер очереди и время постановки самого старого сообщения.
func (r *OutboxRepository) Stats() (domain.OutboxStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := domain.OutboxStats{
		PendingCount: len(r.pending),
		FailedCount:  r.failed,
	}
	if len(r.pending) > 0 {
		stats.OldestPendingAt = r.records[r.pending[0]].CreatedAt
	}
	return stats, nil
}

// MarkSent удаляет опубликованное сообщение.
func (r *OutboxRepository) MarkSent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dequeue(id) {
		return domain.ErrOutboxMessageNotFound
	}
	delete(r.records, id)
	return nil
}

// MarkFailed снимает сообщение с очереди, но сохраняет его для разбора.
func (r *OutboxRepository) MarkFailed(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dequeue(id) {
		return domain.ErrOutboxMessageNotFound
	}
	r.records[id].Status = domain.OutboxStatusFailed
	r.failed++
	return nil
}

// Failed возвращает копии сообщений, которые не удалось опубликовать.
func (r *OutboxRepository) Failed() []domain.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.OutboxMessage, 0, r.failed)
	for _, msg := range r.records {
		if msg.Status == domain.OutboxStatusFailed {
			result = append(result, *msg)
		}
	}
	slices.SortFunc(result, func(a, b domain.OutboxMessage) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result
}

func (r *OutboxRepository) dequeue(id string) bool {
	idx := slices.Index(r.pending, id)
	if idx < 0 {
		return false
	}
	r.pending = slices.Delete(r.pending, idx, idx+1)
	return true
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
