package memory_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
	"github.com/vladislavdragonenkov/restaurant/internal/storage/memory"
)

func outboxEvent(order domain.OrderID) domain.OrderEvent {
	return domain.OrderEvent{Type: domain.OrderEventPlaced, OrderID: order, TableID: 1, MenuItemID: 1, Quantity: 1}
}

func TestOutboxRepository_EnqueueAndPull(t *testing.T) {
	repo := memory.NewOutboxRepository()

	first, err := repo.Enqueue(outboxEvent(1))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, domain.OutboxStatusPending, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := repo.Enqueue(outboxEvent(2))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.OrderID(1), pending[0].Event.OrderID)
	assert.Equal(t, domain.OrderID(2), pending[1].Event.OrderID)

	limited, err := repo.PullPending(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, first.ID, limited[0].ID)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingCount)
	assert.Equal(t, first.CreatedAt, stats.OldestPendingAt)
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	repo := memory.NewOutboxRepository()

	sent, err := repo.Enqueue(outboxEvent(1))
	require.NoError(t, err)
	failed, err := repo.Enqueue(outboxEvent(2))
	require.NoError(t, err)

	require.NoError(t, repo.MarkSent(sent.ID))
	require.NoError(t, repo.MarkFailed(failed.ID))

	pending, err := repo.PullPending(0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, domain.OutboxStats{FailedCount: 1}, stats)

	dead := repo.Failed()
	require.Len(t, dead, 1)
	assert.Equal(t, failed.ID, dead[0].ID)
	assert.Equal(t, domain.OutboxStatusFailed, dead[0].Status)

	assert.ErrorIs(t, repo.MarkSent(sent.ID), domain.ErrOutboxMessageNotFound)
	assert.ErrorIs(t, repo.MarkFailed(failed.ID), domain.ErrOutboxMessageNotFound)
	assert.ErrorIs(t, repo.MarkSent("unknown"), domain.ErrOutboxMessageNotFound)
}

func TestOutboxRepository_PullReturnsCopies(t *testing.T) {
	repo := memory.NewOutboxRepository()
	_, err := repo.Enqueue(outboxEvent(1))
	require.NoError(t, err)

	pending, err := repo.PullPending(1)
	require.NoError(t, err)
	pending[0].Event.Quantity = 99

	again, err := repo.PullPending(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), again[0].Event.Quantity)
}

func TestOutboxRepository_ConcurrentEnqueue(t *testing.T) {
	repo := memory.NewOutboxRepository()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := repo.Enqueue(outboxEvent(domain.OrderID(id)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 50, stats.PendingCount)
}
