package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// Store делает Repository безопасным для конкурентного доступа:
// чтения выполняются параллельно, запись исключает всех остальных.
// Store никогда не захватывает блокировки других хранилищ, поэтому операции
// над несколькими сущностями собираются вызывающим по схеме «прочитал, затем записал».
type Store[I domain.ID, T any] struct {
	mu   sync.RWMutex
	repo *Repository[I, T]
}

// NewStore оборачивает репозиторий. После этого repo нельзя использовать напрямую.
func NewStore[I domain.ID, T any](repo *Repository[I, T]) *Store[I, T] {
	return &Store[I, T]{repo: repo}
}

func (s *Store[I, T]) GetAll() ([]domain.Record[I, T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.repo.GetAll(), nil
}

func (s *Store[I, T]) Get(id I) (domain.Record[I, T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.repo.Get(id)
}

func (s *Store[I, T]) Create(item T) (domain.Record[I, T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Create(item), nil
}

func (s *Store[I, T]) Update(id I, item T) (domain.Record[I, T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Update(id, item)
}

func (s *Store[I, T]) Remove(id I) (domain.Record[I, T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Remove(id)
}

// Filter читает под общей блокировкой.
func (s *Store[I, T]) Filter(pred func(domain.Record[I, T]) bool) []domain.Record[I, T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.repo.Filter(pred)
}

// RemoveFunc выбирает и удаляет записи в одной эксклюзивной секции.
func (s *Store[I, T]) RemoveFunc(pred func(domain.Record[I, T]) bool) []domain.Record[I, T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.RemoveFunc(pred)
}

// Len возвращает количество живых записей.
func (s *Store[I, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.repo.Len()
}

var (
	_ domain.TableRepository    = (*Store[domain.TableID, domain.Table])(nil)
	_ domain.MenuItemRepository = (*Store[domain.MenuItemID, domain.MenuItem])(nil)
)
