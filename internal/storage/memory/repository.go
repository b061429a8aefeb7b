package memory

import (
	"fmt"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// Repository — in-memory коллекция сущностей одного типа.
// Порядок вставки сохраняется, index хранит позиции живых идентификаторов.
// Repository не синхронизирован: для конкурентного доступа его оборачивает Store.
type Repository[I domain.ID, T any] struct {
	kind  domain.EntityKind
	items []domain.Record[I, T]
	index map[I]int
	ids   *IDGenerator[I]
	clone func(T) T
}

// Option настраивает Repository.
type Option[T any] func(*repositoryOptions[T])

type repositoryOptions[T any] struct {
	clone func(T) T
}

// WithClone задаёт глубокое копирование значений. Нужен для типов со срезами,
// картами или указателями; для плоских структур достаточно копирования по значению.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(o *repositoryOptions[T]) {
		o.clone = clone
	}
}

// NewRepository создаёт репозиторий и загружает в него initial с сохранением
// идентификаторов. Нумерация новых записей продолжается после максимального из них.
func NewRepository[I domain.ID, T any](kind domain.EntityKind, initial []domain.Record[I, T], opts ...Option[T]) (*Repository[I, T], error) {
	options := repositoryOptions[T]{}
	for _, opt := range opts {
		opt(&options)
	}

	r := &Repository[I, T]{
		kind:  kind,
		items: make([]domain.Record[I, T], 0, len(initial)),
		index: make(map[I]int, len(initial)),
		clone: options.clone,
	}

	var maxID I
	for _, record := range initial {
		if record.ID == 0 {
			return nil, fmt.Errorf("%s: %w", kind, domain.ErrInvalidID)
		}
		if _, exists := r.index[record.ID]; exists {
			return nil, fmt.Errorf("%s '%d': %w", kind, record.ID, domain.ErrDuplicateID)
		}
		r.index[record.ID] = len(r.items)
		r.items = append(r.items, r.copy(record))
		if record.ID > maxID {
			maxID = record.ID
		}
	}
	r.ids = ResumeIDGenerator(maxID)

	return r, nil
}

// GetAll возвращает копию всех записей в порядке вставки.
func (r *Repository[I, T]) GetAll() []domain.Record[I, T] {
	result := make([]domain.Record[I, T], len(r.items))
	for i, record := range r.items {
		result[i] = r.copy(record)
	}
	return result
}

// Get возвращает копию записи или NotFoundError.
func (r *Repository[I, T]) Get(id I) (domain.Record[I, T], error) {
	pos, ok := r.index[id]
	if !ok {
		return domain.Record[I, T]{}, r.notFound(id)
	}
	return r.copy(r.items[pos]), nil
}

// Create сохраняет копию значения под новым идентификатором.
func (r *Repository[I, T]) Create(item T) domain.Record[I, T] {
	record := r.copy(domain.NewRecord(r.ids.Next(), item))
	r.index[record.ID] = len(r.items)
	r.items = append(r.items, record)
	return r.copy(record)
}

// Update заменяет значение на месте, позиция записи не меняется.
func (r *Repository[I, T]) Update(id I, item T) (domain.Record[I, T], error) {
	pos, ok := r.index[id]
	if !ok {
		return domain.Record[I, T]{}, r.notFound(id)
	}
	r.items[pos] = r.copy(domain.NewRecord(id, item))
	return r.copy(r.items[pos]), nil
}

// Remove удаляет запись и возвращает её копию.
func (r *Repository[I, T]) Remove(id I) (domain.Record[I, T], error) {
	pos, ok := r.index[id]
	if !ok {
		return domain.Record[I, T]{}, r.notFound(id)
	}

	removed := r.items[pos]
	last := len(r.items) - 1
	copy(r.items[pos:], r.items[pos+1:])
	r.items[last] = domain.Record[I, T]{}
	r.items = r.items[:last]

	delete(r.index, id)
	for i := pos; i < len(r.items); i++ {
		r.index[r.items[i].ID] = i
	}
	return r.copy(removed), nil
}

// Filter возвращает копии записей, удовлетворяющих pred. Результат не nil.
func (r *Repository[I, T]) Filter(pred func(domain.Record[I, T]) bool) []domain.Record[I, T] {
	result := make([]domain.Record[I, T], 0)
	for _, record := range r.items {
		if pred(record) {
			result = append(result, r.copy(record))
		}
	}
	return result
}

// RemoveFunc удаляет все записи, удовлетворяющие pred, и возвращает их. Результат не nil.
func (r *Repository[I, T]) RemoveFunc(pred func(domain.Record[I, T]) bool) []domain.Record[I, T] {
	removed := make([]domain.Record[I, T], 0)
	kept := r.items[:0]
	for _, record := range r.items {
		if pred(record) {
			removed = append(removed, record)
			delete(r.index, record.ID)
			continue
		}
		kept = append(kept, record)
	}
	// обнуляем хвост, чтобы не держать ссылки на удалённые значения
	var zero domain.Record[I, T]
	for i := len(kept); i < len(r.items); i++ {
		r.items[i] = zero
	}
	r.items = kept
	for i, record := range r.items {
		r.index[record.ID] = i
	}
	return removed
}

// Len возвращает количество живых записей.
func (r *Repository[I, T]) Len() int {
	return len(r.items)
}

// LastID возвращает последний выданный или загруженный идентификатор.
func (r *Repository[I, T]) LastID() I {
	return r.ids.Last()
}

func (r *Repository[I, T]) copy(record domain.Record[I, T]) domain.Record[I, T] {
	if r.clone != nil {
		record.Item = r.clone(record.Item)
	}
	return record
}

func (r *Repository[I, T]) notFound(id I) error {
	return &domain.NotFoundError{Kind: r.kind, ID: uint32(id)}
}
