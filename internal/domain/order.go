package domain

import (
	"math"
	"time"
)

// ID — ограничение для идентификаторов сущностей. У каждой сущности свой
// тип, поэтому TableID нельзя случайно передать туда, где ждут OrderID.
type ID interface {
	~uint32
}

// TableID идентифицирует стол в зале.
type TableID uint32

// MenuItemID идентифицирует позицию меню.
type MenuItemID uint32

// OrderID идентифицирует заказ.
type OrderID uint32

// Minutes — длительность в целых минутах (время приготовления, оценка ожидания).
type Minutes uint32

// Duration переводит минуты в time.Duration.
func (m Minutes) Duration() time.Duration {
	return time.Duration(m) * time.Minute
}

// Record связывает сущность с её идентификатором в репозитории.
type Record[I ID, T any] struct {
	ID   I `json:"id"`
	Item T `json:"item"`
}

// NewRecord собирает запись из идентификатора и значения.
func NewRecord[I ID, T any](id I, item T) Record[I, T] {
	return Record[I, T]{ID: id, Item: item}
}

type (
	TableRecord    = Record[TableID, Table]
	MenuItemRecord = Record[MenuItemID, MenuItem]
	OrderRecord    = Record[OrderID, Order]
)

// Table — стол. Атрибутов раскладки зала пока нет.
type Table struct{}

// MenuItem — позиция меню.
type MenuItem struct {
	Name     string  `json:"name" yaml:"name"`
	CookTime Minutes `json:"cook_time" yaml:"cook_time"`
}

// Order хранит снимки стола и позиции меню на момент размещения заказа,
// а не ссылки на них: чтение заказов не требует обращения к другим репозиториям.
type Order struct {
	Table    TableRecord    `json:"table"`
	MenuItem MenuItemRecord `json:"menu_item"`
	Quantity uint32         `json:"quantity"`
	// PlacedAt задаётся один раз при размещении и дальше не меняется.
	PlacedAt time.Time `json:"time_placed"`
}

// TableID возвращает идентификатор стола, к которому относится заказ.
func (o Order) TableID() TableID {
	return o.Table.ID
}

// RemainingCookTime оценивает, сколько ещё готовить заказ:
// cookTime*quantity − (now − placedAt), но не меньше нуля.
// Если полное время не помещается в time.Duration, оно насыщается до math.MaxInt64.
func (o Order) RemainingCookTime(now time.Time) time.Duration {
	total := time.Duration(math.MaxInt64)
	if minutes := o.totalMinutes(); minutes <= uint64(math.MaxInt64/int64(time.Minute)) {
		total = time.Duration(minutes) * time.Minute
	}
	remaining := total - o.elapsed(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EstimatedMinutesRemaining — оставшееся время в целых минутах (с отбрасыванием
// дробной части), не больше math.MaxUint32.
func (o Order) EstimatedMinutesRemaining(now time.Time) Minutes {
	elapsed := o.elapsed(now)
	passed := uint64(elapsed / time.Minute)
	if elapsed%time.Minute > 0 {
		passed++
	}
	total := o.totalMinutes()
	if passed >= total {
		return 0
	}
	return Minutes(min(total-passed, math.MaxUint32))
}

func (o Order) totalMinutes() uint64 {
	return uint64(o.MenuItem.Item.CookTime) * uint64(o.Quantity)
}

// elapsed не бывает отрицательным: часы, отстающие от PlacedAt, не продлевают заказ.
func (o Order) elapsed(now time.Time) time.Duration {
	return max(now.Sub(o.PlacedAt), 0)
}
