package domain

import (
	"context"
	"time"
)

// OrderEventType — тип события жизненного цикла заказа.
type OrderEventType string

const (
	OrderEventPlaced          OrderEventType = "order.placed"
	OrderEventQuantityChanged OrderEventType = "order.quantity_changed"
	OrderEventCanceled        OrderEventType = "order.canceled"
	OrderEventTableCleared    OrderEventType = "table.cleared"
)

// OrderEvent описывает уже применённое изменение заказа.
type OrderEvent struct {
	Type       OrderEventType `json:"event_type"`
	OrderID    OrderID        `json:"order_id"`
	TableID    TableID        `json:"table_id"`
	MenuItemID MenuItemID     `json:"menu_item_id"`
	Quantity   uint32         `json:"quantity"`
	Occurred   time.Time      `json:"occurred"`
}

// NewOrderEvent строит событие из записи заказа.
func NewOrderEvent(eventType OrderEventType, order OrderRecord, occurred time.Time) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		TableID:    order.Item.Table.ID,
		MenuItemID: order.Item.MenuItem.ID,
		Quantity:   order.Item.Quantity,
		Occurred:   occurred,
	}
}

// OrderEventPublisher публикует события наружу. Ошибка публикации не
// откатывает изменение в репозитории.
type OrderEventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}
