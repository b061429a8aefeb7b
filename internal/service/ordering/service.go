package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
	"github.com/vladislavdragonenkov/restaurant/internal/metrics"
)

const tracerName = "github.com/vladislavdragonenkov/restaurant/internal/service/ordering"

const (
	operationPlace       = "place"
	operationSetQuantity = "set_quantity"
	operationCancel      = "cancel"
	operationClearTable  = "clear_table"
)

// Service реализует жизненный цикл заказа поверх domain.Database.
// Собственного состояния у сервиса нет: всё хранится в репозиториях.
//
// Операции, затрагивающие несколько репозиториев, читают и пишут по очереди
// и никогда не держат две блокировки одновременно.
type Service struct {
	db        domain.Database
	publisher domain.OrderEventPublisher
	metrics   *metrics.OrderingMetrics
	logger    *log.Entry
	tracer    trace.Tracer
	now       func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTracerProvider задаёт провайдер трассировки вместо глобального.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = provider.Tracer(tracerName)
	}
}

// NewService конструирует сервис. publisher, m и logger могут быть nil.
func NewService(db domain.Database, publisher domain.OrderEventPublisher, m *metrics.OrderingMetrics, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "ordering")
	}
	if m == nil {
		m = metrics.NewOrderingMetrics()
	}
	s := &Service{
		db:        db,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now возвращает текущее время по часам сервиса.
func (s *Service) Now() time.Time {
	return s.now()
}

// Place размещает заказ: проверяет стол и позицию меню и сохраняет их снимки в заказе.
func (s *Service) Place(ctx context.Context, tableID domain.TableID, menuItemID domain.MenuItemID, quantity uint32) (domain.OrderRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ordering.Place", trace.WithAttributes(
		attribute.Int64("table.id", int64(tableID)),
		attribute.Int64("menu_item.id", int64(menuItemID)),
		attribute.Int64("order.quantity", int64(quantity)),
	))
	defer span.End()
	defer s.observe(operationPlace, time.Now())

	logger := s.logger.WithFields(log.Fields{
		"operation":    operationPlace,
		"table_id":     tableID,
		"menu_item_id": menuItemID,
	})

	if quantity == 0 {
		s.metrics.RecordRejected(metrics.RejectReasonInvalidQuantity)
		failSpan(span, domain.ErrInvalidQuantity)
		return domain.OrderRecord{}, domain.ErrInvalidQuantity
	}

	// Каждое чтение берёт блокировку своего репозитория и сразу её отпускает.
	table, tableErr := s.db.Tables().Get(tableID)
	item, itemErr := s.db.MenuItems().Get(menuItemID)

	refErr := &domain.ReferenceNotFoundError{TableID: tableID, MenuItemID: menuItemID}
	for _, lookup := range []struct {
		err     error
		missing *bool
	}{
		{tableErr, &refErr.TableMissing},
		{itemErr, &refErr.MenuItemMissing},
	} {
		if lookup.err == nil {
			continue
		}
		if !errors.Is(lookup.err, domain.ErrNotFound) {
			logger.WithError(lookup.err).Error("failed to resolve order references")
			failSpan(span, lookup.err)
			return domain.OrderRecord{}, fmt.Errorf("resolve order references: %w", lookup.err)
		}
		*lookup.missing = true
	}
	if refErr.TableMissing || refErr.MenuItemMissing {
		s.metrics.RecordRejected(rejectReason(refErr))
		logger.WithError(refErr).Warn("order references not found")
		failSpan(span, refErr)
		return domain.OrderRecord{}, refErr
	}

	record, err := s.db.Orders().Create(domain.Order{
		Table:    table,
		MenuItem: item,
		Quantity: quantity,
		PlacedAt: s.now(),
	})
	if err != nil {
		logger.WithError(err).Error("failed to create order")
		failSpan(span, err)
		return domain.OrderRecord{}, fmt.Errorf("create order: %w", err)
	}

	span.SetAttributes(attribute.Int64("order.id", int64(record.ID)))
	s.metrics.RecordPlaced()
	logger.WithField("order_id", record.ID).Debug("order placed")
	s.publish(ctx, domain.OrderEventPlaced, record)

	return record, nil
}

// SetQuantity меняет количество в заказе. Нулевое количество отменяет заказ;
// в этом случае возвращается удалённая запись с количеством 0.
func (s *Service) SetQuantity(ctx context.Context, id domain.OrderID, quantity uint32) (domain.OrderRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ordering.SetQuantity", trace.WithAttributes(
		attribute.Int64("order.id", int64(id)),
		attribute.Int64("order.quantity", int64(quantity)),
	))
	defer span.End()

	if quantity == 0 {
		removed, err := s.cancel(ctx, id, metrics.CancelReasonZeroQuantity)
		if err != nil {
			failSpan(span, err)
			return domain.OrderRecord{}, err
		}
		removed.Item.Quantity = 0
		return removed, nil
	}

	defer s.observe(operationSetQuantity, time.Now())

	current, err := s.db.Orders().Get(id)
	if err != nil {
		err = s.orderError(operationSetQuantity, id, err)
		failSpan(span, err)
		return domain.OrderRecord{}, err
	}

	order := current.Item
	order.Quantity = quantity

	// Между Get и Update заказ мог быть удалён конкурентно: Update тогда вернёт NotFound.
	updated, err := s.db.Orders().Update(id, order)
	if err != nil {
		err = s.orderError(operationSetQuantity, id, err)
		failSpan(span, err)
		return domain.OrderRecord{}, err
	}

	s.metrics.RecordQuantityUpdated()
	s.logger.WithFields(log.Fields{
		"operation": operationSetQuantity,
		"order_id":  id,
		"quantity":  quantity,
	}).Debug("order quantity changed")
	s.publish(ctx, domain.OrderEventQuantityChanged, updated)

	return updated, nil
}

// Cancel удаляет заказ.
func (s *Service) Cancel(ctx context.Context, id domain.OrderID) (domain.OrderRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ordering.Cancel", trace.WithAttributes(
		attribute.Int64("order.id", int64(id)),
	))
	defer span.End()

	removed, err := s.cancel(ctx, id, metrics.CancelReasonCancel)
	if err != nil {
		failSpan(span, err)
	}
	return removed, err
}

func (s *Service) cancel(ctx context.Context, id domain.OrderID, reason string) (domain.OrderRecord, error) {
	defer s.observe(operationCancel, time.Now())

	removed, err := s.db.Orders().Remove(id)
	if err != nil {
		return domain.OrderRecord{}, s.orderError(operationCancel, id, err)
	}

	s.metrics.RecordCanceled(reason, 1)
	s.logger.WithFields(log.Fields{
		"operation": operationCancel,
		"order_id":  id,
		"reason":    reason,
	}).Debug("order canceled")
	s.publish(ctx, domain.OrderEventCanceled, removed)

	return removed, nil
}

// ClearTable удаляет все заказы стола и возвращает их. Пустой результат — не ошибка.
func (s *Service) ClearTable(ctx context.Context, tableID domain.TableID) ([]domain.OrderRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ordering.ClearTable", trace.WithAttributes(
		attribute.Int64("table.id", int64(tableID)),
	))
	defer span.End()
	defer s.observe(operationClearTable, time.Now())

	removed, err := s.db.RemoveOrdersForTable(tableID)
	if err != nil {
		s.logger.WithError(err).WithField("table_id", tableID).Error("failed to clear table")
		failSpan(span, err)
		return nil, fmt.Errorf("clear table %d: %w", tableID, err)
	}

	span.SetAttributes(attribute.Int("orders.removed", len(removed)))
	s.metrics.RecordCanceled(metrics.CancelReasonClearTable, len(removed))
	s.logger.WithFields(log.Fields{
		"operation": operationClearTable,
		"table_id":  tableID,
		"removed":   len(removed),
	}).Debug("table cleared")
	for _, record := range removed {
		s.publish(ctx, domain.OrderEventTableCleared, record)
	}

	return removed, nil
}

// OrdersForTable возвращает открытые заказы стола.
func (s *Service) OrdersForTable(_ context.Context, tableID domain.TableID) ([]domain.OrderRecord, error) {
	orders, err := s.db.OrdersForTable(tableID)
	if err != nil {
		return nil, fmt.Errorf("orders for table %d: %w", tableID, err)
	}
	return orders, nil
}

// Order возвращает заказ или OrderNotFoundError.
func (s *Service) Order(_ context.Context, id domain.OrderID) (domain.OrderRecord, error) {
	record, err := s.db.Orders().Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.OrderRecord{}, &domain.OrderNotFoundError{ID: id, Cause: err}
		}
		return domain.OrderRecord{}, fmt.Errorf("get order %d: %w", id, err)
	}
	return record, nil
}

// Orders возвращает все открытые заказы.
func (s *Service) Orders(context.Context) ([]domain.OrderRecord, error) {
	return s.db.Orders().GetAll()
}

// Tables возвращает столы.
func (s *Service) Tables(context.Context) ([]domain.TableRecord, error) {
	return s.db.Tables().GetAll()
}

// MenuItems возвращает меню.
func (s *Service) MenuItems(context.Context) ([]domain.MenuItemRecord, error) {
	return s.db.MenuItems().GetAll()
}

func (s *Service) orderError(operation string, id domain.OrderID, err error) error {
	logger := s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  id,
	})
	if errors.Is(err, domain.ErrNotFound) {
		s.metrics.RecordRejected(metrics.RejectReasonOrderNotFound)
		logger.Warn("order not found")
		return &domain.OrderNotFoundError{ID: id, Cause: err}
	}
	logger.Error("order repository operation failed")
	return fmt.Errorf("%s order %d: %w", operation, id, err)
}

// publish отправляет событие уже после изменения репозитория; ошибка только логируется.
func (s *Service) publish(ctx context.Context, eventType domain.OrderEventType, record domain.OrderRecord) {
	if s.publisher == nil {
		return
	}
	event := domain.NewOrderEvent(eventType, record, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.RecordPublishFailure()
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   record.ID,
		}).Warn("failed to publish order event")
	}
}

func (s *Service) observe(operation string, started time.Time) {
	s.metrics.RecordOperationDuration(operation, time.Since(started))
}

func rejectReason(err *domain.ReferenceNotFoundError) string {
	switch {
	case err.TableMissing && err.MenuItemMissing:
		return metrics.RejectReasonBothNotFound
	case err.TableMissing:
		return metrics.RejectReasonTableNotFound
	default:
		return metrics.RejectReasonMenuItemNotFound
	}
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
