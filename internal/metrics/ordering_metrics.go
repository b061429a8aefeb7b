package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины удаления заказа (label reason).
const (
	CancelReasonCancel       = "cancel"
	CancelReasonZeroQuantity = "zero_quantity"
	CancelReasonClearTable   = "clear_table"
)

// Причины отказа (label reason).
const (
	RejectReasonTableNotFound    = "table_not_found"
	RejectReasonMenuItemNotFound = "menu_item_not_found"
	RejectReasonBothNotFound     = "table_and_menu_item_not_found"
	RejectReasonInvalidQuantity  = "invalid_quantity"
	RejectReasonOrderNotFound    = "order_not_found"
)

// OrderingMetrics содержит метрики жизненного цикла заказов.
type OrderingMetrics struct {
	ordersPlaced    prometheus.Counter
	ordersCanceled  *prometheus.CounterVec
	quantityUpdates prometheus.Counter
	rejections      *prometheus.CounterVec
	publishFailures prometheus.Counter

	operationDuration *prometheus.HistogramVec

	// Gauge открытых заказов
	openOrders prometheus.Gauge
}

// NewOrderingMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewOrderingMetrics() *OrderingMetrics {
	return NewOrderingMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderingMetricsWithRegisterer позволяет тестам использовать изолированный реестр.
// Повторная регистрация возвращает уже зарегистрированные коллекторы.
func NewOrderingMetricsWithRegisterer(registerer prometheus.Registerer) *OrderingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderingMetrics{
		ordersPlaced: register(registerer, "restaurant_orders_placed_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restaurant_orders_placed_total",
			Help: "Total number of orders placed",
		})),
		ordersCanceled: register(registerer, "restaurant_orders_canceled_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restaurant_orders_canceled_total",
			Help: "Total number of orders removed, by reason",
		}, []string{"reason"})),
		quantityUpdates: register(registerer, "restaurant_order_quantity_updates_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restaurant_order_quantity_updates_total",
			Help: "Total number of order quantity changes to a non-zero value",
		})),
		rejections: register(registerer, "restaurant_order_rejections_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restaurant_order_rejections_total",
			Help: "Total number of rejected ordering operations, by reason",
		}, []string{"reason"})),
		publishFailures: register(registerer, "restaurant_event_publish_failures_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restaurant_event_publish_failures_total",
			Help: "Total number of order events that failed to publish",
		})),
		operationDuration: register(registerer, "restaurant_order_operation_duration_seconds", prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "restaurant_order_operation_duration_seconds",
			Help:    "Duration of ordering operations in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation"})),
		openOrders: register(registerer, "restaurant_open_orders", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "restaurant_open_orders",
			Help: "Number of orders currently open",
		})),
	}
}

func register[C prometheus.Collector](registerer prometheus.Registerer, name string, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(C)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", name))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector %q: %v", name, err))
	}
	return collector
}

// RecordPlaced учитывает новый заказ.
func (m *OrderingMetrics) RecordPlaced() {
	m.ordersPlaced.Inc()
	m.openOrders.Inc()
}

// RecordCanceled учитывает count удалённых заказов.
func (m *OrderingMetrics) RecordCanceled(reason string, count int) {
	if count <= 0 {
		return
	}
	m.ordersCanceled.WithLabelValues(reason).Add(float64(count))
	m.openOrders.Sub(float64(count))
}

// RecordQuantityUpdated учитывает изменение количества.
func (m *OrderingMetrics) RecordQuantityUpdated() {
	m.quantityUpdates.Inc()
}

// RecordRejected учитывает отклонённую операцию.
func (m *OrderingMetrics) RecordRejected(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

// RecordPublishFailure учитывает неопубликованное событие.
func (m *OrderingMetrics) RecordPublishFailure() {
	m.publishFailures.Inc()
}

// RecordOperationDuration записывает длительность операции.
func (m *OrderingMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetOpenOrders выставляет gauge, например после загрузки начальных данных.
func (m *OrderingMetrics) SetOpenOrders(count int) {
	m.openOrders.Set(float64(count))
}
