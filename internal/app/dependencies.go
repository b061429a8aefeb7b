package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
	"github.com/vladislavdragonenkov/restaurant/internal/metrics"
	"github.com/vladislavdragonenkov/restaurant/internal/service/ordering"
	"github.com/vladislavdragonenkov/restaurant/internal/storage/memory"
)

// Dependencies содержит собранные компоненты сервиса.
type Dependencies struct {
	DB        *memory.Database
	Publisher domain.OrderEventPublisher
	Metrics   *metrics.OrderingMetrics
	Ordering  *ordering.Service
	Logger    *log.Entry
	// Outbox — очередь событий; nil, если Kafka не настроена.
	Outbox *memory.OutboxRepository

	events          *eventPipeline
	shutdownTimeout time.Duration
}

// NewDependencies загружает начальные данные и собирает сервис заказов.
// registerer может быть nil, тогда метрики попадают в глобальный реестр.
func NewDependencies(cfg Config, registerer prometheus.Registerer, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	seed, err := loadSeed(cfg)
	if err != nil {
		return nil, err
	}
	db, err := memory.NewDatabase(seed.Seed())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	stats := db.Stats()
	logger.WithFields(log.Fields{
		"tables":     stats.Tables,
		"menu_items": stats.MenuItems,
		"seed_path":  cfg.SeedPath,
	}).Info("storage initialized")

	orderingMetrics := metrics.NewOrderingMetricsWithRegisterer(registerer)
	orderingMetrics.SetOpenOrders(stats.Orders)

	events := initEventPipeline(cfg, registerer, logger)

	return &Dependencies{
		DB:              db,
		Publisher:       events.Publisher,
		Metrics:         orderingMetrics,
		Ordering:        ordering.NewService(db, events.Publisher, orderingMetrics, logger.WithField("layer", "ordering")),
		Logger:          logger,
		Outbox:          events.Outbox,
		events:          events,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Start запускает фоновую доставку событий.
func (d *Dependencies) Start(ctx context.Context) {
	d.events.Start(ctx)
}

// Close досылает накопленные события и освобождает внешние ресурсы.
func (d *Dependencies) Close() {
	d.events.Close(d.shutdownTimeout)
}
