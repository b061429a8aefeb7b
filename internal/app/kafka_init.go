package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
	"github.com/vladislavdragonenkov/restaurant/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/restaurant/internal/metrics"
	"github.com/vladislavdragonenkov/restaurant/internal/service/outbox"
	"github.com/vladislavdragonenkov/restaurant/internal/storage/memory"
)

// eventPipeline доставляет события заказов. С Kafka сервис пишет в outbox,
// а worker переносит события в topic; без Kafka события отбрасываются.
type eventPipeline struct {
	Publisher domain.OrderEventPublisher
	Outbox    *memory.OutboxRepository

	worker   *outbox.Worker
	producer *kafka.Producer
	logger   *log.Entry

	stop context.CancelFunc
	done chan struct{}
}

// initPublisher поднимает Kafka-паблишер, если заданы брокеры.
// Без брокеров или при ошибке подключения события не публикуются, сервис продолжает работу.
func initPublisher(brokers []string, topic string, logger *log.Entry) (domain.OrderEventPublisher, *kafka.Producer) {
	if len(brokers) == 0 {
		logger.Info("kafka brokers are not configured, order events are not published")
		return kafka.NoopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(brokers, logger.WithField("layer", "kafka"))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return kafka.NoopPublisher{}, nil
	}

	logger.WithFields(log.Fields{
		"brokers": brokers,
		"topic":   topic,
	}).Info("kafka producer initialized")
	return kafka.NewEventPublisher(producer, topic), producer
}

func initEventPipeline(cfg Config, registerer prometheus.Registerer, logger *log.Entry) *eventPipeline {
	publisher, producer := initPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if producer == nil {
		return &eventPipeline{Publisher: publisher, logger: logger}
	}
	return newEventPipeline(producer, cfg, registerer, logger)
}

func newEventPipeline(producer *kafka.Producer, cfg Config, registerer prometheus.Registerer, logger *log.Entry) *eventPipeline {
	box := memory.NewOutboxRepository()
	outboxMetrics := metrics.NewOutboxMetricsWithRegisterer(registerer)

	opts := []outbox.Option{
		outbox.WithLogger(logger.WithField("layer", "outbox")),
		outbox.WithMetrics(outboxMetrics),
	}
	if cfg.OutboxPollInterval > 0 {
		opts = append(opts, outbox.WithPollInterval(cfg.OutboxPollInterval))
	}
	if cfg.KafkaDLQTopic != "" {
		opts = append(opts, outbox.WithDLQPublisher(kafka.NewEventPublisher(producer, cfg.KafkaDLQTopic)))
	}

	return &eventPipeline{
		Publisher: outbox.NewQueue(box, outboxMetrics),
		Outbox:    box,
		worker:    outbox.NewWorker(box, kafka.NewEventPublisher(producer, cfg.KafkaTopic), opts...),
		producer:  producer,
		logger:    logger,
	}
}

// Start запускает перенос событий из outbox до отмены ctx или вызова Close.
func (p *eventPipeline) Start(ctx context.Context) {
	if p.worker == nil || p.done != nil {
		return
	}
	ctx, p.stop = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		p.worker.Run(ctx)
	}()
}

// Close дожидается отправки накопленных событий не дольше timeout и закрывает producer.
func (p *eventPipeline) Close(timeout time.Duration) {
	if p.done != nil {
		p.stop()
		<-p.done
	}
	if p.worker != nil {
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if left := p.worker.Flush(ctx); left > 0 {
			p.logger.WithField("pending", left).Warn("outbox is not drained, pending order events are dropped")
		}
		cancel()
	}
	closeKafka(p.producer, p.logger)
}

// closeKafka закрывает producer, если он был создан.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
