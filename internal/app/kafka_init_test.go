package app

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
	"github.com/vladislavdragonenkov/restaurant/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/restaurant/internal/service/outbox"
)

func TestInitPublisher_EmptyBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	publisher, producer := initPublisher(nil, kafka.TopicOrderEvents, logger)

	if producer != nil {
		t.Error("expected nil producer for empty brokers")
	}

	if _, ok := publisher.(kafka.NoopPublisher); !ok {
		t.Errorf("expected NoopPublisher, got %T", publisher)
	}
}

func TestInitPublisher_InvalidBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	// Брокер не существует: сервис должен продолжить без Kafka
	publisher, producer := initPublisher([]string{"invalid-broker:9999"}, kafka.TopicOrderEvents, logger)

	if producer != nil {
		t.Error("expected nil producer on error")
	}

	if _, ok := publisher.(kafka.NoopPublisher); !ok {
		t.Errorf("expected NoopPublisher fallback, got %T", publisher)
	}
}

func TestCloseKafka_NilProducer(_ *testing.T) {
	// Не должно паниковать
	closeKafka(nil, log.WithField("test", "kafka"))
}

func TestInitEventPipeline_WithoutKafka(t *testing.T) {
	pipeline := initEventPipeline(DefaultConfig(), prometheus.NewRegistry(), log.WithField("test", "events"))

	assert.IsType(t, kafka.NoopPublisher{}, pipeline.Publisher)
	assert.Nil(t, pipeline.Outbox)

	// без воркера Start и Close ничего не делают
	pipeline.Start(context.Background())
	pipeline.Close(time.Second)
}

func sentEvent(t *testing.T, msg *sarama.ProducerMessage) kafka.OrderEventMessage {
	t.Helper()
	raw, err := msg.Value.Encode()
	require.NoError(t, err)
	var event kafka.OrderEventMessage
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

func TestEventPipeline_DeliversThroughOutbox(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	sent := make(chan *sarama.ProducerMessage, 2)
	for range 2 {
		mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			sent <- msg
			return nil
		})
	}

	cfg := DefaultConfig()
	cfg.KafkaTopic = "orders"
	cfg.OutboxPollInterval = 5 * time.Millisecond
	pipeline := newEventPipeline(kafka.WrapSyncProducer(mockProducer, nil), cfg, prometheus.NewRegistry(), log.WithField("test", "events"))
	require.IsType(t, &outbox.Queue{}, pipeline.Publisher)

	ctx := context.Background()
	require.NoError(t, pipeline.Publisher.Publish(ctx, domain.OrderEvent{Type: domain.OrderEventPlaced, OrderID: 1, TableID: 4}))
	require.NoError(t, pipeline.Publisher.Publish(ctx, domain.OrderEvent{Type: domain.OrderEventCanceled, OrderID: 1, TableID: 4}))

	pipeline.Start(ctx)
	for _, want := range []domain.OrderEventType{domain.OrderEventPlaced, domain.OrderEventCanceled} {
		select {
		case msg := <-sent:
			assert.Equal(t, "orders", msg.Topic)
			assert.Equal(t, want, sentEvent(t, msg).Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %s was not delivered", want)
		}
	}

	pipeline.Close(time.Second)
	stats, err := pipeline.Outbox.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
}

func TestEventPipeline_FailedEventsGoToDLQ(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	for range 3 {
		mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "orders.dlq" {
			return fmt.Errorf("expected DLQ topic, got %s", msg.Topic)
		}
		return nil
	})

	cfg := DefaultConfig()
	cfg.KafkaTopic = "orders"
	cfg.KafkaDLQTopic = "orders.dlq"
	pipeline := newEventPipeline(kafka.WrapSyncProducer(mockProducer, nil), cfg, prometheus.NewRegistry(), log.WithField("test", "events"))

	require.NoError(t, pipeline.Publisher.Publish(context.Background(), domain.OrderEvent{Type: domain.OrderEventPlaced, OrderID: 9, TableID: 2}))

	// Close без Start досылает очередь синхронно
	pipeline.Close(5 * time.Second)

	failed := pipeline.Outbox.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, domain.OrderID(9), failed[0].Event.OrderID)
}
