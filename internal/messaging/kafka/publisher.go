package kafka

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// EventPublisher публикует события заказов в заданный Kafka topic.
type EventPublisher struct {
	producer *Producer
	topic    string
}

// NewEventPublisher создаёт Kafka-паблишер событий заказов.
func NewEventPublisher(producer *Producer, topic string) *EventPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &EventPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *EventPublisher) Publish(_ context.Context, event domain.OrderEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka event publisher is not initialized")
	}

	message := NewOrderEventMessage(event)
	return p.producer.PublishEvent(p.topic, partitionKey(event), string(event.Type), message)
}

// NoopPublisher используется, когда Kafka не настроена.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.OrderEvent) error {
	return nil
}

var (
	_ domain.OrderEventPublisher = (*EventPublisher)(nil)
	_ domain.OrderEventPublisher = NoopPublisher{}
)
