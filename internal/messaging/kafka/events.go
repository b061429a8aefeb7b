package kafka

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// TopicOrderEvents — topic по умолчанию для событий заказов.
const TopicOrderEvents = "restaurant.order.events"

// Kafka headers
const (
	HeaderEventType = "x-event-type"
)

const eventSource = "restaurant-service"

// OrderEventMessage — конверт, в котором событие уходит в Kafka.
type OrderEventMessage struct {
	EventID string `json:"event_id"`
	Source  string `json:"source"`
	domain.OrderEvent
	PublishedAt time.Time `json:"published_at"`
}

// NewOrderEventMessage оборачивает доменное событие, присваивая ему уникальный идентификатор.
func NewOrderEventMessage(event domain.OrderEvent) OrderEventMessage {
	return OrderEventMessage{
		EventID:     uuid.NewString(),
		Source:      eventSource,
		OrderEvent:  event,
		PublishedAt: time.Now().UTC(),
	}
}

// partitionKey — идентификатор стола: события одного стола попадают в одну партицию.
func partitionKey(event domain.OrderEvent) string {
	return strconv.FormatUint(uint64(event.TableID), 10)
}
