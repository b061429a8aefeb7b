package app

import (
	"time"

	"github.com/vladislavdragonenkov/restaurant/internal/messaging/kafka"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	// SeedPath — YAML со столами и меню; пустой путь означает встроенный набор.
	SeedPath   string
	TableCount int

	KafkaBrokers []string
	KafkaTopic   string
	// KafkaDLQTopic — topic для событий, не доставленных после всех попыток; пустой отключает DLQ.
	KafkaDLQTopic      string
	OutboxPollInterval time.Duration

	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

const (
	defaultTableCount      = 14
	defaultShutdownTimeout = 5 * time.Second

	defaultOutboxPollInterval = 200 * time.Millisecond
)

// DefaultConfig возвращает настройки по умолчанию: Kafka выключена, встроенное меню.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		GRPCAddr:           ":50051",
		MetricsAddr:        ":9090",
		TableCount:         defaultTableCount,
		KafkaTopic:         kafka.TopicOrderEvents,
		OutboxPollInterval: defaultOutboxPollInterval,
		ShutdownTimeout:    defaultShutdownTimeout,
		CORSOrigins:        []string{"*"},
	}
}
