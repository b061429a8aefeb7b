package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restaurant/internal/app"
)

const (
	envHTTPAddr           = "RESTAURANT_HTTP_ADDR"
	envGRPCAddr           = "RESTAURANT_GRPC_ADDR"
	envMetricsAddr        = "RESTAURANT_METRICS_ADDR"
	envSeedPath           = "RESTAURANT_SEED_PATH"
	envTableCount         = "RESTAURANT_TABLE_COUNT"
	envKafkaBrokers       = "RESTAURANT_KAFKA_BROKERS"
	envKafkaTopic         = "RESTAURANT_KAFKA_TOPIC"
	envKafkaDLQTopic      = "RESTAURANT_KAFKA_DLQ_TOPIC"
	envOutboxPollInterval = "RESTAURANT_OUTBOX_POLL_INTERVAL"
	envShutdownTimeout    = "RESTAURANT_SHUTDOWN_TIMEOUT"
	envCORSOrigins        = "RESTAURANT_CORS_ORIGINS"
	envLogLevel           = "RESTAURANT_LOG_LEVEL"
	envLogJSON            = "RESTAURANT_LOG_JSON"
)

type envLookup func(key string) (string, bool)

// loggerSettings — настройки логирования из окружения.
type loggerSettings struct {
	level log.Level
	json  bool
}

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(settings loggerSettings) {
	if settings.json {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetLevel(settings.level)
}

func readLoggerFromEnv(lookup envLookup) (loggerSettings, []string) {
	settings := loggerSettings{level: log.InfoLevel}
	var warnings []string

	if v, ok := nonEmpty(lookup, envLogLevel); ok {
		level, err := log.ParseLevel(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %s", envLogLevel, err, settings.level))
		} else {
			settings.level = level
		}
	}
	if v, ok := nonEmpty(lookup, envLogJSON); ok {
		value, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using text format", envLogJSON, err))
		} else {
			settings.json = value
		}
	}
	return settings, warnings
}

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не роняют запуск: остаётся значение по умолчанию и добавляется предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := nonEmpty(lookup, envHTTPAddr); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := nonEmpty(lookup, envGRPCAddr); ok {
		cfg.GRPCAddr = v
	}
	if v, ok := nonEmpty(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := nonEmpty(lookup, envSeedPath); ok {
		cfg.SeedPath = v
	}
	if v, ok := nonEmpty(lookup, envTableCount); ok {
		value, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envTableCount, err))
		} else {
			cfg.TableCount = value
		}
	}
	if v, ok := nonEmpty(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = splitList(v)
	}
	if v, ok := nonEmpty(lookup, envKafkaTopic); ok {
		cfg.KafkaTopic = v
	}
	if v, ok := nonEmpty(lookup, envKafkaDLQTopic); ok {
		cfg.KafkaDLQTopic = v
	}
	if v, ok := nonEmpty(lookup, envOutboxPollInterval); ok {
		value, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envOutboxPollInterval, err))
		} else {
			cfg.OutboxPollInterval = value
		}
	}
	if v, ok := nonEmpty(lookup, envShutdownTimeout); ok {
		value, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envShutdownTimeout, err))
		} else {
			cfg.ShutdownTimeout = value
		}
	}
	if v, ok := nonEmpty(lookup, envCORSOrigins); ok {
		if origins := splitList(v); len(origins) > 0 {
			cfg.CORSOrigins = origins
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: no origins listed", envCORSOrigins))
		}
	}

	return cfg, warnings
}

func nonEmpty(lookup envLookup, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, constraint string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, constraint)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, constraint string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, constraint)
	}
	return value, nil
}

func main() {
	// .env необязателен: переменные окружения процесса имеют приоритет
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to load .env")
	}

	logSettings, logWarnings := readLoggerFromEnv(os.LookupEnv)
	setupLogger(logSettings)

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range append(logWarnings, warnings...) {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":     cfg.HTTPAddr,
		"grpc_addr":     cfg.GRPCAddr,
		"metrics_addr":  cfg.MetricsAddr,
		"seed_path":     cfg.SeedPath,
		"kafka_brokers": cfg.KafkaBrokers,
	}).Info("запускаем restaurant service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("restaurant service остановлен")
}
