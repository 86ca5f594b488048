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

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/app"
	"github.com/vladislavdragonenkov/qts/internal/version"
)

const (
	envAPIAddr              = "QTS_API_ADDR"
	envMetricsAddr          = "QTS_METRICS_ADDR"
	envPostgresDSN          = "QTS_POSTGRES_DSN"
	envEncryptionKey        = "QTS_ENCRYPTION_KEY"
	envKafkaBrokers         = "QTS_KAFKA_BROKERS"
	envLogLevel             = "QTS_LOG_LEVEL"
	envCleanupInterval      = "QTS_CLEANUP_INTERVAL"
	envCleanupRetentionDays = "QTS_CLEANUP_RETENTION_DAYS"
	envCleanupBatchSize     = "QTS_CLEANUP_BATCH_SIZE"
)

// envLookup абстрагирует доступ к переменным окружения для тестов.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if level, err := log.ParseLevel(os.Getenv(envLogLevel)); err == nil {
		log.SetLevel(level)
	}
}

// readConfigFromEnv формирует конфигурацию приложения из переменных
// окружения. Некорректные значения не прерывают запуск: значение
// остаётся дефолтным, а предупреждение попадает в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookup(envAPIAddr); ok && strings.TrimSpace(v) != "" {
		cfg.APIAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envMetricsAddr); ok && strings.TrimSpace(v) != "" {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envPostgresDSN); ok {
		cfg.PostgresDSN = strings.TrimSpace(v)
	}
	if v, ok := lookup(envEncryptionKey); ok {
		cfg.EncryptionKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(envKafkaBrokers); ok {
		cfg.KafkaBrokers = strings.TrimSpace(v)
	}

	if v, ok := lookup(envCleanupInterval); ok {
		interval, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || interval <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: invalid duration %q", envCleanupInterval, v))
		} else {
			cfg.CleanupInterval = interval
		}
	}
	if v, ok := lookup(envCleanupRetentionDays); ok {
		days, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || days <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: invalid day count %q", envCleanupRetentionDays, v))
		} else {
			cfg.CleanupRetention = time.Duration(days) * 24 * time.Hour
		}
	}
	if v, ok := lookup(envCleanupBatchSize); ok {
		batch, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || batch <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: invalid batch size %q", envCleanupBatchSize, v))
		} else {
			cfg.CleanupBatchSize = batch
		}
	}

	return cfg, warnings
}

func main() {
	setupLogger()

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"api_addr":     cfg.APIAddr,
		"metrics_addr": cfg.MetricsAddr,
		"build":        version.String(),
	}).Info("запускаем сервис переноса заказов")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("сервис остановлен")
}
