// Package app собирает сервис переноса заказов: настройки, API, метрики,
// health-чеки и фоновую очистку истории.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/api"
	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/health"
	"github.com/vladislavdragonenkov/qts/internal/service/ledger"
	"github.com/vladislavdragonenkov/qts/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	APIAddr     string
	MetricsAddr string
	// PostgresDSN — база настроек сервиса; каталожные подключения
	// настраиваются через API и хранятся в ней.
	PostgresDSN string
	// EncryptionKey — base64-ключ шифрования токенов и паролей.
	EncryptionKey string
	// KafkaBrokers — список брокеров через запятую; пустая строка
	// отключает публикацию событий.
	KafkaBrokers string

	CleanupInterval  time.Duration
	CleanupRetention time.Duration
	CleanupBatchSize int
}

// DefaultConfig возвращает базовые адреса и параметры очистки.
func DefaultConfig() Config {
	return Config{
		APIAddr:     ":8080",
		MetricsAddr: ":9090",
	}
}

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close dependencies")
		}
	}()

	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	catalogs := newCatalogPool(deps.Settings, logger)
	defer catalogs.Close()

	handlers := api.NewHandlers(api.Config{
		Settings:      deps.Settings,
		Ledger:        deps.Ledger,
		Sources:       newSourceFactory(logger),
		Orchestrators: newOrchestratorFactory(deps, catalogs, kafkaProducer, logger),
		Resolvers:     newResolverFactory(catalogs, logger),
		Quotations:    newQuotationFactory(catalogs),
		TestCatalog:   testCatalogConnection,
		Logger:        logger.WithField("layer", "api"),
	})

	healthHandler := health.NewHandler(version.Version())
	healthHandler.RegisterChecker("settings_db", health.NewSimpleChecker("settings_db", func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return deps.Store.Ping(pingCtx)
	}))
	healthHandler.RegisterChecker("backoffice_db", health.NewCatalogChecker(
		"backoffice_db", deps.Settings, domain.CatalogRolePrimary, testCatalogConnection))
	healthHandler.RegisterChecker("inventory_db", health.NewCatalogChecker(
		"inventory_db", deps.Settings, domain.CatalogRoleSecondary, testCatalogConnection))

	router := api.NewRouter(handlers)
	router.Handle("/health", healthHandler)

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	cleanupWorker := ledger.NewCleanupWorker(deps.Ledger,
		ledger.WithLogger(logger.WithField("component", "ledger-cleanup-worker")),
		ledger.WithInterval(cfg.CleanupInterval),
		ledger.WithBatchSize(cfg.CleanupBatchSize),
		ledger.WithRetention(cfg.CleanupRetention),
	)
	go cleanupWorker.Run(ctx)

	apiSrv := &http.Server{Addr: cfg.APIAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.APIAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем API сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *health.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
