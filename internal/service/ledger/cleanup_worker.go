// Package ledger содержит фоновую очистку истории переносов.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

const (
	defaultCleanupInterval  = time.Hour
	defaultCleanupBatchSize = 500
	defaultRetention        = 30 * 24 * time.Hour
)

var (
	ledgerCleanupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qts_ledger_cleanup_runs_total",
		Help: "Total number of ledger cleanup runs grouped by result.",
	}, []string{"result"})
	ledgerCleanupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qts_ledger_cleanup_deleted_total",
		Help: "Total number of deleted stale failed transfer records.",
	})
	ledgerCleanupLastDeleted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qts_ledger_cleanup_last_deleted",
		Help: "Number of deleted records during the last cleanup run.",
	})
)

// CleanupOptions задает параметры воркера очистки истории переносов.
type CleanupOptions struct {
	Logger    *log.Entry
	Interval  time.Duration
	BatchSize int
	Retention time.Duration
}

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupOptions)

// WithLogger задает logger для воркера.
func WithLogger(logger *log.Entry) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Logger = logger
	}
}

// WithInterval задает интервал между cleanup-циклами.
func WithInterval(interval time.Duration) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Interval = interval
	}
}

// WithBatchSize задает размер batch для одного удаления.
func WithBatchSize(batchSize int) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.BatchSize = batchSize
	}
}

// WithRetention задает срок хранения неуспешных записей.
func WithRetention(retention time.Duration) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Retention = retention
	}
}

// CleanupWorker периодически удаляет устаревшие неуспешные записи переносов.
// Успешные записи не трогает никогда: они источник истины для идемпотентности.
type CleanupWorker struct {
	ledger    domain.TransferLedger
	logger    *log.Entry
	interval  time.Duration
	batchSize int
	retention time.Duration
}

// NewCleanupWorker создает воркер очистки истории переносов.
func NewCleanupWorker(ledger domain.TransferLedger, options ...CleanupOption) *CleanupWorker {
	opts := CleanupOptions{
		Interval:  defaultCleanupInterval,
		BatchSize: defaultCleanupBatchSize,
		Retention: defaultRetention,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "ledger-cleanup-worker")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultCleanupInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultCleanupBatchSize
	}
	if opts.Retention <= 0 {
		opts.Retention = defaultRetention
	}

	return &CleanupWorker{
		ledger:    ledger,
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		retention: opts.Retention,
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.ledger == nil {
		w.logger.Warn("ledger cleanup worker is disabled: ledger is nil")
		return
	}

	w.cleanup(ctx, time.Now().UTC())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(ctx, time.Now().UTC())
		}
	}
}

func (w *CleanupWorker) cleanup(ctx context.Context, now time.Time) {
	deleted, err := w.DeleteStale(ctx, now.Add(-w.retention))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		ledgerCleanupRunsTotal.WithLabelValues("error").Inc()
		w.logger.WithError(err).Warn("ledger cleanup run failed")
		return
	}

	ledgerCleanupRunsTotal.WithLabelValues("ok").Inc()
	ledgerCleanupLastDeleted.Set(float64(deleted))
	if deleted > 0 {
		w.logger.WithField("deleted", deleted).Info("ledger cleanup completed")
	}
}

// DeleteStale удаляет все неуспешные записи старше before порциями batchSize.
func (w *CleanupWorker) DeleteStale(ctx context.Context, before time.Time) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	totalDeleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		deleted, err := w.ledger.DeleteFailedBefore(before, w.batchSize)
		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted > 0 {
			ledgerCleanupDeletedTotal.Add(float64(deleted))
		}

		if deleted < w.batchSize {
			break
		}
	}

	return totalDeleted, nil
}
