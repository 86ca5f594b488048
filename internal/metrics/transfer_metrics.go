package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TransferMetrics содержит метрики переноса заказов.
type TransferMetrics struct {
	// Счётчики операций
	transferStarted   prometheus.Counter
	transferSucceeded prometheus.Counter
	transferFailed    prometheus.Counter
	transferSkipped   prometheus.Counter

	// Гистограммы времени выполнения
	transferDuration prometheus.Histogram
	stepDuration     *prometheus.HistogramVec

	// Счётчики по строкам
	linesPersisted prometheus.Counter
	lineFailures   prometheus.Counter
	ledgerRecords  prometheus.Counter

	// Gauge для активных переносов
	activeTransfers prometheus.Gauge
}

// NewTransferMetrics создаёт новый экземпляр метрик переноса.
func NewTransferMetrics() *TransferMetrics {
	return newTransferMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newTransferMetricsWithRegisterer(registerer prometheus.Registerer) *TransferMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &TransferMetrics{
		transferStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qts_transfer_started_total",
			Help: "Total number of order transfers started",
		}),
		transferSucceeded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qts_transfer_succeeded_total",
			Help: "Total number of order transfers completed successfully",
		}),
		transferFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qts_transfer_failed_total",
			Help: "Total number of order transfers failed",
		}),
		transferSkipped: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qts_transfer_skipped_total",
			Help: "Total number of order transfers skipped as already done",
		}),
		transferDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "qts_transfer_duration_seconds",
			Help:    "Duration of order transfers in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "qts_transfer_step_duration_seconds",
			Help:    "Duration of individual transfer steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		linesPersisted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qts_quotation_lines_persisted_total",
			Help: "Total number of quotation lines written",
		}),
		lineFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qts_quotation_line_failures_total",
			Help: "Total number of quotation line writes that failed",
		}),
		ledgerRecords: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qts_ledger_records_total",
			Help: "Total number of transfer ledger records written",
		}),
		activeTransfers: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "qts_active_transfers",
			Help: "Number of currently active order transfers",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordTransferStarted увеличивает счётчик запущенных переносов.
func (m *TransferMetrics) RecordTransferStarted() {
	m.transferStarted.Inc()
	m.activeTransfers.Inc()
}

// RecordTransferFinished уменьшает количество активных переносов.
func (m *TransferMetrics) RecordTransferFinished() {
	m.activeTransfers.Dec()
}

// RecordTransferSucceeded увеличивает счётчик успешных переносов.
func (m *TransferMetrics) RecordTransferSucceeded() {
	m.transferSucceeded.Inc()
}

// RecordTransferFailed увеличивает счётчик неудачных переносов.
func (m *TransferMetrics) RecordTransferFailed() {
	m.transferFailed.Inc()
}

// RecordTransferSkipped увеличивает счётчик пропущенных (уже перенесённых) заказов.
func (m *TransferMetrics) RecordTransferSkipped() {
	m.transferSkipped.Inc()
}

// RecordTransferDuration записывает время переноса заказа.
func (m *TransferMetrics) RecordTransferDuration(duration time.Duration) {
	m.transferDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает время выполнения шага переноса.
func (m *TransferMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordLinePersisted увеличивает счётчик записанных строк.
func (m *TransferMetrics) RecordLinePersisted() {
	m.linesPersisted.Inc()
}

// RecordLineFailure увеличивает счётчик неудачных записей строк.
func (m *TransferMetrics) RecordLineFailure() {
	m.lineFailures.Inc()
}

// RecordLedgerRecord увеличивает счётчик записей ledger.
func (m *TransferMetrics) RecordLedgerRecord() {
	m.ledgerRecords.Inc()
}
