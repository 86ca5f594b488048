// Package transfer реализует conveyor переноса заказов источника в котировки
// первичного каталога: идемпотентность через ledger, fatal-заголовок,
// толерантные строки и строго последовательный батч.
package transfer

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/qts/internal/metrics"
	"github.com/vladislavdragonenkov/qts/internal/service/assembler"
	"github.com/vladislavdragonenkov/qts/internal/service/resolver"
	"github.com/vladislavdragonenkov/qts/internal/service/sequence"
)

// Orchestrator описывает интерфейс переноса заказов.
type Orchestrator interface {
	// TransferOrder переносит один заказ. customerID перекрывает маппинг
	// покупателя магазина; nil означает использовать маппинг.
	TransferOrder(storeID int64, orderID string, customerID *int64) domain.TransferOutcome
	// TransferBatch переносит заказы строго последовательно. Отказ одного
	// заказа не прерывает остальные; каждый заказ даёт ровно один итог.
	TransferBatch(storeID int64, orderIDs []string, customerID *int64) ([]domain.TransferOutcome, domain.BatchSummary)
}

// orchestrator реализует последовательность шагов переноса:
// идемпотентность → конфигурация → резолвинг → номер → заголовок → строки → ledger.
type orchestrator struct {
	source        domain.OrderSource
	config        domain.ConfigStore
	ledger        domain.TransferLedger
	quotations    domain.QuotationRepository
	resolver      *resolver.Resolver
	sequence      *sequence.Allocator
	logger        *log.Entry
	metrics       *metrics.TransferMetrics
	kafkaProducer *kafka.Producer // опциональный Kafka producer для event-driven архитектуры
	now           func() time.Time
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(
	source domain.OrderSource,
	config domain.ConfigStore,
	ledger domain.TransferLedger,
	quotations domain.QuotationRepository,
	productResolver *resolver.Resolver,
	allocator *sequence.Allocator,
	logger *log.Entry,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "transfer")
	}
	return &orchestrator{
		source:     source,
		config:     config,
		ledger:     ledger,
		quotations: quotations,
		resolver:   productResolver,
		sequence:   allocator,
		logger:     logger,
		metrics:    metrics.NewTransferMetrics(),
		now:        time.Now,
	}
}

// NewOrchestratorWithKafka создаёт оркестратор с Kafka producer для event-driven архитектуры.
func NewOrchestratorWithKafka(
	source domain.OrderSource,
	config domain.ConfigStore,
	ledger domain.TransferLedger,
	quotations domain.QuotationRepository,
	productResolver *resolver.Resolver,
	allocator *sequence.Allocator,
	kafkaProducer *kafka.Producer,
	logger *log.Entry,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "transfer")
	}
	return &orchestrator{
		source:        source,
		config:        config,
		ledger:        ledger,
		quotations:    quotations,
		resolver:      productResolver,
		sequence:      allocator,
		logger:        logger,
		metrics:       metrics.NewTransferMetrics(),
		kafkaProducer: kafkaProducer,
		now:           time.Now,
	}
}

// NewOrchestratorWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewOrchestratorWithoutMetrics(
	source domain.OrderSource,
	config domain.ConfigStore,
	ledger domain.TransferLedger,
	quotations domain.QuotationRepository,
	productResolver *resolver.Resolver,
	allocator *sequence.Allocator,
	logger *log.Entry,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "transfer")
	}
	return &orchestrator{
		source:     source,
		config:     config,
		ledger:     ledger,
		quotations: quotations,
		resolver:   productResolver,
		sequence:   allocator,
		logger:     logger,
		metrics:    nil, // Отключаем метрики для тестов
		now:        time.Now,
	}
}

// TransferOrder переносит один заказ от начала до конца.
//
// Возврат всегда содержит итог: паника или отсутствие записи невозможны.
// Заказ, уже перенесённый успешно, пропускается без какой-либо записи.
func (o *orchestrator) TransferOrder(storeID int64, orderID string, customerID *int64) domain.TransferOutcome {
	start := o.now()
	if o.metrics != nil {
		o.metrics.RecordTransferStarted()
	}
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordTransferDuration(time.Since(start))
			o.metrics.RecordTransferFinished()
		}
	}()

	logger := o.logger.WithFields(log.Fields{
		"store_id": storeID,
		"order_id": orderID,
	})

	done, err := o.ledger.HasSuccessfulTransfer(storeID, orderID)
	if err != nil {
		logger.WithError(err).Error("idempotency check failed")
		return o.failOutcome(storeID, domain.Order{ID: orderID},
			fmt.Errorf("idempotency check failed: %w", err), false)
	}
	if done {
		logger.Info("order already transferred, skipping")
		if o.metrics != nil {
			o.metrics.RecordTransferSkipped()
		}
		o.publishTransferEvent(kafka.EventTypeTransferSkipped, storeID, orderID, nil)
		return domain.TransferOutcome{
			OrderID:     orderID,
			Success:     true,
			AlreadyDone: true,
		}
	}

	o.publishTransferEvent(kafka.EventTypeTransferStarted, storeID, orderID, nil)

	order, err := o.source.GetOrder(orderID)
	if err != nil {
		logger.WithError(err).Warn("order fetch failed")
		return o.failOutcome(storeID, domain.Order{ID: orderID},
			fmt.Errorf("fetch order: %w", err), true)
	}
	logger = logger.WithField("order_name", order.Name)

	defaults, err := o.config.StoreDefaults(storeID)
	if err != nil {
		logger.WithError(err).Warn("store defaults missing")
		return o.failOutcome(storeID, order, err, true)
	}

	resolvedCustomerID, err := o.resolveCustomerID(storeID, customerID, logger)
	if err != nil {
		return o.failOutcome(storeID, order, err, true)
	}

	customer, err := o.quotations.GetCustomer(resolvedCustomerID)
	if err != nil {
		logger.WithError(err).WithField("customer_id", resolvedCustomerID).Warn("customer lookup failed")
		return o.failOutcome(storeID, order,
			fmt.Errorf("customer %d: %w", resolvedCustomerID, err), true)
	}

	// VALIDATING: резолвинг позиций по двум каталогам.
	resolveStart := o.now()
	validation := o.resolver.Resolve(order.LineItems)
	if o.metrics != nil {
		o.metrics.RecordStepDuration("resolve", time.Since(resolveStart))
	}
	if !validation.Valid {
		// REJECTED: заголовок не создаётся.
		logger.WithFields(log.Fields{
			"missing": len(validation.Missing),
			"errors":  len(validation.Errors),
		}).Warn("order rejected by product resolution")
		return o.failOutcome(storeID, order,
			fmt.Errorf("product validation failed: %s", strings.Join(validation.Errors, "; ")), true)
	}

	total := validation.Total()

	number, err := o.sequence.NextNumber(defaults.EffectiveRoutingID())
	if err != nil {
		logger.WithError(err).Error("document number allocation failed")
		return o.failOutcome(storeID, order, err, true)
	}
	logger = logger.WithField("document_number", number)

	// PERSISTING_HEADER: ошибка заголовка фатальна для заказа.
	now := o.now()
	header := assembler.BuildHeader(order, customer, defaults, number, now)
	header.Total = total

	headerStart := o.now()
	headerID, err := o.quotations.InsertHeader(header)
	if o.metrics != nil {
		o.metrics.RecordStepDuration("persist_header", time.Since(headerStart))
	}
	if err != nil {
		logger.WithError(err).Error("header insert failed")
		return o.failOutcome(storeID, order, fmt.Errorf("create quotation header: %w", err), true)
	}
	logger.WithField("quotation_id", headerID).Info("quotation header created")

	// PERSISTING_LINES: ошибка одной строки не прерывает остальные.
	linesCreated := 0
	for _, product := range validation.Products {
		unitDesc := ""
		if product.Product.UnitID != nil {
			desc, descErr := o.quotations.UnitDescription(*product.Product.UnitID)
			if descErr != nil {
				logger.WithError(descErr).WithField("unit_id", *product.Product.UnitID).
					Warn("unit description lookup failed")
			} else {
				unitDesc = desc
			}
		}

		line := assembler.BuildLine(product, unitDesc, now)
		if _, lineErr := o.quotations.InsertLine(headerID, line); lineErr != nil {
			logger.WithError(lineErr).WithField("barcode", line.Barcode).Error("line insert failed")
			if o.metrics != nil {
				o.metrics.RecordLineFailure()
			}
			continue
		}
		linesCreated++
		if o.metrics != nil {
			o.metrics.RecordLinePersisted()
		}
	}

	if linesCreated == 0 {
		// Заголовок остаётся в базе: откат не выполняется.
		logger.Error("no quotation lines created")
		return o.failOutcome(storeID, order,
			fmt.Errorf("%w for quotation %s", domain.ErrNoLinesPersisted, number), true)
	}

	o.recordLedger(domain.TransferRecord{
		StoreID:        storeID,
		OrderID:        order.ID,
		OrderName:      order.Name,
		DocumentNumber: number,
		Status:         domain.LedgerStatusSuccess,
		LineCount:      linesCreated,
		Total:          total,
	}, logger)

	if o.metrics != nil {
		o.metrics.RecordTransferSucceeded()
	}
	logger.WithFields(log.Fields{
		"lines": linesCreated,
		"total": total.String(),
	}).Info("order transferred")

	o.publishTransferEvent(kafka.EventTypeTransferSucceeded, storeID, order.ID, map[string]interface{}{
		"document_number": number,
		"line_count":      linesCreated,
		"total":           total.String(),
	})

	return domain.TransferOutcome{
		OrderID:        order.ID,
		OrderName:      order.Name,
		Success:        true,
		DocumentNumber: number,
		LineCount:      linesCreated,
		Total:          total,
	}
}

// TransferBatch переносит заказы строго последовательно в заданном порядке.
func (o *orchestrator) TransferBatch(storeID int64, orderIDs []string, customerID *int64) ([]domain.TransferOutcome, domain.BatchSummary) {
	o.publishTransferEvent(kafka.EventTypeBatchStarted, storeID, "", map[string]interface{}{
		"order_count": len(orderIDs),
	})

	outcomes := make([]domain.TransferOutcome, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		outcomes = append(outcomes, o.TransferOrder(storeID, orderID, customerID))
	}
	summary := domain.Summarize(outcomes)

	o.logger.WithFields(log.Fields{
		"store_id":  storeID,
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("batch transfer finished")

	o.publishTransferEvent(kafka.EventTypeBatchCompleted, storeID, "", map[string]interface{}{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	})

	return outcomes, summary
}

// resolveCustomerID выбирает покупателя: переданный перекрывает маппинг магазина.
func (o *orchestrator) resolveCustomerID(storeID int64, override *int64, logger *log.Entry) (int64, error) {
	if override != nil {
		logger.WithField("customer_id", *override).Info("using customer override")
		return *override, nil
	}
	mapping, err := o.config.CustomerMapping(storeID)
	if err != nil {
		logger.WithError(err).Warn("customer mapping missing")
		return 0, err
	}
	return mapping.CustomerID, nil
}

// failOutcome фиксирует отказ: запись в ledger (если требуется), метрики,
// событие и итог. Ошибка самой записи ledger не маскирует исходную.
func (o *orchestrator) failOutcome(storeID int64, order domain.Order, rootErr error, record bool) domain.TransferOutcome {
	if record {
		o.recordLedger(domain.TransferRecord{
			StoreID:      storeID,
			OrderID:      order.ID,
			OrderName:    order.Name,
			Status:       domain.LedgerStatusFailed,
			ErrorMessage: rootErr.Error(),
			Total:        order.Total,
		}, o.logger.WithField("order_id", order.ID))
	}
	if o.metrics != nil {
		o.metrics.RecordTransferFailed()
	}
	o.publishTransferEvent(kafka.EventTypeTransferFailed, storeID, order.ID, map[string]interface{}{
		"error": rootErr.Error(),
	})
	return domain.TransferOutcome{
		OrderID:   order.ID,
		OrderName: order.Name,
		Total:     order.Total,
		Err:       rootErr.Error(),
	}
}

func (o *orchestrator) recordLedger(record domain.TransferRecord, logger *log.Entry) {
	record.TransferredAt = o.now().UTC()
	if _, err := o.ledger.Record(record); err != nil {
		logger.WithError(err).Error("ledger record failed")
		return
	}
	if o.metrics != nil {
		o.metrics.RecordLedgerRecord()
	}
}

// publishTransferEvent публикует событие переноса в Kafka (если producer настроен)
func (o *orchestrator) publishTransferEvent(eventType kafka.EventType, storeID int64, orderID string, metadata map[string]interface{}) {
	if o.kafkaProducer == nil {
		return // Kafka не настроен, пропускаем
	}

	event := kafka.NewTransferEvent(eventType, storeID, orderID, metadata)
	if err := o.kafkaProducer.PublishTransferEvent(event); err != nil {
		// Логируем ошибку, но не прерываем перенос - Kafka опциональный
		o.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   orderID,
		}).Warn("failed to publish transfer event to kafka")
	}
}

var _ Orchestrator = (*orchestrator)(nil)
