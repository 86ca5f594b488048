package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События переноса заказа
	EventTypeTransferStarted   EventType = "transfer.started"
	EventTypeTransferSucceeded EventType = "transfer.succeeded"
	EventTypeTransferFailed    EventType = "transfer.failed"
	EventTypeTransferSkipped   EventType = "transfer.skipped"

	// События батча
	EventTypeBatchStarted   EventType = "batch.started"
	EventTypeBatchCompleted EventType = "batch.completed"

	// События каталога
	EventTypeProductCopied EventType = "catalog.product_copied"
)

// Topics для Kafka
const (
	TopicTransferEvents  = "qts.transfer.events"
	TopicCatalogEvents   = "qts.catalog.events"
	TopicDeadLetterQueue = "qts.dlq" // Dead Letter Queue для failed messages
)

// TransferEvent представляет событие переноса заказа
type TransferEvent struct {
	EventType EventType              `json:"event_type"`
	StoreID   int64                  `json:"store_id"`
	OrderID   string                 `json:"order_id"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewTransferEvent создает новое событие переноса
func NewTransferEvent(eventType EventType, storeID int64, orderID string, metadata map[string]interface{}) *TransferEvent {
	return &TransferEvent{
		EventType: eventType,
		StoreID:   storeID,
		OrderID:   orderID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
