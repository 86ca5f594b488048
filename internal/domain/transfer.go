package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus описывает жизненный цикл переноса одного заказа.
type TransferStatus string

const (
	// TransferStatusPending — заказ принят в обработку, работа ещё не началась.
	TransferStatusPending TransferStatus = "pending"
	// TransferStatusValidating — идёт резолвинг позиций по каталогам.
	TransferStatusValidating TransferStatus = "validating"
	// TransferStatusResolved — все позиции привязаны к первичному каталогу.
	TransferStatusResolved TransferStatus = "resolved"
	// TransferStatusRejected — резолвинг не прошёл; заголовок не создаётся.
	TransferStatusRejected TransferStatus = "rejected"
	// TransferStatusPersistingHeader — создаётся заголовок котировки.
	TransferStatusPersistingHeader TransferStatus = "persisting_header"
	// TransferStatusPersistingLines — создаются строки котировки.
	TransferStatusPersistingLines TransferStatus = "persisting_lines"
	// TransferStatusSuccess — перенос завершён, хотя бы одна строка записана.
	TransferStatusSuccess TransferStatus = "success"
	// TransferStatusPartialFailure — заголовок создан, но ни одна строка не записалась.
	TransferStatusPartialFailure TransferStatus = "partial_failure"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferStatusPending, TransferStatusValidating, TransferStatusResolved,
		TransferStatusRejected, TransferStatusPersistingHeader,
		TransferStatusPersistingLines, TransferStatusSuccess,
		TransferStatusPartialFailure:
		return true
	default:
		return false
	}
}

// Terminal сообщает, завершает ли статус обработку заказа.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferStatusRejected, TransferStatusSuccess, TransferStatusPartialFailure:
		return true
	default:
		return false
	}
}

// Статусы записей ledger. Исторический формат: success/failed.
const (
	LedgerStatusSuccess = "success"
	LedgerStatusFailed  = "failed"
)

// TransferOutcome — итог переноса одного заказа. Каждый заказ батча
// всегда даёт ровно одну такую запись, успешную или нет.
type TransferOutcome struct {
	OrderID        string
	OrderName      string
	Success        bool
	AlreadyDone    bool
	DocumentNumber string
	LineCount      int
	Total          decimal.Decimal
	Err            string
}

// BatchSummary — агрегированные счётчики по батчу.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Summarize сворачивает список итогов в счётчики батча.
func Summarize(outcomes []TransferOutcome) BatchSummary {
	summary := BatchSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// TransferRecord — строка append-only ledger'а переносов.
// Используется для идемпотентности и истории.
type TransferRecord struct {
	ID             string
	StoreID        int64
	OrderID        string
	OrderName      string
	DocumentNumber string
	Status         string
	ErrorMessage   string
	LineCount      int
	Total          decimal.Decimal
	TransferredAt  time.Time
	StoreName      string
}

// LedgerFilter задаёт фильтры выборки истории переносов.
type LedgerFilter struct {
	StoreID *int64
	// Status — success/failed; пустая строка или "all" означает без фильтра.
	Status string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
