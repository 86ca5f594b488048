package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// Ledger — in-memory реализация domain.TransferLedger.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.TransferRecord
}

// NewLedger возвращает пустой in-memory ledger переносов.
func NewLedger() *Ledger {
	return &Ledger{}
}

// HasSuccessfulTransfer сообщает, был ли заказ уже успешно перенесён.
func (l *Ledger) HasSuccessfulTransfer(storeID int64, orderID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, r := range l.records {
		if r.StoreID == storeID && r.OrderID == orderID && r.Status == domain.LedgerStatusSuccess {
			return true, nil
		}
	}
	return false, nil
}

// Record добавляет запись об итоге переноса.
func (l *Ledger) Record(record domain.TransferRecord) (domain.TransferRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.TransferredAt.IsZero() {
		record.TransferredAt = time.Now().UTC()
	}
	l.records = append(l.records, record)
	return record, nil
}

// List возвращает историю с фильтрами, новые записи первыми.
func (l *Ledger) List(filter domain.LedgerFilter) ([]domain.TransferRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.TransferRecord, 0, len(l.records))
	for _, r := range l.records {
		if filter.StoreID != nil && r.StoreID != *filter.StoreID {
			continue
		}
		if filter.Status != "" && filter.Status != "all" && r.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && r.TransferredAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && r.TransferredAt.After(filter.To) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TransferredAt.After(result[j].TransferredAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Delete удаляет одну запись истории.
func (l *Ledger) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, r := range l.records {
		if r.ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrLedgerRecordNotFound
}

// DeleteFailed удаляет неуспешные записи; nil storeID означает все магазины.
func (l *Ledger) DeleteFailed(storeID *int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0]
	deleted := 0
	for _, r := range l.records {
		if r.Status == domain.LedgerStatusFailed && (storeID == nil || r.StoreID == *storeID) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	l.records = kept
	return deleted, nil
}

// DeleteFailedBefore удаляет неуспешные записи старше before, не более limit за вызов.
func (l *Ledger) DeleteFailedBefore(before time.Time, limit int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0]
	deleted := 0
	for _, r := range l.records {
		if r.Status == domain.LedgerStatusFailed && r.TransferredAt.Before(before) && (limit <= 0 || deleted < limit) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	l.records = kept
	return deleted, nil
}

var _ domain.TransferLedger = (*Ledger)(nil)
