package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

type historyView struct {
	ID              string          `json:"id"`
	StoreID         int64           `json:"store_id"`
	StoreName       string          `json:"store_name"`
	OrderID         string          `json:"order_id"`
	OrderName       string          `json:"order_name"`
	QuotationNumber string          `json:"quotation_number"`
	Status          string          `json:"status"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	LineCount       int             `json:"line_count"`
	Total           decimal.Decimal `json:"total_amount"`
	TransferredAt   time.Time       `json:"transferred_at"`
}

// GetHistory возвращает историю переносов с фильтрами, новые записи первыми.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	filter := domain.LedgerFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 100),
		Offset: queryInt(r, "offset", 0),
	}

	if storeID := int64(queryInt(r, "store_id", 0)); storeID > 0 {
		filter.StoreID = &storeID
	}
	if from, ok := queryDate(r, "start_date"); ok {
		filter.From = from
	}
	if to, ok := queryDate(r, "end_date"); ok {
		// Конец диапазона включает весь указанный день.
		filter.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	records, err := h.ledger.List(filter)
	if err != nil {
		h.logger.WithError(err).Error("failed to list transfer history")
		respondDomainError(w, err)
		return
	}

	views := make([]historyView, 0, len(records))
	for _, record := range records {
		views = append(views, historyView{
			ID:              record.ID,
			StoreID:         record.StoreID,
			StoreName:       record.StoreName,
			OrderID:         record.OrderID,
			OrderName:       record.OrderName,
			QuotationNumber: record.DocumentNumber,
			Status:          record.Status,
			ErrorMessage:    record.ErrorMessage,
			LineCount:       record.LineCount,
			Total:           record.Total,
			TransferredAt:   record.TransferredAt,
		})
	}

	respondSuccess(w, envelope{
		"history":        views,
		"total_returned": len(views),
	})
}

// DeleteHistoryRecord удаляет одну запись истории.
func (h *Handlers) DeleteHistoryRecord(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	if recordID == "" {
		respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := h.ledger.Delete(recordID); err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, nil)
}

// DeleteFailedHistory удаляет неуспешные записи; без store_id — по всем магазинам.
func (h *Handlers) DeleteFailedHistory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StoreID *int64 `json:"store_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	affected, err := h.ledger.DeleteFailed(body.StoreID)
	if err != nil {
		h.logger.WithError(err).Error("failed to delete failed transfers")
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, envelope{"affected_rows": affected})
}

// queryDate принимает даты в формате YYYY-MM-DD или RFC3339.
func queryDate(r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
