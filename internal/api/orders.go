package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

type lineItemView struct {
	Barcode  string           `json:"barcode"`
	SKU      string           `json:"sku"`
	Name     string           `json:"name"`
	Quantity int32            `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

type orderView struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	CreatedAt         time.Time       `json:"created_at"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	Note              string          `json:"note"`
	Total             decimal.Decimal `json:"total_amount"`
	Currency          string          `json:"currency"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	LineItems         []lineItemView  `json:"line_items"`
	Transferred       bool            `json:"transferred"`
}

func newOrderView(order domain.Order, transferred bool) orderView {
	items := make([]lineItemView, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, lineItemView{
			Barcode:  item.Barcode,
			SKU:      item.SKU,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return orderView{
		ID:                order.ID,
		Name:              order.Name,
		CreatedAt:         order.CreatedAt,
		FulfillmentStatus: order.FulfillmentStatus,
		Note:              order.Note,
		Total:             order.Total,
		Currency:          order.Currency,
		CustomerName:      order.Customer.Name,
		CustomerEmail:     order.Customer.Email,
		LineItems:         items,
		Transferred:       transferred,
	}
}

// ListOrders возвращает невыполненные заказы магазина; заказы, уже
// перенесённые в котировки, помечаются флагом transferred.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	storeID := int64(queryInt(r, "store_id", 0))
	if storeID <= 0 {
		respondError(w, http.StatusBadRequest, "missing store_id")
		return
	}
	daysBack := queryInt(r, "days_back", 14)

	store, err := h.settings.GetStore(storeID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	orders, err := h.sources(store).ListUnfulfilled(daysBack)
	if err != nil {
		h.logger.WithError(err).WithField("store_id", storeID).Error("failed to fetch orders")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		transferred, err := h.ledger.HasSuccessfulTransfer(storeID, order.ID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		views = append(views, newOrderView(order, transferred))
	}

	respondSuccess(w, envelope{
		"orders":        views,
		"total_fetched": len(views),
	})
}

type validationView struct {
	Valid    bool                 `json:"valid"`
	Products int                  `json:"resolved_count"`
	Total    decimal.Decimal      `json:"total_amount"`
	Missing  []domain.MissingItem `json:"missing"`
	Copied   []domain.CopiedItem  `json:"copied"`
	Errors   []string             `json:"errors"`
}

// ValidateOrder прогоняет позиции заказа через двухкаталожный резолвинг
// без создания котировки.
func (h *Handlers) ValidateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StoreID int64  `json:"store_id"`
		OrderID string `json:"order_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.StoreID <= 0 || body.OrderID == "" {
		respondError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	store, err := h.settings.GetStore(body.StoreID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	order, err := h.sources(store).GetOrder(body.OrderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	productResolver, err := h.resolvers()
	if err != nil {
		respondDomainError(w, err)
		return
	}

	validation := productResolver.Resolve(order.LineItems)

	respondSuccess(w, envelope{
		"order_name": order.Name,
		"validation": validationView{
			Valid:    validation.Valid,
			Products: len(validation.Products),
			Total:    validation.Total(),
			Missing:  validation.Missing,
			Copied:   validation.Copied,
			Errors:   validation.Errors,
		},
	})
}

type transferResultView struct {
	OrderID         string          `json:"order_id"`
	OrderName       string          `json:"order_name"`
	Success         bool            `json:"success"`
	AlreadyDone     bool            `json:"already_transferred"`
	QuotationNumber string          `json:"quotation_number"`
	LineItems       int             `json:"line_items"`
	Total           decimal.Decimal `json:"total_amount"`
	Error           string          `json:"error,omitempty"`
}

// TransferOrders переносит выбранные заказы строго последовательно и
// возвращает итог по каждому заказу вместе со сводкой.
func (h *Handlers) TransferOrders(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StoreID    int64    `json:"store_id"`
		OrderIDs   []string `json:"order_ids"`
		CustomerID *int64   `json:"customer_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.StoreID <= 0 || len(body.OrderIDs) == 0 {
		respondError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	store, err := h.settings.GetStore(body.StoreID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	orchestrator, err := h.orchestrators(store)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	outcomes, summary := orchestrator.TransferBatch(body.StoreID, body.OrderIDs, body.CustomerID)

	results := make([]transferResultView, 0, len(outcomes))
	for _, outcome := range outcomes {
		results = append(results, transferResultView{
			OrderID:         outcome.OrderID,
			OrderName:       outcome.OrderName,
			Success:         outcome.Success,
			AlreadyDone:     outcome.AlreadyDone,
			QuotationNumber: outcome.DocumentNumber,
			LineItems:       outcome.LineCount,
			Total:           outcome.Total,
			Error:           outcome.Err,
		})
	}

	respondSuccess(w, envelope{
		"results": results,
		"summary": map[string]int{
			"total":   summary.Total,
			"success": summary.Succeeded,
			"failed":  summary.Failed,
		},
	})
}
