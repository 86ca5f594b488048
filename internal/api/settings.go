package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// connectionView — каталожное подключение без пароля.
type connectionView struct {
	Role     string `json:"connection_type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database_name"`
	Username string `json:"username"`
}

// ListCatalogConnections возвращает каталожные подключения; пароли не отдаются.
func (h *Handlers) ListCatalogConnections(w http.ResponseWriter, r *http.Request) {
	connections, err := h.settings.ListCatalogConnections()
	if err != nil {
		h.logger.WithError(err).Error("failed to list catalog connections")
		respondDomainError(w, err)
		return
	}

	views := make([]connectionView, 0, len(connections))
	for _, conn := range connections {
		views = append(views, connectionView{
			Role:     string(conn.Role),
			Host:     conn.Host,
			Port:     conn.Port,
			Database: conn.Database,
			Username: conn.Username,
		})
	}

	respondSuccess(w, envelope{"connections": views})
}

// SaveCatalogConnection создаёт или заменяет подключение каталога.
func (h *Handlers) SaveCatalogConnection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role     string `json:"connection_type"`
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Database string `json:"database_name"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Host == "" || body.Database == "" || body.Username == "" || body.Password == "" {
		respondError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	role := domain.CatalogRole(body.Role)
	if !role.Valid() {
		respondError(w, http.StatusBadRequest, "invalid connection type")
		return
	}
	if body.Port == 0 {
		body.Port = 5432
	}

	err := h.settings.UpsertCatalogConnection(domain.CatalogConnection{
		Role:     role,
		Host:     body.Host,
		Port:     body.Port,
		Database: body.Database,
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to save catalog connection")
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, nil)
}

// TestCatalogConnection проверяет доступность каталожной базы.
func (h *Handlers) TestCatalogConnection(w http.ResponseWriter, r *http.Request) {
	role := domain.CatalogRole(chi.URLParam(r, "role"))
	if !role.Valid() {
		respondError(w, http.StatusBadRequest, "invalid connection type")
		return
	}

	conn, err := h.settings.CatalogConnection(role)
	if err != nil {
		if errors.Is(err, domain.ErrCatalogConnectionMissing) {
			respondError(w, http.StatusNotFound, "connection not configured")
			return
		}
		respondDomainError(w, err)
		return
	}

	if err := h.testCatalog(conn); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	respondSuccess(w, envelope{"message": "connection successful"})
}

// GetCustomerMapping возвращает маппинг покупателя магазина; null, если не настроен.
func (h *Handlers) GetCustomerMapping(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(w, r, "storeID")
	if !ok {
		return
	}

	mapping, err := h.settings.CustomerMapping(storeID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerMappingMissing) {
			respondSuccess(w, envelope{"mapping": nil})
			return
		}
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, envelope{"mapping": map[string]any{
		"store_id":      storeID,
		"customer_id":   mapping.CustomerID,
		"business_name": mapping.BusinessName,
	}})
}

// SaveCustomerMapping создаёт или заменяет маппинг покупателя.
func (h *Handlers) SaveCustomerMapping(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StoreID      int64  `json:"store_id"`
		CustomerID   int64  `json:"customer_id"`
		BusinessName string `json:"business_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.StoreID <= 0 || body.CustomerID <= 0 {
		respondError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	err := h.settings.UpsertCustomerMapping(body.StoreID, domain.CustomerMapping{
		CustomerID:   body.CustomerID,
		BusinessName: body.BusinessName,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to save customer mapping")
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, nil)
}

// customerView — покупатель первичного каталога для выпадающих списков.
type customerView struct {
	ID           int64  `json:"customer_id"`
	AccountNo    string `json:"account_no"`
	BusinessName string `json:"business_name"`
	ContactName  string `json:"contact_name"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// ListCustomers возвращает покупателей первичного каталога; параметр q
// ищет по номеру счёта.
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	quotations, err := h.quotations()
	if err != nil {
		respondDomainError(w, err)
		return
	}

	limit := queryInt(r, "limit", 500)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var customers []domain.Customer
	if query != "" {
		customers, err = quotations.SearchCustomersByAccount(query, limit)
	} else {
		customers, err = quotations.ListCustomers(limit)
	}
	if err != nil {
		h.logger.WithError(err).Error("failed to list customers")
		respondDomainError(w, err)
		return
	}

	views := make([]customerView, 0, len(customers))
	for _, customer := range customers {
		views = append(views, customerView{
			ID:           customer.ID,
			AccountNo:    customer.AccountNo,
			BusinessName: customer.BusinessName,
			ContactName:  customer.ContactName,
			City:         customer.ShipCity,
			State:        customer.ShipState,
		})
	}

	respondSuccess(w, envelope{"customers": views})
}

// GetQuotationDefaults возвращает дефолты котировок магазина; null, если не настроены.
func (h *Handlers) GetQuotationDefaults(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(w, r, "storeID")
	if !ok {
		return
	}

	defaults, err := h.settings.StoreDefaults(storeID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreDefaultsMissing) {
			respondSuccess(w, envelope{"defaults": nil})
			return
		}
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, envelope{"defaults": map[string]any{
		"store_id":               storeID,
		"status":                 defaults.Status,
		"shipper_id":             defaults.ShipperID,
		"sales_rep_id":           defaults.SalesRepID,
		"term_id":                defaults.TermID,
		"quotation_title_prefix": defaults.TitlePrefix,
		"expiration_days":        defaults.EffectiveExpirationDays(),
		"routing_id":             defaults.EffectiveRoutingID(),
	}})
}

// SaveQuotationDefaults создаёт или заменяет дефолты котировок.
func (h *Handlers) SaveQuotationDefaults(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StoreID        int64  `json:"store_id"`
		Status         int32  `json:"status"`
		ShipperID      *int64 `json:"shipper_id"`
		SalesRepID     *int64 `json:"sales_rep_id"`
		TermID         *int64 `json:"term_id"`
		TitlePrefix    string `json:"quotation_title_prefix"`
		ExpirationDays int    `json:"expiration_days"`
		RoutingID      string `json:"routing_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.StoreID <= 0 {
		respondError(w, http.StatusBadRequest, "missing store_id")
		return
	}
	if body.RoutingID != "" && len(body.RoutingID) != 1 {
		respondError(w, http.StatusBadRequest, domain.ErrRoutingIDInvalid.Error())
		return
	}

	err := h.settings.UpsertStoreDefaults(body.StoreID, domain.StoreDefaults{
		Status:         body.Status,
		ShipperID:      body.ShipperID,
		SalesRepID:     body.SalesRepID,
		TermID:         body.TermID,
		TitlePrefix:    body.TitlePrefix,
		ExpirationDays: body.ExpirationDays,
		RoutingID:      body.RoutingID,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to save quotation defaults")
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, nil)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
