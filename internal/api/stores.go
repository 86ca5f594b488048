package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// storeView — магазин в ответах API; токен наружу не отдаётся.
type storeView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ShopURL   string    `json:"shop_url"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newStoreView(store domain.SourceStore) storeView {
	return storeView{
		ID:        store.ID,
		Name:      store.Name,
		ShopURL:   store.ShopURL,
		Active:    store.Active,
		CreatedAt: store.CreatedAt,
		UpdatedAt: store.UpdatedAt,
	}
}

// ListStores возвращает все зарегистрированные магазины.
func (h *Handlers) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.settings.ListStores(false)
	if err != nil {
		h.logger.WithError(err).Error("failed to list stores")
		respondDomainError(w, err)
		return
	}

	views := make([]storeView, 0, len(stores))
	for _, store := range stores {
		views = append(views, newStoreView(store))
	}

	respondSuccess(w, envelope{"stores": views})
}

// CreateStore регистрирует новый магазин источника.
func (h *Handlers) CreateStore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		ShopURL  string `json:"shop_url"`
		APIToken string `json:"api_token"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Name == "" || body.ShopURL == "" || body.APIToken == "" {
		respondError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	id, err := h.settings.CreateStore(body.Name, body.ShopURL, body.APIToken)
	if err != nil {
		h.logger.WithError(err).Error("failed to create store")
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, envelope{"store_id": id})
}

// UpdateStore изменяет магазин; отсутствующие в теле поля не трогаются.
func (h *Handlers) UpdateStore(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(w, r, "storeID")
	if !ok {
		return
	}

	var body struct {
		Name     *string `json:"name"`
		ShopURL  *string `json:"shop_url"`
		APIToken *string `json:"api_token"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.settings.UpdateStore(storeID, domain.SourceStorePatch{
		Name:     body.Name,
		ShopURL:  body.ShopURL,
		APIToken: body.APIToken,
	})
	if err != nil {
		h.logger.WithError(err).WithField("store_id", storeID).Error("failed to update store")
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, nil)
}

// DeleteStore удаляет магазин вместе с его маппингом и дефолтами.
func (h *Handlers) DeleteStore(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(w, r, "storeID")
	if !ok {
		return
	}

	if err := h.settings.DeleteStore(storeID); err != nil {
		h.logger.WithError(err).WithField("store_id", storeID).Error("failed to delete store")
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, nil)
}

// TestStoreConnection проверяет доступность магазина источника.
func (h *Handlers) TestStoreConnection(w http.ResponseWriter, r *http.Request) {
	storeID, ok := pathID(w, r, "storeID")
	if !ok {
		return
	}

	store, err := h.settings.GetStore(storeID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	message, err := h.sources(store).TestConnection()
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	respondSuccess(w, envelope{"message": message})
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}
