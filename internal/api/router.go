package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 60 * time.Second

// NewRouter собирает chi-роутер API.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no route for %s", req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/stores", func(stores chi.Router) {
			stores.Get("/", h.ListStores)
			stores.Post("/", h.CreateStore)
			stores.Put("/{storeID}", h.UpdateStore)
			stores.Delete("/{storeID}", h.DeleteStore)
			stores.Post("/{storeID}/test", h.TestStoreConnection)
		})

		api.Route("/sql-connections", func(conns chi.Router) {
			conns.Get("/", h.ListCatalogConnections)
			conns.Post("/", h.SaveCatalogConnection)
			conns.Post("/{role}/test", h.TestCatalogConnection)
		})

		api.Get("/customer-mappings/{storeID}", h.GetCustomerMapping)
		api.Post("/customer-mappings", h.SaveCustomerMapping)
		api.Get("/customers", h.ListCustomers)

		api.Get("/quotation-defaults/{storeID}", h.GetQuotationDefaults)
		api.Post("/quotation-defaults", h.SaveQuotationDefaults)

		api.Route("/orders", func(orders chi.Router) {
			orders.Get("/", h.ListOrders)
			orders.Post("/validate", h.ValidateOrder)
			orders.Post("/transfer", h.TransferOrders)
		})

		api.Route("/history", func(history chi.Router) {
			history.Get("/", h.GetHistory)
			history.Delete("/{recordID}", h.DeleteHistoryRecord)
			history.Post("/delete-failed", h.DeleteFailedHistory)
		})
	})

	return r
}
