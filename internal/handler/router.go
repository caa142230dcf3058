package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/storeadmin/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware административной панели.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if h.metrics != nil {
		r.Use(custommiddleware.Metrics(h.metrics))
	}
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/health", h.Health)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Get("/orders", h.GetOrders)
		r.Get("/orders/statuses", h.GetOrderStatuses)
		r.Patch("/orders/{id}/status", h.UpdateOrderStatus)

		r.Get("/categories", h.GetCategories)
		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{slug}", h.UpdateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)

		r.Get("/products", h.GetProducts)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{slug}", h.UpdateProduct)
		r.Delete("/products/{slug}", h.DeleteProduct)

		r.Get("/dashboard", h.GetDashboard)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
