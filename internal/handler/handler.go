// Package handler содержит HTTP-обработчики API административной панели.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/storeadmin/internal/metrics"
	"github.com/mmeshcher/storeadmin/internal/middleware"
	"github.com/mmeshcher/storeadmin/internal/model"
	"github.com/mmeshcher/storeadmin/internal/repository"
	"github.com/mmeshcher/storeadmin/internal/service"
	"github.com/mmeshcher/storeadmin/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, expectedVersion *int64, actor string) error
	GetOrdersWithItems(ctx context.Context) ([]model.OrderWithItems, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)

	ListCategoriesWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error)
	CreateCategory(ctx context.Context, name, imageURL string) (*model.Category, error)
	UpdateCategory(ctx context.Context, slug, name, imageURL string) error
	DeleteCategory(ctx context.Context, id int64) error

	ListProductsWithCategories(ctx context.Context) ([]model.ProductWithCategory, error)
	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, slug string, in model.ProductInput) error
	DeleteProduct(ctx context.Context, slug string) error
}

// Handler реализует HTTP-обработчики API административной панели.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов. m может быть nil.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, m *metrics.Metrics) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        m,
	}
}

// Health проверяет доступность базы данных.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type validationResponse struct {
	Errors validation.FieldErrors `json:"errors"`
}

// writeServiceError отображает ошибки сервиса и репозитория в коды ответа.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	var fe validation.FieldErrors
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: fe})
	case errors.Is(err, service.ErrEmptySlug):
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: validation.FieldErrors{"name": err.Error()}})
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrProductNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, repository.ErrCategoryExists),
		errors.Is(err, repository.ErrCategoryInUse),
		errors.Is(err, repository.ErrProductExists),
		errors.Is(err, repository.ErrProductInUse):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	default:
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
