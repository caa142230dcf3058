package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/storeadmin/internal/middleware"
	"github.com/mmeshcher/storeadmin/internal/model"
)

type updateStatusRequest struct {
	Status  string `json:"status"`
	Version *int64 `json:"version,omitempty"`
}

// UpdateOrderStatus меняет статус заказа и уведомляет покупателя.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	actor, _ := middleware.GetActorFromContext(r.Context())

	err = h.service.UpdateOrderStatus(r.Context(), orderID, status, req.Version, actor)
	if err != nil {
		h.writeServiceError(w, err, "update order status error",
			zap.Int64("orderID", orderID), zap.String("status", string(status)))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type orderUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type orderItemResponse struct {
	ID       int64           `json:"id"`
	Quantity int             `json:"quantity"`
	Product  productResponse `json:"product"`
}

type orderResponse struct {
	ID         int64               `json:"id"`
	Status     string              `json:"status"`
	TotalPrice decimal.Decimal     `json:"totalPrice"`
	Version    int64               `json:"version"`
	CreatedAt  string              `json:"createdAt"`
	User       orderUserResponse   `json:"user"`
	OrderItems []orderItemResponse `json:"orderItems"`
}

// GetOrders возвращает список заказов с позициями и покупателями.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetOrdersWithItems(r.Context())
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items := make([]orderItemResponse, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, orderItemResponse{
				ID:       it.ID,
				Quantity: it.Quantity,
				Product:  toProductResponse(it.Product),
			})
		}

		resp = append(resp, orderResponse{
			ID:         o.ID,
			Status:     string(o.Status),
			TotalPrice: o.TotalPrice,
			Version:    o.Version,
			CreatedAt:  o.CreatedAt.Format(time.RFC3339),
			User:       orderUserResponse{ID: o.User.ID, Email: o.User.Email},
			OrderItems: items,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetOrderStatuses возвращает допустимые статусы заказа.
func (h *Handler) GetOrderStatuses(w http.ResponseWriter, r *http.Request) {
	statuses := model.AllOrderStatuses()
	resp := make([]string, 0, len(statuses))
	for _, s := range statuses {
		resp = append(resp, string(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDashboard возвращает данные аналитической панели.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
