package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/storeadmin/internal/model"
)

type categoryRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type categoryResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	ImageURL  string            `json:"imageUrl"`
	CreatedAt string            `json:"created_at"`
	Products  []productResponse `json:"products,omitempty"`
}

type productRequest struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	MaxQuantity int             `json:"maxQuantity"`
	Category    int64           `json:"category"`
	HeroImage   string          `json:"heroImage"`
	Images      []string        `json:"images"`
}

func (p productRequest) toInput() model.ProductInput {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return model.ProductInput{
		Title:       p.Title,
		Price:       p.Price,
		MaxQuantity: p.MaxQuantity,
		CategoryID:  p.Category,
		HeroImage:   p.HeroImage,
		Images:      images,
	}
}

type productResponse struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Price       *decimal.Decimal  `json:"price"`
	MaxQuantity int               `json:"maxQuantity"`
	HeroImage   string            `json:"heroImage"`
	ImagesURL   []string          `json:"imagesUrl"`
	CategoryID  int64             `json:"categoryId"`
	CreatedAt   string            `json:"created_at"`
	Category    *categoryResponse `json:"category,omitempty"`
}

func toCategoryResponse(c model.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		ImageURL:  c.ImageURL,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toProductResponse(p model.Product) productResponse {
	images := p.ImagesURL
	if images == nil {
		images = []string{}
	}
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Price:       p.Price,
		MaxQuantity: p.MaxQuantity,
		HeroImage:   p.HeroImage,
		ImagesURL:   images,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// GetCategories возвращает категории с товарами.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategoriesWithProducts(r.Context())
	if err != nil {
		h.logger.Error("get categories error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		cr := toCategoryResponse(c.Category)
		cr.Products = make([]productResponse, 0, len(c.Products))
		for _, p := range c.Products {
			cr.Products = append(cr.Products, toProductResponse(p))
		}
		resp = append(resp, cr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateCategory создаёт категорию.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.CreateCategory(r.Context(), req.Name, req.ImageURL)
	if err != nil {
		h.writeServiceError(w, err, "create category error", zap.String("name", req.Name))
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(*c))
}

// UpdateCategory изменяет категорию по slug.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateCategory(r.Context(), slug, req.Name, req.ImageURL); err != nil {
		h.writeServiceError(w, err, "update category error", zap.String("slug", slug))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategory удаляет категорию по идентификатору.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "delete category error", zap.Int64("categoryID", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProducts возвращает товары с категориями.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProductsWithCategories(r.Context())
	if err != nil {
		h.logger.Error("get products error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		pr := toProductResponse(p.Product)
		cr := toCategoryResponse(p.Category)
		pr.Category = &cr
		resp = append(resp, pr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateProduct создаёт товар.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p, err := h.service.CreateProduct(r.Context(), req.toInput())
	if err != nil {
		h.writeServiceError(w, err, "create product error", zap.String("title", req.Title))
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

// UpdateProduct изменяет товар по slug.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateProduct(r.Context(), slug, req.toInput()); err != nil {
		h.writeServiceError(w, err, "update product error", zap.String("slug", slug))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteProduct удаляет товар по slug.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.service.DeleteProduct(r.Context(), slug); err != nil {
		h.writeServiceError(w, err, "delete product error", zap.String("slug", slug))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
