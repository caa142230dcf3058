package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"

	"github.com/mmeshcher/storeadmin/internal/model"
	"github.com/mmeshcher/storeadmin/internal/validation"
)

// ErrEmptySlug возвращается, если из названия не удалось построить slug.
var ErrEmptySlug = errors.New("name produces empty slug")

func makeSlug(s string) (string, error) {
	sl := slug.Make(strings.TrimSpace(s))
	if sl == "" {
		return "", ErrEmptySlug
	}
	return sl, nil
}

// ListCategoriesWithProducts возвращает категории вместе с товарами.
func (s *Service) ListCategoriesWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error) {
	return s.repo.ListCategoriesWithProducts(ctx)
}

// CreateCategory создаёт категорию, slug строится из имени.
func (s *Service) CreateCategory(ctx context.Context, name, imageURL string) (*model.Category, error) {
	if err := validation.ValidateCategory(name, imageURL); err != nil {
		return nil, err
	}
	sl, err := makeSlug(name)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateCategory(ctx, strings.TrimSpace(name), sl, imageURL)
}

// UpdateCategory изменяет имя и изображение категории, slug не меняется.
func (s *Service) UpdateCategory(ctx context.Context, categorySlug, name, imageURL string) error {
	if err := validation.ValidateCategory(name, imageURL); err != nil {
		return err
	}
	if err := s.repo.UpdateCategory(ctx, categorySlug, strings.TrimSpace(name), imageURL); err != nil {
		return err
	}
	s.invalidateOrders(ctx)
	return nil
}

// DeleteCategory удаляет категорию.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

// ListProductsWithCategories возвращает товары вместе с категориями.
func (s *Service) ListProductsWithCategories(ctx context.Context) ([]model.ProductWithCategory, error) {
	return s.repo.ListProductsWithCategories(ctx)
}

// CreateProduct создаёт товар, slug строится из названия.
func (s *Service) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if err := validation.ValidateProduct(in); err != nil {
		return nil, err
	}
	sl, err := makeSlug(in.Title)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	return s.repo.CreateProduct(ctx, sl, in)
}

// UpdateProduct изменяет товар по slug.
func (s *Service) UpdateProduct(ctx context.Context, productSlug string, in model.ProductInput) error {
	if err := validation.ValidateProduct(in); err != nil {
		return err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := s.repo.UpdateProduct(ctx, productSlug, in); err != nil {
		return err
	}
	s.invalidateOrders(ctx)
	return nil
}

// DeleteProduct удаляет товар по slug.
func (s *Service) DeleteProduct(ctx context.Context, productSlug string) error {
	return s.repo.DeleteProduct(ctx, productSlug)
}
