// Package validation содержит функции валидации входных данных.
package validation

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/storeadmin/internal/model"
)

// FieldErrors содержит сообщения об ошибках по именам полей.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e FieldErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// IsURL проверяет, что строка является абсолютным http(s) адресом.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidateCategory проверяет имя и изображение категории.
func ValidateCategory(name, imageURL string) error {
	errs := FieldErrors{}
	if utf8.RuneCountInString(strings.TrimSpace(name)) < 2 {
		errs["name"] = "Name must be at least 2 characters long"
	}
	if strings.TrimSpace(imageURL) == "" {
		errs["imageUrl"] = "Image is required"
	}
	return errs.orNil()
}

// ValidateProduct проверяет поля товара.
func ValidateProduct(in model.ProductInput) error {
	errs := FieldErrors{}
	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = "Title is required"
	}
	if !in.Price.GreaterThan(decimal.Zero) {
		errs["price"] = "price is required"
	}
	if in.MaxQuantity <= 0 {
		errs["maxQuantity"] = "maxQuantity is required"
	}
	if in.CategoryID <= 0 {
		errs["category"] = "Category is required"
	}
	if !IsURL(in.HeroImage) {
		errs["heroImage"] = "Hero image is required"
	}
	for _, img := range in.Images {
		if !IsURL(img) {
			errs["images"] = "Images are required"
			break
		}
	}
	return errs.orNil()
}
