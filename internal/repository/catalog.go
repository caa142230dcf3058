package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/mmeshcher/storeadmin/internal/model"
)

// ListCategoriesWithProducts возвращает категории вместе с их товарами.
func (r *PostgresRepository) ListCategoriesWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, image_url, created_at FROM category ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var (
		res   []model.CategoryWithProducts
		index = make(map[int64]int)
	)
	for rows.Next() {
		var c model.CategoryWithProducts
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		index[c.ID] = len(res)
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	products, err := r.ListProductsWithCategories(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		if i, ok := index[p.CategoryID]; ok {
			res[i].Products = append(res[i].Products, p.Product)
		}
	}

	return res, nil
}

// CreateCategory создаёт категорию.
func (r *PostgresRepository) CreateCategory(ctx context.Context, name, slug, imageURL string) (*model.Category, error) {
	c := model.Category{Name: name, Slug: slug, ImageURL: imageURL}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO category (name, slug, image_url) VALUES ($1, $2, $3) RETURNING id, created_at`,
		name, slug, imageURL,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrCategoryExists, slug)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// UpdateCategory изменяет имя и изображение категории по slug.
func (r *PostgresRepository) UpdateCategory(ctx context.Context, slug, name, imageURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE category SET name = $2, image_url = $3 WHERE slug = $1`,
		slug, name, imageURL,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, slug)
	}
	return nil
}

// DeleteCategory удаляет категорию по идентификатору.
func (r *PostgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM category WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%w: %d", ErrCategoryInUse, id)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrCategoryNotFound, id)
	}
	return nil
}

// ListProductsWithCategories возвращает товары вместе с категориями.
func (r *PostgresRepository) ListProductsWithCategories(ctx context.Context) ([]model.ProductWithCategory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.title, p.slug, p.price::text, p.max_quantity, p.hero_image, p.images_url, p.category_id, p.created_at,
		        c.id, c.name, c.slug, c.image_url, c.created_at
		 FROM product p
		 JOIN category c ON c.id = p.category_id
		 ORDER BY p.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var res []model.ProductWithCategory
	for rows.Next() {
		var (
			p     model.ProductWithCategory
			price *string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &price, &p.MaxQuantity, &p.HeroImage, &p.ImagesURL, &p.CategoryID, &p.Product.CreatedAt,
			&p.Category.ID, &p.Category.Name, &p.Category.Slug, &p.Category.ImageURL, &p.Category.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		p.Price, err = parseNullableDecimal(price)
		if err != nil {
			return nil, fmt.Errorf("parse price of product %d: %w", p.ID, err)
		}

		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateProduct создаёт товар.
func (r *PostgresRepository) CreateProduct(ctx context.Context, slug string, in model.ProductInput) (*model.Product, error) {
	price := in.Price
	p := model.Product{
		Title:       in.Title,
		Slug:        slug,
		Price:       &price,
		MaxQuantity: in.MaxQuantity,
		HeroImage:   in.HeroImage,
		ImagesURL:   in.Images,
		CategoryID:  in.CategoryID,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO product (title, slug, price, max_quantity, hero_image, images_url, category_id)
		 VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		in.Title, slug, in.Price.String(), in.MaxQuantity, in.HeroImage, in.Images, in.CategoryID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case pgerrcode.UniqueViolation:
			return nil, fmt.Errorf("%w: %s", ErrProductExists, slug)
		case pgerrcode.ForeignKeyViolation:
			return nil, fmt.Errorf("%w: %d", ErrCategoryNotFound, in.CategoryID)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return &p, nil
}

// UpdateProduct изменяет товар по slug.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, slug string, in model.ProductInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE product
		 SET title = $2, price = $3::numeric, max_quantity = $4, hero_image = $5, images_url = $6, category_id = $7
		 WHERE slug = $1`,
		slug, in.Title, in.Price.String(), in.MaxQuantity, in.HeroImage, in.Images, in.CategoryID,
	)
	if err != nil {
		if pgErrorCode(err) == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%w: %d", ErrCategoryNotFound, in.CategoryID)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, slug)
	}
	return nil
}

// DeleteProduct удаляет товар по slug.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, slug string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product WHERE slug = $1`, slug)
	if err != nil {
		if pgErrorCode(err) == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%w: %s", ErrProductInUse, slug)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, slug)
	}
	return nil
}

// GetCategoryProductCounts возвращает количество товаров в каждой категории.
func (r *PostgresRepository) GetCategoryProductCounts(ctx context.Context) ([]model.CategoryProducts, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.name, COUNT(p.id)
		 FROM category c
		 LEFT JOIN product p ON p.category_id = c.id
		 GROUP BY c.id, c.name
		 ORDER BY c.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select category counts: %w", err)
	}
	defer rows.Close()

	var res []model.CategoryProducts
	for rows.Next() {
		var c model.CategoryProducts
		if err := rows.Scan(&c.Name, &c.Products); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
