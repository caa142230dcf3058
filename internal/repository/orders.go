package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/storeadmin/internal/model"
)

// UpdateOrderStatus сохраняет новый статус заказа и записывает изменение в историю.
// Если expectedVersion не nil, обновление выполняется только при совпадении версии заказа.
// Транзакция не повторяется: ошибка, в том числе обрыв соединения на commit, возвращается вызывающему.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, expectedVersion *int64, changedBy string) (*model.StatusChange, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		userID    string
		oldStatus string
		version   int64
	)
	err = tx.QueryRow(ctx,
		`SELECT user_id::text, status, version FROM "order" WHERE id = $1 FOR UPDATE`,
		orderID,
	).Scan(&userID, &oldStatus, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if expectedVersion != nil && *expectedVersion != version {
		return nil, fmt.Errorf("%w: order %d has version %d, expected %d", ErrVersionConflict, orderID, version, *expectedVersion)
	}

	err = tx.QueryRow(ctx,
		`UPDATE "order" SET status = $2, version = version + 1 WHERE id = $1 RETURNING version`,
		orderID, string(status),
	).Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	var changedAt time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO order_status_history (order_id, old_status, new_status, changed_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING changed_at`,
		orderID, oldStatus, string(status), changedBy,
	).Scan(&changedAt)
	if err != nil {
		return nil, fmt.Errorf("insert status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &model.StatusChange{
		OrderID:   orderID,
		UserID:    userID,
		OldStatus: model.OrderStatus(oldStatus),
		NewStatus: status,
		Version:   version,
		ChangedBy: changedBy,
		ChangedAt: changedAt,
	}, nil
}

// GetOrdersWithItems возвращает заказы с позициями, товарами и владельцами, новые первыми.
func (r *PostgresRepository) GetOrdersWithItems(ctx context.Context) ([]model.OrderWithItems, error) {
	var orders []model.OrderWithItems
	err := r.withRetry(ctx, func() error {
		var err error
		orders, err = r.getOrdersWithItems(ctx)
		return err
	})
	return orders, err
}

func (r *PostgresRepository) getOrdersWithItems(ctx context.Context) ([]model.OrderWithItems, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.user_id::text, o.status, o.total_price::text, o.version, o.created_at,
		        u.email, u.expo_notification_token, u.created_at
		 FROM "order" o
		 JOIN users u ON u.id = o.user_id
		 ORDER BY o.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []model.OrderWithItems
		ids    []int64
	)
	for rows.Next() {
		var (
			o             model.OrderWithItems
			status        string
			total         string
			userCreatedAt *time.Time
		)
		if err := rows.Scan(&o.ID, &o.UserID, &status, &total, &o.Version, &o.CreatedAt,
			&o.User.Email, &o.User.NotificationToken, &userCreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		o.Status = model.OrderStatus(status)
		o.TotalPrice, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("parse total price of order %d: %w", o.ID, err)
		}
		o.User.ID = o.UserID
		if userCreatedAt != nil {
			o.User.CreatedAt = *userCreatedAt
		}

		orders = append(orders, o)
		ids = append(ids, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.getOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *PostgresRepository) getOrderItems(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.quantity,
		        p.id, p.title, p.slug, p.price::text, p.max_quantity, p.hero_image, p.images_url, p.category_id, p.created_at
		 FROM order_item oi
		 JOIN product p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.id`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	res := make(map[int64][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item  model.OrderItem
			price *string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Quantity,
			&item.Product.ID, &item.Product.Title, &item.Product.Slug, &price, &item.Product.MaxQuantity,
			&item.Product.HeroImage, &item.Product.ImagesURL, &item.Product.CategoryID, &item.Product.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		item.Product.Price, err = parseNullableDecimal(price)
		if err != nil {
			return nil, fmt.Errorf("parse price of product %d: %w", item.Product.ID, err)
		}

		res[item.OrderID] = append(res[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetOrderDates возвращает даты создания всех заказов.
func (r *PostgresRepository) GetOrderDates(ctx context.Context) ([]time.Time, error) {
	var dates []time.Time
	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx, `SELECT created_at FROM "order"`)
		if err != nil {
			return fmt.Errorf("select order dates: %w", err)
		}
		dates, err = pgx.CollectRows(rows, pgx.RowTo[time.Time])
		if err != nil {
			return fmt.Errorf("collect order dates: %w", err)
		}
		return nil
	})
	return dates, err
}

// GetUserPushToken возвращает push-токен пользователя или пустую строку, если токена нет.
func (r *PostgresRepository) GetUserPushToken(ctx context.Context, userID string) (string, error) {
	var token *string
	err := r.pool.QueryRow(ctx,
		`SELECT expo_notification_token FROM users WHERE id = $1`,
		userID,
	).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == pgerrcode.InvalidTextRepresentation {
			return "", fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return "", fmt.Errorf("get user token: %w", err)
	}

	if token == nil {
		return "", nil
	}
	return *token, nil
}

// GetLatestUsers возвращает последних зарегистрированных пользователей.
func (r *PostgresRepository) GetLatestUsers(ctx context.Context, limit int) ([]model.LatestUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, email, created_at
		 FROM users
		 ORDER BY created_at DESC NULLS LAST
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select latest users: %w", err)
	}
	defer rows.Close()

	var res []model.LatestUser
	for rows.Next() {
		var u model.LatestUser
		if err := rows.Scan(&u.ID, &u.Email, &u.Date); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		res = append(res, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func parseNullableDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
