//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mmeshcher/storeadmin/internal/model"
)

func setupPostgres(t *testing.T) *PostgresRepository {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("storeadmin_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewPostgresRepository(dsn, WithMaxConns(4), WithRetryDelays(10*time.Millisecond, 50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

func seedOrder(t *testing.T, repo *PostgresRepository, email string, token *string) (string, int64) {
	t.Helper()
	ctx := context.Background()

	var userID string
	err := repo.pool.QueryRow(ctx,
		`INSERT INTO users (email, expo_notification_token) VALUES ($1, $2) RETURNING id::text`,
		email, token,
	).Scan(&userID)
	require.NoError(t, err)

	var orderID int64
	err = repo.pool.QueryRow(ctx,
		`INSERT INTO "order" (user_id, status, total_price) VALUES ($1, 'Pending', 42.50) RETURNING id`,
		userID,
	).Scan(&orderID)
	require.NoError(t, err)

	return userID, orderID
}

func TestUpdateOrderStatus_PersistsOnlyTargetOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	repo := setupPostgres(t)
	ctx := context.Background()

	tok := "tok_abc"
	userID, target := seedOrder(t, repo, "a@example.com", &tok)
	_, other := seedOrder(t, repo, "b@example.com", nil)

	change, err := repo.UpdateOrderStatus(ctx, target, model.OrderStatusShipped, nil, "admin")
	require.NoError(t, err)
	assert.Equal(t, userID, change.UserID)
	assert.Equal(t, model.OrderStatusPending, change.OldStatus)
	assert.Equal(t, model.OrderStatusShipped, change.NewStatus)
	assert.Equal(t, int64(2), change.Version)

	var historyRows int
	require.NoError(t, repo.pool.QueryRow(ctx,
		`SELECT count(*) FROM order_status_history WHERE order_id = $1`, target,
	).Scan(&historyRows))
	assert.Equal(t, 1, historyRows)

	orders, err := repo.GetOrdersWithItems(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	statuses := map[int64]model.OrderStatus{}
	for _, o := range orders {
		statuses[o.ID] = o.Status
	}
	assert.Equal(t, model.OrderStatusShipped, statuses[target])
	assert.Equal(t, model.OrderStatusPending, statuses[other])
}

func TestUpdateOrderStatus_LastWriteWinsAndVersionCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	repo := setupPostgres(t)
	ctx := context.Background()
	_, orderID := seedOrder(t, repo, "c@example.com", nil)

	_, err := repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusShipped, nil, "")
	require.NoError(t, err)
	change, err := repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusCompleted, nil, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, change.OldStatus)

	stale := int64(1)
	_, err = repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusPending, &stale, "")
	assert.ErrorIs(t, err, ErrVersionConflict)

	orders, err := repo.GetOrdersWithItems(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderStatusCompleted, orders[0].Status)
	assert.True(t, decimal.RequireFromString("42.5").Equal(orders[0].TotalPrice))
}

func TestUpdateOrderStatus_UnknownOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	repo := setupPostgres(t)

	_, err := repo.UpdateOrderStatus(context.Background(), 9999, model.OrderStatusShipped, nil, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetUserPushToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	repo := setupPostgres(t)
	ctx := context.Background()

	tok := "tok_abc"
	withToken, _ := seedOrder(t, repo, "d@example.com", &tok)
	withoutToken, _ := seedOrder(t, repo, "e@example.com", nil)

	got, err := repo.GetUserPushToken(ctx, withToken)
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", got)

	got, err = repo.GetUserPushToken(ctx, withoutToken)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.GetUserPushToken(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCatalogAndPushOutbox(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	repo := setupPostgres(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, "Shoes", "shoes", "https://img.example.com/shoes.png")
	require.NoError(t, err)

	_, err = repo.CreateCategory(ctx, "Shoes", "shoes", "https://img.example.com/shoes.png")
	assert.ErrorIs(t, err, ErrCategoryExists)

	_, err = repo.CreateProduct(ctx, "runner", model.ProductInput{
		Title:       "Runner",
		Price:       decimal.RequireFromString("59.90"),
		MaxQuantity: 3,
		CategoryID:  cat.ID,
		HeroImage:   "https://img.example.com/runner.png",
		Images:      []string{"https://img.example.com/runner-1.png"},
	})
	require.NoError(t, err)

	counts, err := repo.GetCategoryProductCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryProducts{{Name: "Shoes", Products: 1}}, counts)

	assert.ErrorIs(t, repo.DeleteCategory(ctx, cat.ID), ErrCategoryInUse)

	userID, _ := seedOrder(t, repo, "f@example.com", nil)
	msg := model.PushMessage{To: "tok", Sound: "default", Title: "t", Body: "b"}
	require.NoError(t, repo.EnqueuePush(ctx, userID, msg, "boom"))

	pending, err := repo.FetchPendingPushes(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "tok", pending[0].Message.To)

	require.NoError(t, repo.MarkPushSent(ctx, pending[0].ID))
	pending, err = repo.FetchPendingPushes(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
