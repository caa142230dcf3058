// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrOrderNotFound возвращается, если заказ с указанным идентификатором не существует.
var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrVersionConflict возвращается, если версия заказа изменилась с момента чтения.
	ErrVersionConflict = errors.New("order version conflict")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrCategoryExists возвращается при попытке создать категорию с существующим slug.
	ErrCategoryExists = errors.New("category already exists")
	// ErrCategoryNotFound возвращается, если категория не найдена.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryInUse возвращается при удалении категории, к которой привязаны товары.
	ErrCategoryInUse = errors.New("category has products")
	// ErrProductExists возвращается при попытке создать товар с существующим slug.
	ErrProductExists = errors.New("product already exists")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductInUse возвращается при удалении товара, который есть в заказах.
	ErrProductInUse = errors.New("product is referenced by orders")
)

// PostgresRepository хранит заказы, каталог и очередь push-уведомлений в PostgreSQL.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	delays []time.Duration
}

type options struct {
	maxConns       int32
	connectTimeout time.Duration
	retryDelays    []time.Duration
}

// Option настраивает пул соединений и повторы запросов.
type Option func(*options)

// WithMaxConns ограничивает размер пула соединений.
func WithMaxConns(n int32) Option {
	return func(o *options) {
		o.maxConns = n
	}
}

// WithConnectTimeout задаёт таймаут подключения и применения миграций.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = d
	}
}

// WithRetryDelays задаёт паузы между повторами транзакций.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(o *options) {
		o.retryDelays = delays
	}
}

// NewPostgresRepository подключается к БД по dsn и применяет встроенные миграции.
func NewPostgresRepository(dsn string, opts ...Option) (*PostgresRepository, error) {
	o := options{
		connectTimeout: 10 * time.Second,
		retryDelays:    []time.Duration{time.Second, 3 * time.Second, 5 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if o.maxConns > 0 {
		poolCfg.MaxConns = o.maxConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{pool: pool, delays: o.retryDelays}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, dir)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// withRetry повторяет fn при конфликте сериализации, взаимоблокировке и ошибках соединения,
// при которых запрос не дошёл до сервера. Используется только для идемпотентных операций.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= len(r.delays) || !isRetryable(err) {
			return err
		}

		timer := time.NewTimer(r.delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch pgErrorCode(err) {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	case "":
		return pgconn.SafeToRetry(err) || errors.Is(err, syscall.ECONNREFUSED)
	default:
		return false
	}
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Ping проверяет доступность базы данных.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
