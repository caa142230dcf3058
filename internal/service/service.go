// Package service реализует бизнес-логику административной панели магазина.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storeadmin/internal/metrics"
	"github.com/mmeshcher/storeadmin/internal/model"
	"github.com/mmeshcher/storeadmin/internal/notification"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error

	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, expectedVersion *int64, changedBy string) (*model.StatusChange, error)
	GetOrdersWithItems(ctx context.Context) ([]model.OrderWithItems, error)
	GetOrderDates(ctx context.Context) ([]time.Time, error)
	GetLatestUsers(ctx context.Context, limit int) ([]model.LatestUser, error)
	GetCategoryProductCounts(ctx context.Context) ([]model.CategoryProducts, error)

	ListCategoriesWithProducts(ctx context.Context) ([]model.CategoryWithProducts, error)
	CreateCategory(ctx context.Context, name, slug, imageURL string) (*model.Category, error)
	UpdateCategory(ctx context.Context, slug, name, imageURL string) error
	DeleteCategory(ctx context.Context, id int64) error

	ListProductsWithCategories(ctx context.Context) ([]model.ProductWithCategory, error)
	CreateProduct(ctx context.Context, slug string, in model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, slug string, in model.ProductInput) error
	DeleteProduct(ctx context.Context, slug string) error
}

// Notifier отправляет уведомление пользователю.
type Notifier interface {
	Dispatch(ctx context.Context, userID string, n notification.Notification) error
}

// OrdersCache хранит снимок списка заказов.
type OrdersCache interface {
	Get() ([]model.OrderWithItems, uint64, bool)
	SetIfGeneration(gen uint64, orders []model.OrderWithItems) bool
	Invalidate(ctx context.Context)
}

// EventPublisher публикует события смены статуса заказа.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, c model.StatusChange) error
}

// Option настраивает необязательные зависимости сервиса.
type Option func(*Service)

// WithOrdersCache подключает кэш списка заказов.
func WithOrdersCache(c OrdersCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithEventPublisher подключает публикацию событий смены статуса.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service содержит бизнес-логику административной панели.
type Service struct {
	repo     Repository
	notifier Notifier
	cache    OrdersCache
	events   EventPublisher
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService создаёт новый сервис с указанным репозиторием и диспетчером уведомлений.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) invalidateOrders(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
