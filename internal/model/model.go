// Package model содержит доменные сущности административной панели магазина.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// User представляет покупателя магазина.
type User struct {
	ID                string
	Email             string
	NotificationToken *string
	CreatedAt         time.Time
}

// OrderStatus описывает стадию выполнения заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusInTransit OrderStatus = "InTransit"
	OrderStatusCompleted OrderStatus = "Completed"
)

// AllOrderStatuses возвращает допустимые статусы в порядке выполнения заказа.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusShipped,
		OrderStatusInTransit,
		OrderStatusCompleted,
	}
}

// ParseOrderStatus проверяет, что строка является одним из известных статусов.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range AllOrderStatuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Order описывает заказ покупателя.
type Order struct {
	ID         int64
	UserID     string
	Status     OrderStatus
	TotalPrice decimal.Decimal
	Version    int64
	CreatedAt  time.Time
}

// OrderItem описывает позицию заказа вместе с товаром.
type OrderItem struct {
	ID       int64
	OrderID  int64
	Quantity int
	Product  Product
}

// OrderWithItems объединяет заказ, его позиции и владельца.
type OrderWithItems struct {
	Order
	Items []OrderItem
	User  User
}

// StatusChange описывает результат сохранения нового статуса заказа.
type StatusChange struct {
	OrderID   int64
	UserID    string
	OldStatus OrderStatus
	NewStatus OrderStatus
	Version   int64
	ChangedBy string
	ChangedAt time.Time
}

// PushMessage описывает сообщение для сервиса доставки push-уведомлений.
type PushMessage struct {
	To    string         `json:"to"`
	Sound string         `json:"sound"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data"`
}

// PendingPush описывает push-сообщение, ожидающее повторной доставки.
type PendingPush struct {
	ID       int64
	UserID   string
	Message  PushMessage
	Attempts int
}

// Category описывает категорию товаров.
type Category struct {
	ID        int64
	Name      string
	Slug      string
	ImageURL  string
	CreatedAt time.Time
}

// CategoryWithProducts содержит категорию и её товары.
type CategoryWithProducts struct {
	Category
	Products []Product
}

// Product описывает товар каталога.
type Product struct {
	ID          int64
	Title       string
	Slug        string
	Price       *decimal.Decimal
	MaxQuantity int
	HeroImage   string
	ImagesURL   []string
	CategoryID  int64
	CreatedAt   time.Time
}

// ProductWithCategory содержит товар и его категорию.
type ProductWithCategory struct {
	Product
	Category Category
}

// ProductInput содержит поля для создания и изменения товара.
type ProductInput struct {
	Title       string
	Price       decimal.Decimal
	MaxQuantity int
	CategoryID  int64
	HeroImage   string
	Images      []string
}

// MonthlyOrders содержит количество заказов за месяц.
type MonthlyOrders struct {
	Name   string `json:"name"`
	Orders int    `json:"orders"`
}

// CategoryProducts содержит количество товаров в категории.
type CategoryProducts struct {
	Name     string `json:"name"`
	Products int    `json:"products"`
}

// LatestUser описывает недавно зарегистрированного пользователя для дашборда.
type LatestUser struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Date  *time.Time `json:"date"`
}

// Dashboard объединяет данные аналитической панели.
type Dashboard struct {
	MonthlyOrders []MonthlyOrders    `json:"monthlyOrders"`
	CategoryData  []CategoryProducts `json:"categoryData"`
	LatestUsers   []LatestUser       `json:"latestUsers"`
}
