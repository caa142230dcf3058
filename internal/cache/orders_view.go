// Package cache содержит кэш представления списка заказов.
package cache

import (
	"context"
	"sync"

	"github.com/mmeshcher/storeadmin/internal/model"
)

// OrdersView хранит последний снимок списка заказов до следующей инвалидации.
//
// Каждая инвалидация увеличивает поколение. Снимок, прочитанный из хранилища
// до инвалидации, не сохраняется.
type OrdersView struct {
	mu     sync.RWMutex
	orders []model.OrderWithItems
	valid  bool
	gen    uint64
}

// NewOrdersView создаёт пустой кэш.
func NewOrdersView() *OrdersView {
	return &OrdersView{}
}

// Get возвращает сохранённый снимок и текущее поколение кэша.
// Поколение передаётся в SetIfGeneration после чтения из хранилища.
func (c *OrdersView) Get() ([]model.OrderWithItems, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return nil, c.gen, false
	}
	out := make([]model.OrderWithItems, len(c.orders))
	copy(out, c.orders)
	return out, c.gen, true
}

// SetIfGeneration сохраняет снимок, только если с момента Get не было инвалидаций.
func (c *OrdersView) SetIfGeneration(gen uint64, orders []model.OrderWithItems) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.orders = orders
	c.valid = true
	return true
}

// Invalidate сбрасывает снимок, следующее чтение пойдёт в хранилище.
func (c *OrdersView) Invalidate(_ context.Context) {
	c.mu.Lock()
	c.orders = nil
	c.valid = false
	c.gen++
	c.mu.Unlock()
}
