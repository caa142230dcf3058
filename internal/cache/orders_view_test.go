package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storeadmin/internal/model"
)

func TestOrdersView_SetGetInvalidate(t *testing.T) {
	c := NewOrdersView()

	_, gen, ok := c.Get()
	assert.False(t, ok)

	stored := c.SetIfGeneration(gen, []model.OrderWithItems{{Order: model.Order{ID: 1, Status: model.OrderStatusPending}}})
	require.True(t, stored)

	got, _, ok := c.Get()
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	c.Invalidate(context.Background())
	_, _, ok = c.Get()
	assert.False(t, ok)
}

func TestOrdersView_EmptySnapshotIsValid(t *testing.T) {
	c := NewOrdersView()
	_, gen, _ := c.Get()
	c.SetIfGeneration(gen, nil)

	got, _, ok := c.Get()
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestOrdersView_DropsSnapshotReadBeforeInvalidate(t *testing.T) {
	c := NewOrdersView()

	_, gen, ok := c.Get()
	require.False(t, ok)

	// Статус изменился, пока список читался из хранилища.
	c.Invalidate(context.Background())

	stale := []model.OrderWithItems{{Order: model.Order{ID: 42, Status: model.OrderStatusPending}}}
	assert.False(t, c.SetIfGeneration(gen, stale))

	_, newGen, ok := c.Get()
	assert.False(t, ok)
	assert.NotEqual(t, gen, newGen)

	fresh := []model.OrderWithItems{{Order: model.Order{ID: 42, Status: model.OrderStatusShipped}}}
	require.True(t, c.SetIfGeneration(newGen, fresh))

	got, _, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, model.OrderStatusShipped, got[0].Status)
}

func TestOrdersView_Concurrent(t *testing.T) {
	c := NewOrdersView()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(id int64) {
			defer wg.Done()
			_, gen, _ := c.Get()
			c.SetIfGeneration(gen, []model.OrderWithItems{{Order: model.Order{ID: id}}})
		}(int64(i))
		go func() {
			defer wg.Done()
			c.Get()
		}()
		go func() {
			defer wg.Done()
			c.Invalidate(context.Background())
		}()
	}
	wg.Wait()
}
