package ordersRepo

import (
	"context"
	"sync"

	"jepet/database/repository"
	"jepet/models"
)

// MemoryOrderRepo is an in-process OrderRepository for development and tests.
type MemoryOrderRepo struct {
	mu     sync.RWMutex
	byUser map[string]map[string]models.Order
	hub    *repository.Hub
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{
		byUser: make(map[string]map[string]models.Order),
		hub:    repository.NewHub(),
	}
}

func (r *MemoryOrderRepo) Put(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	if r.byUser[o.UserID] == nil {
		r.byUser[o.UserID] = make(map[string]models.Order)
	}
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	r.byUser[o.UserID][o.ID] = cp
	r.mu.Unlock()
	r.hub.Notify(o.UserID)
	return nil
}

// List returns a copy of the user's orders in no particular order.
func (r *MemoryOrderRepo) List(uid string) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := make([]models.Order, 0, len(r.byUser[uid]))
	for _, o := range r.byUser[uid] {
		orders = append(orders, o)
	}
	return orders
}

func (r *MemoryOrderRepo) Watch(ctx context.Context, uid string, onSnapshot func([]models.Order), _ func(error)) repository.Subscription {
	changes, unlisten := r.hub.Listen(uid)
	return repository.Watch(ctx, func(ctx context.Context) {
		defer unlisten()

		onSnapshot(r.List(uid))
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				onSnapshot(r.List(uid))
			}
		}
	})
}
