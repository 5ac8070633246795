package ordersRepo

import (
	"context"

	"jepet/database/repository"
	"jepet/models"
)

// OrderRepository stores the orders sub-collection of each user.
type OrderRepository interface {
	// Put writes the order under its client-generated id.
	Put(ctx context.Context, o *models.Order) error
	// Watch delivers the user's full order collection on every change until stopped.
	Watch(ctx context.Context, uid string, onSnapshot func([]models.Order), onError func(error)) repository.Subscription
}
