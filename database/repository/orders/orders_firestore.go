package ordersRepo

import (
	"context"
	"fmt"

	"jepet/database/repository"
	"jepet/models"

	"cloud.google.com/go/firestore"
)

// FirestoreOrderRepo keeps orders at users/{uid}/orders/{id}.
type FirestoreOrderRepo struct {
	client *firestore.Client
}

func NewFirestoreOrderRepo(client *firestore.Client) OrderRepository {
	return &FirestoreOrderRepo{client: client}
}

func (r *FirestoreOrderRepo) coll(uid string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(uid).Collection("orders")
}

func (r *FirestoreOrderRepo) Put(ctx context.Context, o *models.Order) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	if _, err := r.coll(o.UserID).Doc(o.ID).Set(ctx, o); err != nil {
		return fmt.Errorf("failed to write order %s: %w", o.ID, err)
	}
	return nil
}

func (r *FirestoreOrderRepo) Watch(ctx context.Context, uid string, onSnapshot func([]models.Order), onError func(error)) repository.Subscription {
	return repository.Watch(ctx, func(ctx context.Context) {
		it := r.coll(uid).Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() == nil {
					onError(fmt.Errorf("orders subscription for %s: %w", uid, err))
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				onError(fmt.Errorf("orders subscription for %s: %w", uid, err))
				continue
			}
			orders := make([]models.Order, 0, len(docs))
			for _, d := range docs {
				var o models.Order
				if err := d.DataTo(&o); err != nil {
					onError(fmt.Errorf("failed to decode order %s: %w", d.Ref.ID, err))
					continue
				}
				if o.ID == "" {
					o.ID = d.Ref.ID
				}
				orders = append(orders, o)
			}
			onSnapshot(orders)
		}
	})
}
