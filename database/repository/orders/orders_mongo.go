package ordersRepo

import (
	"context"
	"fmt"

	"jepet/database/repository"
	"jepet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepo keeps every user's orders in one collection indexed by user_id.
type MongoOrderRepo struct {
	coll *mongo.Collection
}

func NewMongoOrderRepo(db *mongo.Database) OrderRepository {
	repo := &MongoOrderRepo{coll: db.Collection("orders")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create order indexes: %v\n", err)
	}
	return repo
}

func (r *MongoOrderRepo) ensureIndexes() error {
	ctx, cancel := repository.NewContext(context.Background())
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}

func (r *MongoOrderRepo) Put(ctx context.Context, o *models.Order) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": o.ID}, o, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write order %s: %w", o.ID, err)
	}
	return nil
}

func (r *MongoOrderRepo) list(ctx context.Context, uid string) ([]models.Order, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"user_id": uid})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *MongoOrderRepo) Watch(ctx context.Context, uid string, onSnapshot func([]models.Order), onError func(error)) repository.Subscription {
	return repository.Watch(ctx, func(ctx context.Context) {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"fullDocument.user_id": uid}}},
		}
		opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
		stream, err := r.coll.Watch(ctx, pipeline, opts)
		if err != nil {
			if ctx.Err() == nil {
				onError(fmt.Errorf("orders subscription for %s: %w", uid, err))
			}
			return
		}
		defer stream.Close(context.Background())

		deliver := func() {
			orders, err := r.list(ctx, uid)
			if err != nil {
				if ctx.Err() == nil {
					onError(fmt.Errorf("orders subscription for %s: %w", uid, err))
				}
				return
			}
			onSnapshot(orders)
		}

		deliver()
		for stream.Next(ctx) {
			deliver()
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			onError(fmt.Errorf("orders subscription for %s: %w", uid, err))
		}
	})
}
