package profileRepo

import (
	"context"
	"errors"
	"fmt"

	"jepet/database/repository"
	"jepet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProfileRepo keeps profiles in the "users" collection keyed by uid.
type MongoProfileRepo struct {
	coll *mongo.Collection
}

func NewMongoProfileRepo(db *mongo.Database) ProfileRepository {
	return &MongoProfileRepo{coll: db.Collection("users")}
}

func (r *MongoProfileRepo) Get(ctx context.Context, uid string) (*models.Profile, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var p models.Profile
	err := r.coll.FindOne(ctx, bson.M{"_id": uid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, err)
	}
	return &p, nil
}

func (r *MongoProfileRepo) Set(ctx context.Context, p *models.Profile) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	doc := p.Clone()
	if doc.Pets == nil {
		doc.Pets = []models.Pet{}
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set profile %s: %w", p.ID, err)
	}
	return nil
}

func (r *MongoProfileRepo) AppendPet(ctx context.Context, uid string, pet models.Pet) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	update := bson.M{"$push": bson.M{"pets": pet}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": uid}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to append pet for %s: %w", uid, err)
	}
	return nil
}

func (r *MongoProfileRepo) Delete(ctx context.Context, uid string) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": uid}); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", uid, err)
	}
	return nil
}

// Watch reads the document once, then re-reads it on every change stream
// event for the same _id.
func (r *MongoProfileRepo) Watch(ctx context.Context, uid string, onSnapshot SnapshotFunc, onError func(error)) repository.Subscription {
	return repository.Watch(ctx, func(ctx context.Context) {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"documentKey._id": uid}}},
		}
		stream, err := r.coll.Watch(ctx, pipeline)
		if err != nil {
			if ctx.Err() == nil {
				onError(fmt.Errorf("profile subscription for %s: %w", uid, err))
			}
			return
		}
		defer stream.Close(context.Background())

		deliver := func() {
			p, err := r.Get(ctx, uid)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				onSnapshot(nil, false)
			case err != nil:
				if ctx.Err() == nil {
					onError(err)
				}
			default:
				onSnapshot(p, true)
			}
		}

		deliver()
		for stream.Next(ctx) {
			deliver()
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			onError(fmt.Errorf("profile subscription for %s: %w", uid, err))
		}
	})
}
