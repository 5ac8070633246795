package appointmentsRepo

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

// MongoAppointmentRepo keeps every user's appointments in one collection.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

func NewMongoAppointmentRepo(db *mongo.Database) AppointmentRepository {
	repo := &MongoAppointmentRepo{coll: db.Collection("appointments")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create appointment indexes: %v\n", err)
	}
	return repo
}

func (r *MongoAppointmentRepo) ensureIndexes() error {
	ctx, cancel := repository.NewContext(context.Background())
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (r *MongoAppointmentRepo) Put(ctx context.Context, a *models.Appointment) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write appointment %s: %w", a.ID, err)
	}
	return nil
}

func (r *MongoAppointmentRepo) update(ctx context.Context, uid, id string, set bson.M) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "user_id": uid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoAppointmentRepo) Reschedule(ctx context.Context, uid, id string, change models.AppointmentChange) error {
	return r.update(ctx, uid, id, bson.M{"date": change.Date, "time": change.Time, "type": change.Type})
}

func (r *MongoAppointmentRepo) SetStatus(ctx context.Context, uid, id, status string) error {
	return r.update(ctx, uid, id, bson.M{"status": status})
}

func (r *MongoAppointmentRepo) SetStatusIf(ctx context.Context, uid, id, from, to string) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	filter := bson.M{"_id": id, "user_id": uid}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "user_id": uid, "status": from}, bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", id, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStatusChanged
}

func (r *MongoAppointmentRepo) Get(ctx context.Context, uid, id string) (*models.Appointment, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var a models.Appointment
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": uid}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment %s: %w", id, err)
	}
	return &a, nil
}

func (r *MongoAppointmentRepo) find(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.Appointment{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoAppointmentRepo) Watch(ctx context.Context, uid string, onSnapshot func([]models.Appointment), onError func(error)) repository.Subscription {
	return repository.Watch(ctx, func(ctx context.Context) {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"fullDocument.user_id": uid}}},
		}
		opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
		stream, err := r.coll.Watch(ctx, pipeline, opts)
		if err != nil {
			if ctx.Err() == nil {
				onError(fmt.Errorf("appointments subscription for %s: %w", uid, err))
			}
			return
		}
		defer stream.Close(context.Background())

		deliver := func() {
			appts, err := r.find(ctx, bson.M{"user_id": uid})
			if err != nil {
				if ctx.Err() == nil {
					onError(fmt.Errorf("appointments subscription for %s: %w", uid, err))
				}
				return
			}
			onSnapshot(appts)
		}

		deliver()
		for stream.Next(ctx) {
			deliver()
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			onError(fmt.Errorf("appointments subscription for %s: %w", uid, err))
		}
	})
}

func (r *MongoAppointmentRepo) ListByStatus(ctx context.Context, status string) ([]models.Appointment, error) {
	appts, err := r.find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s appointments: %w", status, err)
	}
	return appts, nil
}
