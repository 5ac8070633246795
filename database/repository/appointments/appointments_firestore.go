package appointmentsRepo

import (
	"context"
	"errors"
	"fmt"

	"jepet/database/repository"
	"jepet/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const appointmentsCollection = "appointments"

// FirestoreAppointmentRepo keeps appointments at users/{uid}/appointments/{id}.
type FirestoreAppointmentRepo struct {
	client *firestore.Client
}

func NewFirestoreAppointmentRepo(client *firestore.Client) AppointmentRepository {
	return &FirestoreAppointmentRepo{client: client}
}

func (r *FirestoreAppointmentRepo) coll(uid string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(uid).Collection(appointmentsCollection)
}

func (r *FirestoreAppointmentRepo) Put(ctx context.Context, a *models.Appointment) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	if _, err := r.coll(a.UserID).Doc(a.ID).Set(ctx, a); err != nil {
		return fmt.Errorf("failed to write appointment %s: %w", a.ID, err)
	}
	return nil
}

func (r *FirestoreAppointmentRepo) update(ctx context.Context, uid, id string, updates []firestore.Update) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	_, err := r.coll(uid).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", id, err)
	}
	return nil
}

func (r *FirestoreAppointmentRepo) Reschedule(ctx context.Context, uid, id string, change models.AppointmentChange) error {
	return r.update(ctx, uid, id, []firestore.Update{
		{Path: "date", Value: change.Date},
		{Path: "time", Value: change.Time},
		{Path: "type", Value: change.Type},
	})
}

func (r *FirestoreAppointmentRepo) SetStatus(ctx context.Context, uid, id, status string) error {
	return r.update(ctx, uid, id, []firestore.Update{{Path: "status", Value: status}})
}

func (r *FirestoreAppointmentRepo) SetStatusIf(ctx context.Context, uid, id, from, to string) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	ref := r.coll(uid).Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, err := snap.DataAt("status")
		if err != nil {
			return err
		}
		if current != from {
			return repository.ErrStatusChanged
		}
		return tx.Update(ref, []firestore.Update{{Path: "status", Value: to}})
	})
	switch {
	case status.Code(err) == codes.NotFound:
		return repository.ErrNotFound
	case errors.Is(err, repository.ErrStatusChanged):
		return err
	case err != nil:
		return fmt.Errorf("failed to update appointment %s: %w", id, err)
	}
	return nil
}

func (r *FirestoreAppointmentRepo) Get(ctx context.Context, uid, id string) (*models.Appointment, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	snap, err := r.coll(uid).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment %s: %w", id, err)
	}
	var a models.Appointment
	if err := snap.DataTo(&a); err != nil {
		return nil, fmt.Errorf("failed to decode appointment %s: %w", id, err)
	}
	if a.ID == "" {
		a.ID = id
	}
	return &a, nil
}

func (r *FirestoreAppointmentRepo) Watch(ctx context.Context, uid string, onSnapshot func([]models.Appointment), onError func(error)) repository.Subscription {
	return repository.Watch(ctx, func(ctx context.Context) {
		it := r.coll(uid).Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() == nil {
					onError(fmt.Errorf("appointments subscription for %s: %w", uid, err))
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				onError(fmt.Errorf("appointments subscription for %s: %w", uid, err))
				continue
			}
			onSnapshot(decodeAll(docs, onError))
		}
	})
}

func (r *FirestoreAppointmentRepo) ListByStatus(ctx context.Context, status string) ([]models.Appointment, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	docs, err := r.client.CollectionGroup(appointmentsCollection).Where("status", "==", status).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s appointments: %w", status, err)
	}
	return decodeAll(docs, func(error) {}), nil
}

func decodeAll(docs []*firestore.DocumentSnapshot, onError func(error)) []models.Appointment {
	out := make([]models.Appointment, 0, len(docs))
	for _, d := range docs {
		var a models.Appointment
		if err := d.DataTo(&a); err != nil {
			onError(fmt.Errorf("failed to decode appointment %s: %w", d.Ref.ID, err))
			continue
		}
		if a.ID == "" {
			a.ID = d.Ref.ID
		}
		out = append(out, a)
	}
	return out
}
