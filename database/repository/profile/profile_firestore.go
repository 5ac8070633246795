package profileRepo

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

const usersCollection = "users"

// FirestoreProfileRepo keeps profiles at users/{uid}.
type FirestoreProfileRepo struct {
	client *firestore.Client
}

func NewFirestoreProfileRepo(client *firestore.Client) ProfileRepository {
	return &FirestoreProfileRepo{client: client}
}

func (r *FirestoreProfileRepo) doc(uid string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(uid)
}

func (r *FirestoreProfileRepo) Get(ctx context.Context, uid string) (*models.Profile, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	snap, err := r.doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, err)
	}
	return decodeProfile(snap)
}

func (r *FirestoreProfileRepo) Set(ctx context.Context, p *models.Profile) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	if _, err := r.doc(p.ID).Set(ctx, p); err != nil {
		return fmt.Errorf("failed to set profile %s: %w", p.ID, err)
	}
	return nil
}

func (r *FirestoreProfileRepo) AppendPet(ctx context.Context, uid string, pet models.Pet) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	ref := r.doc(uid)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var pets []models.Pet
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			p, err := decodeProfile(snap)
			if err != nil {
				return err
			}
			pets = p.Pets
		}
		return tx.Set(ref, map[string]interface{}{"pets": append(pets, pet)}, firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("failed to append pet for %s: %w", uid, err)
	}
	return nil
}

func (r *FirestoreProfileRepo) Delete(ctx context.Context, uid string) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	if _, err := r.doc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", uid, err)
	}
	return nil
}

func (r *FirestoreProfileRepo) Watch(ctx context.Context, uid string, onSnapshot SnapshotFunc, onError func(error)) repository.Subscription {
	return repository.Watch(ctx, func(ctx context.Context) {
		it := r.doc(uid).Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil {
					onError(fmt.Errorf("profile subscription for %s: %w", uid, err))
				}
				return
			}
			if !snap.Exists() {
				onSnapshot(nil, false)
				continue
			}
			p, err := decodeProfile(snap)
			if err != nil {
				onError(err)
				continue
			}
			onSnapshot(p, true)
		}
	})
}

func decodeProfile(snap *firestore.DocumentSnapshot) (*models.Profile, error) {
	var p models.Profile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", snap.Ref.ID, err)
	}
	if p.ID == "" {
		p.ID = snap.Ref.ID
	}
	return &p, nil
}

// IsNotFound reports whether err means the profile document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
