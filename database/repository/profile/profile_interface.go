package profileRepo

import (
	"context"

	"jepet/database/repository"
	"jepet/models"
)

// SnapshotFunc receives the current profile document. exists is false when
// the document is missing, in which case p is nil.
type SnapshotFunc func(p *models.Profile, exists bool)

// ProfileRepository stores one profile document per user.
type ProfileRepository interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
	// Set overwrites the whole document.
	Set(ctx context.Context, p *models.Profile) error
	// AppendPet adds pet to the end of the stored pet list, duplicates included.
	AppendPet(ctx context.Context, uid string, pet models.Pet) error
	Delete(ctx context.Context, uid string) error
	// Watch delivers the current document and every later change until stopped.
	Watch(ctx context.Context, uid string, onSnapshot SnapshotFunc, onError func(error)) repository.Subscription
}
