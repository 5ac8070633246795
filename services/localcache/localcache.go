package localcache

import (
	"context"

	"jepet/models"
	"jepet/services/identity"
)

// Cache is the per-device key-value cache. It is never authoritative: every
// value in it can be rebuilt from the identity provider and the document store.
type Cache interface {
	identity.CredentialStore

	LoadProfile(ctx context.Context, device string) (*models.Profile, error)
	SaveProfile(ctx context.Context, device string, p *models.Profile) error
	ClearProfile(ctx context.Context, device string) error

	LoadView(ctx context.Context, device string) (models.View, error)
	SaveView(ctx context.Context, device string, v models.View) error
	ClearView(ctx context.Context, device string) error
}
