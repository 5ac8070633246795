package profileRepo

import (
	"context"
	"sync"

	"jepet/database/repository"
	"jepet/models"
)

// MemoryProfileRepo is an in-process ProfileRepository for development and tests.
type MemoryProfileRepo struct {
	mu   sync.RWMutex
	docs map[string]*models.Profile
	hub  *repository.Hub
}

func NewMemoryProfileRepo() *MemoryProfileRepo {
	return &MemoryProfileRepo{
		docs: make(map[string]*models.Profile),
		hub:  repository.NewHub(),
	}
}

func (r *MemoryProfileRepo) Get(_ context.Context, uid string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.docs[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *MemoryProfileRepo) Set(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	r.docs[p.ID] = p.Clone()
	r.mu.Unlock()
	r.hub.Notify(p.ID)
	return nil
}

func (r *MemoryProfileRepo) AppendPet(_ context.Context, uid string, pet models.Pet) error {
	r.mu.Lock()
	p, ok := r.docs[uid]
	if !ok {
		p = &models.Profile{ID: uid}
		r.docs[uid] = p
	}
	p.Pets = append(p.Pets, pet)
	r.mu.Unlock()
	r.hub.Notify(uid)
	return nil
}

func (r *MemoryProfileRepo) Delete(_ context.Context, uid string) error {
	r.mu.Lock()
	delete(r.docs, uid)
	r.mu.Unlock()
	r.hub.Notify(uid)
	return nil
}

func (r *MemoryProfileRepo) Watch(ctx context.Context, uid string, onSnapshot SnapshotFunc, _ func(error)) repository.Subscription {
	changes, unlisten := r.hub.Listen(uid)
	return repository.Watch(ctx, func(ctx context.Context) {
		defer unlisten()

		deliver := func() {
			p, err := r.Get(ctx, uid)
			if err != nil {
				onSnapshot(nil, false)
				return
			}
			onSnapshot(p, true)
		}

		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				deliver()
			}
		}
	})
}
