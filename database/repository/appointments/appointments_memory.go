package appointmentsRepo

import (
	"context"
	"sync"

	"jepet/database/repository"
	"jepet/models"
)

// MemoryAppointmentRepo is an in-process AppointmentRepository for development and tests.
type MemoryAppointmentRepo struct {
	mu     sync.RWMutex
	byUser map[string]map[string]models.Appointment
	hub    *repository.Hub
}

func NewMemoryAppointmentRepo() *MemoryAppointmentRepo {
	return &MemoryAppointmentRepo{
		byUser: make(map[string]map[string]models.Appointment),
		hub:    repository.NewHub(),
	}
}

func (r *MemoryAppointmentRepo) Put(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	if r.byUser[a.UserID] == nil {
		r.byUser[a.UserID] = make(map[string]models.Appointment)
	}
	r.byUser[a.UserID][a.ID] = *a
	r.mu.Unlock()
	r.hub.Notify(a.UserID)
	return nil
}

func (r *MemoryAppointmentRepo) modify(uid, id string, fn func(a *models.Appointment) error) error {
	r.mu.Lock()
	a, ok := r.byUser[uid][id]
	if !ok {
		r.mu.Unlock()
		return repository.ErrNotFound
	}
	if err := fn(&a); err != nil {
		r.mu.Unlock()
		return err
	}
	r.byUser[uid][id] = a
	r.mu.Unlock()
	r.hub.Notify(uid)
	return nil
}

func (r *MemoryAppointmentRepo) Reschedule(_ context.Context, uid, id string, change models.AppointmentChange) error {
	return r.modify(uid, id, func(a *models.Appointment) error {
		a.Date, a.Time, a.Type = change.Date, change.Time, change.Type
		return nil
	})
}

func (r *MemoryAppointmentRepo) SetStatus(_ context.Context, uid, id, status string) error {
	return r.modify(uid, id, func(a *models.Appointment) error {
		a.Status = status
		return nil
	})
}

func (r *MemoryAppointmentRepo) SetStatusIf(_ context.Context, uid, id, from, to string) error {
	return r.modify(uid, id, func(a *models.Appointment) error {
		if a.Status != from {
			return repository.ErrStatusChanged
		}
		a.Status = to
		return nil
	})
}

func (r *MemoryAppointmentRepo) Get(_ context.Context, uid, id string) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byUser[uid][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

// List returns a copy of the user's appointments in no particular order.
func (r *MemoryAppointmentRepo) List(uid string) []models.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Appointment, 0, len(r.byUser[uid]))
	for _, a := range r.byUser[uid] {
		out = append(out, a)
	}
	return out
}

func (r *MemoryAppointmentRepo) ListByStatus(_ context.Context, status string) ([]models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Appointment
	for _, appts := range r.byUser {
		for _, a := range appts {
			if a.Status == status {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (r *MemoryAppointmentRepo) Watch(ctx context.Context, uid string, onSnapshot func([]models.Appointment), _ func(error)) repository.Subscription {
	changes, unlisten := r.hub.Listen(uid)
	return repository.Watch(ctx, func(ctx context.Context) {
		defer unlisten()

		onSnapshot(r.List(uid))
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				onSnapshot(r.List(uid))
			}
		}
	})
}
