package appointmentsRepo

import (
	"context"

	"jepet/database/repository"
	"jepet/models"
)

// AppointmentRepository stores the appointments sub-collection of each user.
type AppointmentRepository interface {
	// Put writes the appointment under its client-generated id.
	Put(ctx context.Context, a *models.Appointment) error
	// Reschedule updates date, time and type only.
	Reschedule(ctx context.Context, uid, id string, change models.AppointmentChange) error
	SetStatus(ctx context.Context, uid, id, status string) error
	// SetStatusIf moves the appointment from one status to another, failing
	// with repository.ErrStatusChanged when it is no longer in from.
	SetStatusIf(ctx context.Context, uid, id, from, to string) error
	Get(ctx context.Context, uid, id string) (*models.Appointment, error)
	// Watch delivers the user's full appointment collection on every change until stopped.
	Watch(ctx context.Context, uid string, onSnapshot func([]models.Appointment), onError func(error)) repository.Subscription
	// ListByStatus scans every user's appointments; used by the clinic desk.
	ListByStatus(ctx context.Context, status string) ([]models.Appointment, error)
}
