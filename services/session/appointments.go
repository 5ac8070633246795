package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jepet/models"
	"jepet/services/catalog"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChangeNotice is how far ahead an appointment must be to be rescheduled or cancelled.
const ChangeNotice = 24 * time.Hour

// BookingRequest is the appointment form.
type BookingRequest struct {
	PetName string `json:"petName"`
	PetType string `json:"petType"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Type    string `json:"type"`
}

func (s *Store) parseSlot(date, clock string) (time.Time, error) {
	a := models.Appointment{Date: strings.TrimSpace(date), Time: strings.TrimSpace(clock)}
	t, err := a.StartsAt(s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t, nil
}

// BookAppointment requests a slot. New appointments start pending and are
// confirmed by the clinic later.
func (s *Store) BookAppointment(req BookingRequest) (*models.Appointment, *Task, error) {
	req.PetName = strings.TrimSpace(req.PetName)
	if req.PetName == "" {
		return nil, nil, fmt.Errorf("%w: pet name is required", ErrInvalidInput)
	}
	if !catalog.ValidAppointmentType(req.Type) {
		return nil, nil, fmt.Errorf("%w: unknown appointment type %q", ErrInvalidInput, req.Type)
	}
	start, err := s.parseSlot(req.Date, req.Time)
	if err != nil {
		return nil, nil, err
	}
	if !start.After(s.now()) {
		return nil, nil, fmt.Errorf("%w: appointment must be in the future", ErrInvalidInput)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("BookAppointment: failed to generate id: %w", err)
	}
	appt := models.Appointment{
		ID:        id.String(),
		Date:      strings.TrimSpace(req.Date),
		Time:      strings.TrimSpace(req.Time),
		Type:      req.Type,
		PetName:   req.PetName,
		PetType:   strings.TrimSpace(req.PetType),
		Status:    models.AppointmentPending,
		CreatedAt: s.now().UTC(),
	}

	task, err := s.submit("appointment.create", appt.ID,
		func() error {
			if s.user == nil {
				return ErrAuthRequired
			}
			appt.UserID = s.user.UID
			s.state.Appointments = append([]models.Appointment{appt}, s.state.Appointments...)
			sortAppointments(s.state.Appointments)
			s.pendingAppts[appt.ID] = &pendingAppointment{created: true}
			return nil
		},
		func(ctx context.Context) error {
			if err := s.deps.Appointments.Put(ctx, &appt); err != nil {
				s.forgetPendingAppointment(appt.ID)
				return err
			}
			s.scheduleReminder(ctx, appt)
			return nil
		})
	if err != nil {
		return nil, nil, err
	}
	return &appt, task, nil
}

// guardChange finds an appointment the customer may still change. Callers hold s.mu.
func (s *Store) guardChange(id string) (int, error) {
	if s.user == nil {
		return -1, ErrAuthRequired
	}
	for i, a := range s.state.Appointments {
		if a.ID != id {
			continue
		}
		if !a.Open() {
			return -1, ErrAppointmentClosed
		}
		start, err := a.StartsAt(s.loc)
		if err != nil {
			return -1, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if start.Sub(s.now()) < ChangeNotice {
			return -1, ErrTooLate
		}
		return i, nil
	}
	return -1, ErrNotFound
}

// RescheduleAppointment moves an appointment to a new slot and optionally a
// new type. Both the current and the new slot must be at least ChangeNotice away.
func (s *Store) RescheduleAppointment(id string, change models.AppointmentChange) (*models.Appointment, *Task, error) {
	change.Date = strings.TrimSpace(change.Date)
	change.Time = strings.TrimSpace(change.Time)
	change.Type = strings.TrimSpace(change.Type)
	if change.Type != "" && !catalog.ValidAppointmentType(change.Type) {
		return nil, nil, fmt.Errorf("%w: unknown appointment type %q", ErrInvalidInput, change.Type)
	}
	start, err := s.parseSlot(change.Date, change.Time)
	if err != nil {
		return nil, nil, err
	}

	var uid string
	var updated models.Appointment
	task, err := s.submit("appointment.reschedule", id,
		func() error {
			i, err := s.guardChange(id)
			if err != nil {
				return err
			}
			if start.Sub(s.now()) < ChangeNotice {
				return ErrTooLate
			}
			a := &s.state.Appointments[i]
			if change.Type == "" {
				change.Type = a.Type
			}
			a.Date, a.Time, a.Type = change.Date, change.Time, change.Type
			updated = *a
			uid = s.user.UID
			sortAppointments(s.state.Appointments)

			p := s.pendingAppts[id]
			if p == nil {
				p = &pendingAppointment{}
				s.pendingAppts[id] = p
			}
			c := change
			p.reschedule = &c
			return nil
		},
		func(ctx context.Context) error {
			if err := s.deps.Appointments.Reschedule(ctx, uid, id, change); err != nil {
				s.forgetPendingAppointment(id)
				return err
			}
			s.scheduleReminder(ctx, updated)
			return nil
		})
	if err != nil {
		return nil, nil, err
	}
	return &updated, task, nil
}

// CancelAppointment marks an appointment cancelled. It stays in the list.
func (s *Store) CancelAppointment(id string) (*models.Appointment, *Task, error) {
	var uid string
	var updated models.Appointment
	task, err := s.submit("appointment.cancel", id,
		func() error {
			i, err := s.guardChange(id)
			if err != nil {
				return err
			}
			a := &s.state.Appointments[i]
			a.Status = models.AppointmentCancelled
			updated = *a
			uid = s.user.UID

			p := s.pendingAppts[id]
			if p == nil {
				p = &pendingAppointment{}
				s.pendingAppts[id] = p
			}
			p.cancelled = true
			return nil
		},
		func(ctx context.Context) error {
			if err := s.deps.Appointments.SetStatus(ctx, uid, id, models.AppointmentCancelled); err != nil {
				s.forgetPendingAppointment(id)
				return err
			}
			if err := s.deps.Reminders.Cancel(ctx, id); err != nil {
				s.logger.Warn("session.CancelAppointment: failed to drop reminder", zap.String("appointment_id", id), zap.Error(err))
			}
			return nil
		})
	if err != nil {
		return nil, nil, err
	}
	return &updated, task, nil
}

func (s *Store) forgetPendingAppointment(id string) {
	s.mu.Lock()
	delete(s.pendingAppts, id)
	s.mu.Unlock()
}

// scheduleReminder never fails the mutation it follows.
func (s *Store) scheduleReminder(ctx context.Context, appt models.Appointment) {
	if err := s.deps.Reminders.Schedule(ctx, appt); err != nil {
		s.logger.Warn("session.scheduleReminder: failed to schedule reminder",
			zap.String("appointment_id", appt.ID), zap.Error(err))
	}
}
