package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jepet/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeSendReminder = "reminder:send"
	ReminderQueue    = "default"
)

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(payload.AppointmentID),
		asynq.Queue(ReminderQueue),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// Queue is the part of asynq the scheduler needs.
type Queue interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}

// AsynqQueue joins an asynq client and inspector on the same Redis.
type AsynqQueue struct {
	*asynq.Client
	inspector *asynq.Inspector
}

func NewAsynqQueue(opt asynq.RedisClientOpt) *AsynqQueue {
	return &AsynqQueue{Client: asynq.NewClient(opt), inspector: asynq.NewInspector(opt)}
}

func (q *AsynqQueue) DeleteTask(queue, id string) error {
	return q.inspector.DeleteTask(queue, id)
}

func (q *AsynqQueue) Close() error {
	return errors.Join(q.Client.Close(), q.inspector.Close())
}

// ReminderScheduler queues one reminder per appointment, fired Lead before
// it starts. The asynq task id is the appointment id.
type ReminderScheduler struct {
	queue    Queue
	lead     time.Duration
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewReminderScheduler(queue Queue, lead time.Duration, loc *time.Location, logger *zap.Logger) *ReminderScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{queue: queue, lead: lead, location: loc, logger: logger, now: time.Now}
}

func reminderBody(a models.Appointment, start time.Time) string {
	pet := a.PetName
	if pet == "" {
		pet = "seu pet"
	}
	return fmt.Sprintf("Lembrete: %s tem horário na JE Pet em %s às %s.", pet, start.Format("02/01/2006"), start.Format("15:04"))
}

// Schedule replaces any reminder already queued for the appointment. Past
// appointments are skipped; those closer than the lead fire right away.
func (s *ReminderScheduler) Schedule(ctx context.Context, a models.Appointment) error {
	start, err := a.StartsAt(s.location)
	if err != nil {
		return fmt.Errorf("Schedule: %w", err)
	}
	now := s.now()
	if !start.After(now) {
		return nil
	}
	fireAt := start.Add(-s.lead)
	if fireAt.Before(now) {
		fireAt = now
	}

	if err := s.delete(a.ID); err != nil {
		return fmt.Errorf("Schedule: failed to replace reminder: %w", err)
	}

	task, opts, err := NewReminderTask(models.ReminderPayload{
		UserID:        a.UserID,
		AppointmentID: a.ID,
		Title:         "Lembrete de agendamento",
		Body:          reminderBody(a, start),
		FireDate:      fireAt.UTC().Format(time.RFC3339),
	}, fireAt)
	if err != nil {
		return fmt.Errorf("Schedule: %w", err)
	}
	if _, err := s.queue.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("Schedule: failed to enqueue reminder: %w", err)
	}
	s.logger.Info("Schedule: reminder queued", zap.String("appointment_id", a.ID), zap.Time("fire_at", fireAt))
	return nil
}

func (s *ReminderScheduler) Cancel(_ context.Context, appointmentID string) error {
	if err := s.delete(appointmentID); err != nil {
		return fmt.Errorf("Cancel: %w", err)
	}
	return nil
}

func (s *ReminderScheduler) delete(id string) error {
	err := s.queue.DeleteTask(ReminderQueue, id)
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return err
}
