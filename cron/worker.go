package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"jepet/config"
	"jepet/database/repository"
	"jepet/models"
	"jepet/services/notification"
	"jepet/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt is the reminder queue connection shared by producers and the worker.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}

// AppointmentReader looks up the appointment a reminder belongs to.
type AppointmentReader interface {
	Get(ctx context.Context, uid, id string) (*models.Appointment, error)
}

// NewReminderWorker builds the asynq server and mux that deliver reminders.
func NewReminderWorker(appts AppointmentReader, notifier notification.Notifier, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.ReminderQueue: 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(appts, notifier, logger))
	return srv, mux
}

// HandleReminderTask pushes the reminder unless the appointment was deleted
// or is no longer open when the task fires.
func HandleReminderTask(appts AppointmentReader, notifier notification.Notifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("ReminderHandler: invalid payload", zap.Error(err))
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}
		if p.UserID == "" {
			logger.Warn("ReminderHandler: reminder without user dropped", zap.String("appointment_id", p.AppointmentID))
			return nil
		}

		appt, err := appts.Get(ctx, p.UserID, p.AppointmentID)
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("ReminderHandler: appointment gone, reminder dropped", zap.String("appointment_id", p.AppointmentID))
			return nil
		}
		if err != nil {
			logger.Error("ReminderHandler: failed to load appointment", zap.String("appointment_id", p.AppointmentID), zap.Error(err))
			return err
		}
		if !appt.Open() {
			logger.Info("ReminderHandler: appointment closed, reminder dropped",
				zap.String("appointment_id", p.AppointmentID), zap.String("status", appt.Status))
			return nil
		}

		logger.Info("ReminderHandler: sending reminder",
			zap.String("user_id", p.UserID), zap.String("appointment_id", p.AppointmentID))
		if err := notifier.Push(ctx, notification.ReminderPush(p)); err != nil {
			logger.Error("ReminderHandler: failed to send notification", zap.Error(err))
			return err
		}
		return nil
	}
}
