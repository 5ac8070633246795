package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"jepet/cron"
	"jepet/database"
	"jepet/services/notification"
	"jepet/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume the appointment reminder queue and push reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return work(ctx, utils.GetLogger())
		},
	}
}

func work(ctx context.Context, logger *zap.Logger) error {
	app, err := utils.FirebaseInit(ctx)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	messaging, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("worker: failed to create messaging client: %w", err)
	}
	notifier, err := notification.NewFCMNotifier(messaging, logger)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	stores, err := database.Open(ctx, app)
	if err != nil {
		return fmt.Errorf("worker: failed to open document store: %w", err)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			logger.Warn("worker: failed to close document store", zap.Error(err))
		}
	}()

	srv, mux := cron.NewReminderWorker(stores.Appointments, notifier, logger)
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("worker: failed to start reminder worker: %w", err)
	}
	logger.Info("worker: consuming reminders")

	<-ctx.Done()
	logger.Info("worker: shutting down")
	srv.Shutdown()
	return nil
}
