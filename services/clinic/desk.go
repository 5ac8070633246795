package clinic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jepet/database/repository"
	appointmentsRepo "jepet/database/repository/appointments"
	"jepet/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxParallelUpdates bounds concurrent status writes per run.
const maxParallelUpdates = 8

// Result counts what one desk run changed.
type Result struct {
	Confirmed int
	Completed int
}

// Desk plays the clinic's front desk: it confirms pending appointments that
// are still ahead and completes confirmed ones whose time has passed.
type Desk struct {
	repo   appointmentsRepo.AppointmentRepository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewDesk(repo appointmentsRepo.AppointmentRepository, loc *time.Location, logger *zap.Logger) *Desk {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desk{repo: repo, loc: loc, logger: logger, now: time.Now}
}

// RunOnce applies one pass over the pending and confirmed appointments.
func (d *Desk) RunOnce(ctx context.Context) (Result, error) {
	var pending, confirmed []models.Appointment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = d.repo.ListByStatus(gctx, models.AppointmentPending)
		return err
	})
	g.Go(func() error {
		var err error
		confirmed, err = d.repo.ListByStatus(gctx, models.AppointmentConfirmed)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("RunOnce: failed to list appointments: %w", err)
	}

	now := d.now()
	var res Result
	var mu sync.Mutex
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUpdates)

	update := func(a models.Appointment, status string, counter *int) {
		g.Go(func() error {
			err := d.repo.SetStatusIf(gctx, a.UserID, a.ID, a.Status, status)
			if errors.Is(err, repository.ErrStatusChanged) || errors.Is(err, repository.ErrNotFound) {
				d.logger.Debug("RunOnce: appointment changed since listing, skipped",
					zap.String("appointment_id", a.ID), zap.String("expected", a.Status), zap.Error(err))
				return nil
			}
			if err != nil {
				return fmt.Errorf("appointment %s: %w", a.ID, err)
			}
			mu.Lock()
			*counter++
			mu.Unlock()
			return nil
		})
	}

	for _, a := range pending {
		start, err := a.StartsAt(d.loc)
		if err != nil {
			d.logger.Warn("RunOnce: skipping appointment with bad slot", zap.String("appointment_id", a.ID), zap.Error(err))
			continue
		}
		if start.After(now) {
			update(a, models.AppointmentConfirmed, &res.Confirmed)
		}
	}
	for _, a := range confirmed {
		start, err := a.StartsAt(d.loc)
		if err != nil {
			d.logger.Warn("RunOnce: skipping appointment with bad slot", zap.String("appointment_id", a.ID), zap.Error(err))
			continue
		}
		if !start.After(now) {
			update(a, models.AppointmentCompleted, &res.Completed)
		}
	}

	err := g.Wait()
	if res.Confirmed > 0 || res.Completed > 0 {
		d.logger.Info("RunOnce: desk pass finished", zap.Int("confirmed", res.Confirmed), zap.Int("completed", res.Completed))
	}
	if err != nil {
		return res, fmt.Errorf("RunOnce: %w", err)
	}
	return res, nil
}

// Start schedules RunOnce on a cron spec such as "@every 1m".
func (d *Desk) Start(spec string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cron != nil {
		return fmt.Errorf("Start: desk already running")
	}
	c := cron.New(cron.WithLocation(d.loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := d.RunOnce(ctx); err != nil {
			d.logger.Error("Desk: run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("Start: invalid schedule %q: %w", spec, err)
	}
	c.Start()
	d.cron = c
	d.logger.Info("Desk: started", zap.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (d *Desk) Stop() {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	d.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
