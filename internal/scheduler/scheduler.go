// Package scheduler drives the periodic scan over users with active send
// schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"dailyreport/internal/models"
	"dailyreport/internal/schedule"
)

// SettingsLister is the slice of the store the scan needs.
type SettingsLister interface {
	ListActiveSettings(ctx context.Context) ([]*models.UserSettings, error)
}

// Start registers the tick job and starts the scheduler. The interval must
// not exceed schedule.WindowMinutes or send windows can be skipped entirely.
func Start(
	ctx context.Context,
	interval time.Duration,
	store SettingsLister,
	eval *schedule.Evaluator,
	jobs chan<- models.ReportJob,
	logger *zap.Logger,
) (gocron.Scheduler, error) {

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			tick(ctx, store, eval, jobs, logger)
		}),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	logger.Info("scheduler started", zap.Duration("interval", interval))
	return s, nil
}

// tick scans all active users once and enqueues a job for each user whose
// send window covers the current instant.
func tick(
	ctx context.Context,
	store SettingsLister,
	eval *schedule.Evaluator,
	jobs chan<- models.ReportJob,
	logger *zap.Logger,
) {
	now := time.Now()

	settingsList, err := store.ListActiveSettings(ctx)
	if err != nil {
		logger.Error("failed to list active users", zap.Error(err))
		return
	}

	due := 0
	for _, st := range settingsList {
		if !eval.IsDue(st, now) {
			continue
		}
		select {
		case jobs <- models.ReportJob{UserID: st.UserID, Scheduled: true}:
			due++
		case <-ctx.Done():
			logger.Info("tick aborted by shutdown")
			return
		}
	}

	logger.Info("scheduler tick complete",
		zap.Time("at", now),
		zap.Int("users_scanned", len(settingsList)),
		zap.Int("users_due", due),
	)
}
