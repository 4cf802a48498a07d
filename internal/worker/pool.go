package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"dailyreport/internal/metrics"
	"dailyreport/internal/models"
	"dailyreport/internal/pipeline"
)

// StartPool launches workers that drain report jobs enqueued by the scheduler
// tick and run the pipeline for each, under a shared rate limiter. Runs for
// different users may proceed concurrently; nothing here serializes runs for
// the same user (the log store is append-only, so the worst case is a
// duplicate email, within the at-least-once contract).
func StartPool(
	ctx context.Context,
	wg *sync.WaitGroup,
	workers int,
	jobs <-chan models.ReportJob,
	orch *pipeline.Orchestrator,
	limiter *rate.Limiter,
	logger *zap.Logger,
) {

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			logger.Info("worker started", zap.Int("worker_id", id))

			for {
				select {

				case <-ctx.Done():
					logger.Info("worker shutting down", zap.Int("worker_id", id))
					return

				case job, ok := <-jobs:
					if !ok {
						logger.Info("job channel closed", zap.Int("worker_id", id))
						return
					}

					if err := limiter.Wait(ctx); err != nil {
						logger.Warn("rate limiter stopped by context",
							zap.Int("worker_id", id),
							zap.Error(err),
						)
						return
					}

					res := orch.Run(ctx, job.UserID, pipeline.Options{
						Scheduled: job.Scheduled,
					})

					switch res.Status {
					case models.StatusSuccess:
						metrics.ReportsSent.Inc()
						logger.Info("report sent",
							zap.Int("worker_id", id),
							zap.Int64("user_id", job.UserID),
						)
					case models.StatusNoContent:
						metrics.ReportsNoContent.Inc()
						logger.Warn("report skipped, no content",
							zap.Int("worker_id", id),
							zap.Int64("user_id", job.UserID),
						)
					default:
						metrics.ReportFailures.Inc()
						logger.Warn("report run failed",
							zap.Int("worker_id", id),
							zap.Int64("user_id", job.UserID),
							zap.String("message", res.Message),
						)
					}
				}
			}
		}(i)
	}
}
