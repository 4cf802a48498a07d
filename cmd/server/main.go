package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dailyreport/internal/api"
	"dailyreport/internal/config"
	"dailyreport/internal/db"
	"dailyreport/internal/mail"
	"dailyreport/internal/metrics"
	"dailyreport/internal/models"
	"dailyreport/internal/pipeline"
	"dailyreport/internal/schedule"
	"dailyreport/internal/scheduler"
	"dailyreport/internal/transform"
	"dailyreport/internal/worker"
)

func main() {

	_ = godotenv.Load()

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Database
	// ------------------------------------------------
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer store.Close()

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Pipeline
	// ------------------------------------------------
	eval := schedule.New(cfg.TZOffsetHours)

	transformer := transform.NewClient(cfg.TransformEndpoint, cfg.TransformModel,
		time.Duration(cfg.TransformTimeoutSecs)*time.Second, logger)
	sender := mail.NewSender(logger)

	orch := pipeline.New(store, transformer, sender, eval.Location(), logger)

	// ------------------------------------------------
	// Job Channel (shared by scheduler + workers)
	// ------------------------------------------------
	jobs := make(chan models.ReportJob, 100)

	// ------------------------------------------------
	// Rate Limiter
	// ------------------------------------------------
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)

	// ------------------------------------------------
	// Worker Pool
	// ------------------------------------------------
	var wg sync.WaitGroup

	worker.StartPool(
		ctx,
		&wg,
		cfg.WorkerCount,
		jobs,
		orch,
		limiter,
		logger,
	)

	// ------------------------------------------------
	// Scheduler
	// ------------------------------------------------
	sched, err := scheduler.Start(
		ctx,
		time.Duration(cfg.SchedulerIntervalMins)*time.Minute,
		store,
		eval,
		jobs,
		logger,
	)
	if err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	apiHandler := &api.Handler{
		Orch:  orch,
		Store: store,
		Log:   logger,
	}

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/reports/run", apiHandler.RunReport)
	apiMux.HandleFunc("/reports/history", apiHandler.History)

	apiServer := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: apiMux,
	}

	go func() {
		logger.Info("api server started", zap.String("port", cfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	if err := sched.Shutdown(); err != nil {
		logger.Error("scheduler shutdown failed", zap.Error(err))
	}

	// Stop accepting new jobs
	close(jobs)

	// Wait workers to finish
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}
