package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sudhir200/expense-tracker-sub001/internal/database"
	"github.com/sudhir200/expense-tracker-sub001/internal/tasks"
	"github.com/sudhir200/expense-tracker-sub001/pkg/config"
	"github.com/sudhir200/expense-tracker-sub001/pkg/queue"
	"github.com/sudhir200/expense-tracker-sub001/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting expense-tracker worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Create Asynq server and client
	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency)
	client := queue.NewClient(&cfg.Redis)
	defer client.Close()

	// Create task handler
	handler := tasks.NewHandler(db, logger)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	// Enqueue invite sweeps on the configured cron schedule
	go runInviteSweepScheduler(ctx, client, cfg.Worker.InviteSweepCron, logger)

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}

func runInviteSweepScheduler(ctx context.Context, client *asynq.Client, cronExpr string, logger *slog.Logger) {
	if err := util.ValidateCronExpr(cronExpr); err != nil {
		logger.Error("invalid invite sweep cron expression", "expr", cronExpr, "error", err)
		return
	}

	for {
		next, err := util.NextCronTime(cronExpr, time.Now())
		if err != nil {
			logger.Error("failed to compute next sweep time", "error", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		task, err := tasks.NewInviteSweepTask(tasks.InviteSweepPayload{Cutoff: time.Now()})
		if err != nil {
			logger.Error("failed to build invite sweep task", "error", err)
			continue
		}

		if _, err := client.EnqueueContext(ctx, task, asynq.Queue("low")); err != nil {
			logger.Error("failed to enqueue invite sweep", "error", err)
			continue
		}

		logger.Debug("enqueued invite sweep", "scheduled_for", next)
	}
}
