package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/amqp"
	"finanzas/internal/config"
	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.LevelFromEnv(),
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.NewStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// AMQP is optional. Without it obligations still materialize, only
	// the reminder messages are skipped.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without reminders", applog.FieldError, err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, due reminders will not be published")
	}

	scheduleService := services.NewScheduleService(store)
	loanService := services.NewLoanService(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring obligation processor configured",
		"interval", cfg.WorkerInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	// Run an initial pass on startup
	runPass(ctx, logger, scheduleService, loanService, amqpClient)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runPass(ctx, logger, scheduleService, loanService, amqpClient)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Recurring-worker shutdown complete")
}

// runPass materializes due obligations into the current month and then
// publishes reminders for everything due today or inside its window.
func runPass(ctx context.Context, logger *applog.Logger, schedules *services.ScheduleService, loans *services.LoanService, client *amqp.Client) {
	now := time.Now()

	entries, err := schedules.MaterializePending(ctx, now)
	if err != nil {
		logger.Error("Materialization pass failed", applog.FieldError, err)
	} else {
		logger.Info("Materialization pass complete", "entries_created", len(entries))
	}

	if client == nil {
		return
	}

	for _, info := range schedules.WithDueInfo(ctx, now) {
		if !info.Active || (!info.DueToday && !info.Upcoming && !info.Overdue) {
			continue
		}
		msg := amqp.NewDueReminderMessage(amqp.ReminderObligation,
			info.ID, info.Description, info.Amount.Cents, info.NextDueDate, info.DaysUntilDue)
		if err := client.PublishDueReminder(ctx, msg); err != nil {
			logger.Error("Failed to publish obligation reminder",
				applog.FieldError, err,
				applog.FieldScheduleID, info.ID)
		}
	}

	for _, info := range loans.WithDueInfo(ctx, now) {
		if info.Status == core.LoanPaid || (!info.DueToday && !info.Upcoming && !info.Overdue) {
			continue
		}
		msg := amqp.NewDueReminderMessage(amqp.ReminderLoan,
			info.ID, info.BorrowerName, info.Outstanding().Cents, info.DueDate, info.DaysUntilDue)
		if err := client.PublishDueReminder(ctx, msg); err != nil {
			logger.Error("Failed to publish loan reminder",
				applog.FieldError, err,
				applog.FieldLoanID, info.ID)
		}
	}
}
