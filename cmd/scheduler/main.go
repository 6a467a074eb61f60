package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/email"
	"fintrack/internal/logger"
	"fintrack/internal/scheduler"
	"fintrack/internal/services"
)

// The scheduler binary runs the background jobs without the API server. Each
// pass is idempotent, so it is safe to run from cron; with -every it stays
// resident and ticks on an interval instead.
//
// Usage:
//
//	scheduler [-every 1h] <recurring|alerts|deactivate|all>
func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	every := flag.Duration("every", 0, "run continuously on this interval instead of once")
	flag.Parse()

	job := flag.Arg(0)
	if job == "" {
		return fmt.Errorf("usage: scheduler [-every 1h] <recurring|alerts|deactivate|all>")
	}

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	db := dbManager.DB()
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db, transactionService)
	recurringService := services.NewRecurringService(db)
	notificationService := services.NewNotificationService(db, email.NewMailer(appConfig.SMTP))

	jobs := scheduler.New(recurringService, budgetService, notificationService)

	runJob := func(now time.Time) error {
		switch job {
		case "recurring":
			_, err := jobs.RunRecurring(now)
			return err
		case "alerts":
			_, err := jobs.RunBudgetAlerts(now)
			return err
		case "deactivate":
			_, err := jobs.RunDeactivateExpired(now)
			return err
		case "all":
			return jobs.RunAll(now)
		default:
			return fmt.Errorf("unknown job %q, expected recurring, alerts, deactivate, or all", job)
		}
	}

	if err := runJob(time.Now()); err != nil {
		return err
	}
	if *every <= 0 {
		return nil
	}

	log := logger.Get()
	log.Infow("scheduler running", "job", job, "interval", every.String())

	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for now := range ticker.C {
		if err := runJob(now); err != nil {
			// A failed pass is retried on the next tick.
			log.Errorw("scheduled run failed", "job", job, "error", err)
		}
	}
	return nil
}
