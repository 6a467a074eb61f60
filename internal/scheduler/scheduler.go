package scheduler

import (
	"time"

	"fintrack/internal/logger"
	"fintrack/internal/services"
)

// AlertRunReport summarizes one budget alert sweep.
type AlertRunReport struct {
	UsersChecked   int `json:"users_checked"`
	BudgetsChecked int `json:"budgets_checked"`
	AlertsSent     int `json:"alerts_sent"`
	Failed         int `json:"failed"`
}

// Scheduler drives the periodic background jobs: recurring transaction
// materialization, budget alert sweeps, and expired budget cleanup. Each job
// is a single idempotent pass, so it can run from a ticker, a cron entry, or
// an authenticated HTTP trigger interchangeably.
type Scheduler struct {
	recurring     services.RecurringServicer
	budgets       services.BudgetServicer
	notifications services.NotificationServicer
}

// New creates a Scheduler over the given services.
func New(recurring services.RecurringServicer, budgets services.BudgetServicer, notifications services.NotificationServicer) *Scheduler {
	return &Scheduler{
		recurring:     recurring,
		budgets:       budgets,
		notifications: notifications,
	}
}

// RunRecurring materializes transactions for all due recurring templates.
func (s *Scheduler) RunRecurring(now time.Time) (*services.RecurringRunReport, error) {
	log := logger.Get()
	log.Infow("recurring run started", "now", now)

	report, err := s.recurring.ProcessDueTemplates(now)
	if err != nil {
		log.Errorw("recurring run failed", "error", err)
		return nil, err
	}

	log.Infow("recurring run finished",
		"processed", report.Processed,
		"created", report.Created,
		"failed", report.Failed,
	)
	return report, nil
}

// RunBudgetAlerts checks every active monthly budget currently in its window
// and sends an exceeded notification for each one over its limit. Users are
// processed independently; one user's failure never skips the rest.
func (s *Scheduler) RunBudgetAlerts(now time.Time) (*AlertRunReport, error) {
	log := logger.Get()
	log.Infow("budget alert sweep started", "now", now)

	userIDs, err := s.budgets.UsersWithActiveMonthlyBudgets(now)
	if err != nil {
		log.Errorw("budget alert sweep failed", "error", err)
		return nil, err
	}

	report := &AlertRunReport{}
	for _, userID := range userIDs {
		report.UsersChecked++
		if err := s.sweepUser(userID, now, report); err != nil {
			report.Failed++
			log.Errorw("budget alert sweep failed for user",
				"user_id", userID,
				"error", err,
			)
		}
	}

	log.Infow("budget alert sweep finished",
		"users_checked", report.UsersChecked,
		"budgets_checked", report.BudgetsChecked,
		"alerts_sent", report.AlertsSent,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *Scheduler) sweepUser(userID uint, now time.Time, report *AlertRunReport) error {
	budgets, err := s.budgets.GetActiveMonthlyBudgets(userID, now)
	if err != nil {
		return err
	}

	for i := range budgets {
		budget := &budgets[i]
		report.BudgetsChecked++

		progress, err := s.budgets.ProgressAt(budget, now)
		if err != nil {
			return err
		}
		if !progress.IsExceeded {
			continue
		}

		name := budget.Category.Name
		if name == "" {
			name = budget.Name
		}
		if err := s.notifications.NotifyBudgetExceeded(
			userID, name, progress.Spent, progress.Budgeted, now.Month(), now.Year(),
		); err != nil {
			return err
		}
		report.AlertsSent++
	}
	return nil
}

// RunDeactivateExpired deactivates budgets whose window has closed and returns
// how many were flipped.
func (s *Scheduler) RunDeactivateExpired(now time.Time) (int64, error) {
	log := logger.Get()

	count, err := s.budgets.DeactivateExpired(now)
	if err != nil {
		log.Errorw("budget deactivation failed", "error", err)
		return 0, err
	}

	log.Infow("budget deactivation finished", "deactivated", count)
	return count, nil
}

// RunAll executes every job once, in dependency order: recurring transactions
// first so the alert sweep sees the spending they create, then alerts, then
// cleanup. The first failure aborts the remaining jobs.
func (s *Scheduler) RunAll(now time.Time) error {
	if _, err := s.RunRecurring(now); err != nil {
		return err
	}
	if _, err := s.RunBudgetAlerts(now); err != nil {
		return err
	}
	if _, err := s.RunDeactivateExpired(now); err != nil {
		return err
	}
	return nil
}
