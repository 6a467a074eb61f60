package scheduler

import (
	"fmt"
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// --- mock services ---

type mockRecurringService struct {
	processDueTemplatesFn func(now time.Time) (*services.RecurringRunReport, error)
}

func (m *mockRecurringService) CreateTemplate(uint, uint, models.TransactionType, int64, string, string, time.Time, models.Frequency, int) (*models.RecurringTemplate, error) {
	return nil, nil
}

func (m *mockRecurringService) GetUserTemplates(uint, pagination.PageRequest, *bool) (*pagination.PageResponse[models.RecurringTemplate], error) {
	return nil, nil
}

func (m *mockRecurringService) GetTemplateByID(uint, uint) (*models.RecurringTemplate, error) {
	return nil, nil
}

func (m *mockRecurringService) UpdateTemplate(uint, uint, *int64, *string, *string, *models.Frequency, *int, *bool) (*models.RecurringTemplate, error) {
	return nil, nil
}

func (m *mockRecurringService) DeleteTemplate(uint, uint) error { return nil }

func (m *mockRecurringService) ProcessDueTemplates(now time.Time) (*services.RecurringRunReport, error) {
	if m.processDueTemplatesFn != nil {
		return m.processDueTemplatesFn(now)
	}
	return &services.RecurringRunReport{}, nil
}

type mockBudgetService struct {
	usersWithActiveMonthlyBudgetsFn func(now time.Time) ([]uint, error)
	getActiveMonthlyBudgetsFn       func(userID uint, now time.Time) ([]models.Budget, error)
	progressAtFn                    func(budget *models.Budget, now time.Time) (*services.BudgetProgress, error)
	deactivateExpiredFn             func(now time.Time) (int64, error)
}

func (m *mockBudgetService) CreateBudget(uint, uint, string, int64, models.BudgetPeriod, time.Time, time.Time) (*models.Budget, error) {
	return nil, nil
}

func (m *mockBudgetService) GetUserBudgets(uint, pagination.PageRequest, *bool, *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error) {
	return nil, nil
}

func (m *mockBudgetService) GetBudgetByID(uint, uint) (*models.Budget, error) { return nil, nil }

func (m *mockBudgetService) UpdateBudget(uint, uint, string, *int64, *models.BudgetPeriod, *time.Time) (*models.Budget, error) {
	return nil, nil
}

func (m *mockBudgetService) DeleteBudget(uint, uint) error { return nil }

func (m *mockBudgetService) GetBudgetProgress(uint, uint) (*services.BudgetProgress, error) {
	return nil, nil
}

func (m *mockBudgetService) ProgressAt(budget *models.Budget, now time.Time) (*services.BudgetProgress, error) {
	if m.progressAtFn != nil {
		return m.progressAtFn(budget, now)
	}
	return &services.BudgetProgress{}, nil
}

func (m *mockBudgetService) GetBudgetSummary(uint) (*services.BudgetSummary, error) {
	return nil, nil
}

func (m *mockBudgetService) GetBudgetAlerts(uint) ([]services.BudgetAlert, error) { return nil, nil }

func (m *mockBudgetService) GetActiveMonthlyBudgets(userID uint, now time.Time) ([]models.Budget, error) {
	if m.getActiveMonthlyBudgetsFn != nil {
		return m.getActiveMonthlyBudgetsFn(userID, now)
	}
	return nil, nil
}

func (m *mockBudgetService) UsersWithActiveMonthlyBudgets(now time.Time) ([]uint, error) {
	if m.usersWithActiveMonthlyBudgetsFn != nil {
		return m.usersWithActiveMonthlyBudgetsFn(now)
	}
	return nil, nil
}

func (m *mockBudgetService) DeactivateExpired(now time.Time) (int64, error) {
	if m.deactivateExpiredFn != nil {
		return m.deactivateExpiredFn(now)
	}
	return 0, nil
}

type mockNotificationService struct {
	notifyBudgetExceededFn func(userID uint, categoryName string, spent, budgeted int64, month time.Month, year int) error
}

func (m *mockNotificationService) GetUserNotifications(uint, pagination.PageRequest, bool) (*pagination.PageResponse[models.Notification], error) {
	return nil, nil
}

func (m *mockNotificationService) UnreadCount(uint) (int64, error) { return 0, nil }

func (m *mockNotificationService) MarkRead(uint, uint) error { return nil }

func (m *mockNotificationService) MarkAllRead(uint) error { return nil }

func (m *mockNotificationService) NotifyBudgetExceeded(userID uint, categoryName string, spent, budgeted int64, month time.Month, year int) error {
	if m.notifyBudgetExceededFn != nil {
		return m.notifyBudgetExceededFn(userID, categoryName, spent, budgeted, month, year)
	}
	return nil
}

// --- helpers ---

func budgetWithCategory(id uint, categoryName string) models.Budget {
	return models.Budget{
		Base:     models.Base{ID: id},
		Name:     fmt.Sprintf("Budget %d", id),
		Amount:   50000,
		Category: models.Category{Name: categoryName},
	}
}

// --- tests ---

func TestRunRecurring(t *testing.T) {
	t.Run("returns_report", func(t *testing.T) {
		recurring := &mockRecurringService{
			processDueTemplatesFn: func(time.Time) (*services.RecurringRunReport, error) {
				return &services.RecurringRunReport{Processed: 3, Created: 5}, nil
			},
		}
		s := New(recurring, &mockBudgetService{}, &mockNotificationService{})

		report, err := s.RunRecurring(time.Now())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Processed != 3 || report.Created != 5 {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("propagates_error", func(t *testing.T) {
		recurring := &mockRecurringService{
			processDueTemplatesFn: func(time.Time) (*services.RecurringRunReport, error) {
				return nil, fmt.Errorf("db down")
			},
		}
		s := New(recurring, &mockBudgetService{}, &mockNotificationService{})

		if _, err := s.RunRecurring(time.Now()); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestRunBudgetAlerts(t *testing.T) {
	t.Run("notifies_only_exceeded_budgets", func(t *testing.T) {
		budgets := &mockBudgetService{
			usersWithActiveMonthlyBudgetsFn: func(time.Time) ([]uint, error) {
				return []uint{7}, nil
			},
			getActiveMonthlyBudgetsFn: func(uint, time.Time) ([]models.Budget, error) {
				return []models.Budget{
					budgetWithCategory(1, "Groceries"),
					budgetWithCategory(2, "Dining"),
				}, nil
			},
			progressAtFn: func(budget *models.Budget, _ time.Time) (*services.BudgetProgress, error) {
				if budget.ID == 1 {
					return &services.BudgetProgress{Spent: 62050, Budgeted: 50000, IsExceeded: true}, nil
				}
				return &services.BudgetProgress{Spent: 10000, Budgeted: 50000}, nil
			},
		}

		var notified []string
		notifications := &mockNotificationService{
			notifyBudgetExceededFn: func(userID uint, categoryName string, spent, budgeted int64, _ time.Month, _ int) error {
				if userID != 7 {
					t.Errorf("expected user 7, got %d", userID)
				}
				if spent != 62050 || budgeted != 50000 {
					t.Errorf("unexpected amounts spent=%d budgeted=%d", spent, budgeted)
				}
				notified = append(notified, categoryName)
				return nil
			},
		}

		s := New(&mockRecurringService{}, budgets, notifications)
		report, err := s.RunBudgetAlerts(time.Now())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(notified) != 1 || notified[0] != "Groceries" {
			t.Errorf("expected one Groceries notification, got %v", notified)
		}
		if report.UsersChecked != 1 || report.BudgetsChecked != 2 || report.AlertsSent != 1 || report.Failed != 0 {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("isolates_user_failures", func(t *testing.T) {
		budgets := &mockBudgetService{
			usersWithActiveMonthlyBudgetsFn: func(time.Time) ([]uint, error) {
				return []uint{1, 2}, nil
			},
			getActiveMonthlyBudgetsFn: func(userID uint, _ time.Time) ([]models.Budget, error) {
				if userID == 1 {
					return nil, fmt.Errorf("query failed")
				}
				return []models.Budget{budgetWithCategory(3, "Transport")}, nil
			},
			progressAtFn: func(*models.Budget, time.Time) (*services.BudgetProgress, error) {
				return &services.BudgetProgress{IsExceeded: true}, nil
			},
		}

		var notifiedUsers []uint
		notifications := &mockNotificationService{
			notifyBudgetExceededFn: func(userID uint, _ string, _, _ int64, _ time.Month, _ int) error {
				notifiedUsers = append(notifiedUsers, userID)
				return nil
			},
		}

		s := New(&mockRecurringService{}, budgets, notifications)
		report, err := s.RunBudgetAlerts(time.Now())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.Failed != 1 {
			t.Errorf("expected 1 failed user, got %d", report.Failed)
		}
		if len(notifiedUsers) != 1 || notifiedUsers[0] != 2 {
			t.Errorf("user 2 should still be swept, got %v", notifiedUsers)
		}
	})

	t.Run("falls_back_to_budget_name", func(t *testing.T) {
		budget := budgetWithCategory(1, "")
		budget.Name = "Household"

		budgets := &mockBudgetService{
			usersWithActiveMonthlyBudgetsFn: func(time.Time) ([]uint, error) { return []uint{1}, nil },
			getActiveMonthlyBudgetsFn: func(uint, time.Time) ([]models.Budget, error) {
				return []models.Budget{budget}, nil
			},
			progressAtFn: func(*models.Budget, time.Time) (*services.BudgetProgress, error) {
				return &services.BudgetProgress{IsExceeded: true}, nil
			},
		}

		var gotName string
		notifications := &mockNotificationService{
			notifyBudgetExceededFn: func(_ uint, categoryName string, _, _ int64, _ time.Month, _ int) error {
				gotName = categoryName
				return nil
			},
		}

		s := New(&mockRecurringService{}, budgets, notifications)
		if _, err := s.RunBudgetAlerts(time.Now()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotName != "Household" {
			t.Errorf("expected budget name fallback, got %q", gotName)
		}
	})
}

func TestRunDeactivateExpired(t *testing.T) {
	budgets := &mockBudgetService{
		deactivateExpiredFn: func(time.Time) (int64, error) { return 4, nil },
	}
	s := New(&mockRecurringService{}, budgets, &mockNotificationService{})

	count, err := s.RunDeactivateExpired(time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 deactivated, got %d", count)
	}
}

func TestRunAll(t *testing.T) {
	t.Run("runs_jobs_in_order", func(t *testing.T) {
		var order []string
		recurring := &mockRecurringService{
			processDueTemplatesFn: func(time.Time) (*services.RecurringRunReport, error) {
				order = append(order, "recurring")
				return &services.RecurringRunReport{}, nil
			},
		}
		budgets := &mockBudgetService{
			usersWithActiveMonthlyBudgetsFn: func(time.Time) ([]uint, error) {
				order = append(order, "alerts")
				return nil, nil
			},
			deactivateExpiredFn: func(time.Time) (int64, error) {
				order = append(order, "cleanup")
				return 0, nil
			},
		}
		s := New(recurring, budgets, &mockNotificationService{})

		if err := s.RunAll(time.Now()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"recurring", "alerts", "cleanup"}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, order)
			}
		}
	})

	t.Run("stops_on_first_failure", func(t *testing.T) {
		recurring := &mockRecurringService{
			processDueTemplatesFn: func(time.Time) (*services.RecurringRunReport, error) {
				return nil, fmt.Errorf("boom")
			},
		}
		swept := false
		budgets := &mockBudgetService{
			usersWithActiveMonthlyBudgetsFn: func(time.Time) ([]uint, error) {
				swept = true
				return nil, nil
			},
		}
		s := New(recurring, budgets, &mockNotificationService{})

		if err := s.RunAll(time.Now()); err == nil {
			t.Fatal("expected error")
		}
		if swept {
			t.Error("alert sweep should not run after recurring failure")
		}
	})
}
