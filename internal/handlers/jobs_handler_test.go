package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack/internal/scheduler"
	"fintrack/internal/services"
)

func setupJobsRouter(handler *JobsHandler) *gin.Engine {
	r := gin.New()
	jobs := r.Group("/jobs")
	{
		jobs.POST("/recurring", handler.RunRecurring)
		jobs.POST("/budget-alerts", handler.RunBudgetAlerts)
		jobs.POST("/deactivate-budgets", handler.RunDeactivateExpired)
	}
	return r
}

func newJobsHandler(recurring *mockRecurringService, budgets *mockBudgetService, notifications *mockNotificationService) *JobsHandler {
	return NewJobsHandler(scheduler.New(recurring, budgets, notifications))
}

func TestJobsHandler_RunRecurring(t *testing.T) {
	t.Run("returns run report", func(t *testing.T) {
		recurring := &mockRecurringService{
			processDueFn: func(time.Time) (*services.RecurringRunReport, error) {
				return &services.RecurringRunReport{Processed: 3, Created: 3}, nil
			},
		}
		handler := newJobsHandler(recurring, &mockBudgetService{}, &mockNotificationService{})
		r := setupJobsRouter(handler)

		rec := doRequest(r, "POST", "/jobs/recurring", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		report := result["report"].(map[string]interface{})
		if report["processed"] != float64(3) {
			t.Errorf("expected 3 processed, got %v", report["processed"])
		}
		if report["created"] != float64(3) {
			t.Errorf("expected 3 created, got %v", report["created"])
		}
	})

	t.Run("returns 500 on failure", func(t *testing.T) {
		recurring := &mockRecurringService{
			processDueFn: func(time.Time) (*services.RecurringRunReport, error) {
				return nil, errors.New("db is down")
			},
		}
		handler := newJobsHandler(recurring, &mockBudgetService{}, &mockNotificationService{})
		r := setupJobsRouter(handler)

		rec := doRequest(r, "POST", "/jobs/recurring", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestJobsHandler_RunBudgetAlerts(t *testing.T) {
	handler := newJobsHandler(&mockRecurringService{}, &mockBudgetService{}, &mockNotificationService{})
	r := setupJobsRouter(handler)

	rec := doRequest(r, "POST", "/jobs/budget-alerts", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if _, ok := result["report"]; !ok {
		t.Error("expected report in response")
	}
}

func TestJobsHandler_RunDeactivateExpired(t *testing.T) {
	budgets := &mockBudgetService{
		deactivateExpiredFn: func(time.Time) (int64, error) { return 4, nil },
	}
	handler := newJobsHandler(&mockRecurringService{}, budgets, &mockNotificationService{})
	r := setupJobsRouter(handler)

	rec := doRequest(r, "POST", "/jobs/deactivate-budgets", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["deactivated"] != float64(4) {
		t.Errorf("expected 4 deactivated, got %v", result["deactivated"])
	}
}
