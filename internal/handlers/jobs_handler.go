package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack/internal/scheduler"
)

// JobsHandler exposes the background jobs as authenticated HTTP triggers, for
// external cron services and operational re-runs.
type JobsHandler struct {
	scheduler *scheduler.Scheduler
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s *scheduler.Scheduler) *JobsHandler {
	return &JobsHandler{scheduler: s}
}

// RunRecurring triggers one recurring transaction materialization pass.
// @Summary     Run recurring job
// @Description Materialize transactions for all due recurring templates
// @Tags        jobs
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string true "Jobs API key"
// @Success     200 {object} services.RecurringRunReport "Run report"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /jobs/recurring [post]
func (h *JobsHandler) RunRecurring(c *gin.Context) {
	report, err := h.scheduler.RunRecurring(time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// RunBudgetAlerts triggers one budget alert sweep.
// @Summary     Run budget alert sweep
// @Description Check active monthly budgets and notify users whose budgets are exceeded
// @Tags        jobs
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string true "Jobs API key"
// @Success     200 {object} scheduler.AlertRunReport "Sweep report"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /jobs/budget-alerts [post]
func (h *JobsHandler) RunBudgetAlerts(c *gin.Context) {
	report, err := h.scheduler.RunBudgetAlerts(time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// RunDeactivateExpired triggers one expired budget cleanup pass.
// @Summary     Deactivate expired budgets
// @Description Deactivate every active budget whose end date has passed
// @Tags        jobs
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string true "Jobs API key"
// @Success     200 {object} map[string]int64 "Deactivated count"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /jobs/deactivate-budgets [post]
func (h *JobsHandler) RunDeactivateExpired(c *gin.Context) {
	count, err := h.scheduler.RunDeactivateExpired(time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": count})
}
