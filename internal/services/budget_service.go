package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// warningThreshold is the utilization percentage at which a warning alert fires.
const warningThreshold = 80.0

// nearEndDays is the days-remaining cutoff for the near_end alert.
const nearEndDays = 3

// budgetService handles budget-related business logic.
type budgetService struct {
	db           *gorm.DB
	transactions TransactionServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, transactions TransactionServicer) BudgetServicer {
	return &budgetService{db: db, transactions: transactions}
}

// CreateBudget creates a new budget for a category.
func (s *budgetService) CreateBudget(
	userID, categoryID uint,
	name string,
	amount int64,
	period models.BudgetPeriod,
	startDate, endDate time.Time,
) (*models.Budget, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !endDate.After(startDate) {
		return nil, apperrors.ErrInvalidBudgetWindow
	}

	// Verify category exists and belongs to user
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Name:       name,
		Amount:     amount,
		Period:     period,
		StartDate:  startDate,
		EndDate:    endDate,
		IsActive:   true,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with optional filters.
func (s *budgetService) GetUserBudgets(
	userID uint,
	page pagination.PageRequest,
	isActive *bool,
	period *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields.
func (s *budgetService) UpdateBudget(
	userID, budgetID uint,
	name string,
	amount *int64,
	period *models.BudgetPeriod,
	endDate *time.Time,
) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if amount != nil {
		if *amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *amount
	}
	if period != nil {
		updates["period"] = *period
	}
	if endDate != nil {
		if !endDate.After(budget.StartDate) {
			return nil, apperrors.ErrInvalidBudgetWindow
		}
		updates["end_date"] = endDate
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress calculates spending vs budget for the budget's window as of now.
func (s *budgetService) GetBudgetProgress(userID, budgetID uint) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.ProgressAt(budget, time.Now())
}

// ProgressAt computes utilization metrics for an already-fetched budget at the
// given instant. The computation is read-only and safe to call repeatedly.
func (s *budgetService) ProgressAt(budget *models.Budget, now time.Time) (*BudgetProgress, error) {
	spent, err := s.transactions.SumExpenses(budget.UserID, budget.CategoryID, budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, err
	}

	var percentage float64
	if budget.Amount > 0 {
		percentage = float64(spent) / float64(budget.Amount) * 100
	}

	totalDays := periodDays(budget.StartDate, budget.EndDate)
	daysRemaining := int(math.Ceil(budget.EndDate.Sub(now).Hours() / 24))
	if daysRemaining < 0 {
		// Clock skew or an already-expired budget must not poison the rates.
		daysRemaining = 0
	}
	if daysRemaining > totalDays {
		daysRemaining = totalDays
	}

	elapsedDays := totalDays - daysRemaining
	if elapsedDays < 1 {
		elapsedDays = 1
	}

	dailyAverage := float64(spent) / float64(elapsedDays)
	projected := dailyAverage * float64(totalDays)

	return &BudgetProgress{
		BudgetID:       budget.ID,
		CategoryID:     budget.CategoryID,
		Budgeted:       budget.Amount,
		Spent:          spent,
		Remaining:      budget.Amount - spent,
		PercentageUsed: percentage,
		TotalDays:      totalDays,
		DaysRemaining:  daysRemaining,
		ElapsedDays:    elapsedDays,
		DailyAverage:   dailyAverage,
		Projected:      projected,
		IsExceeded:     spent > budget.Amount,
		IsOnTrack:      projected <= float64(budget.Amount),
	}, nil
}

// GetBudgetSummary aggregates progress over all of the user's active budgets.
func (s *budgetService) GetBudgetSummary(userID uint) (*BudgetSummary, error) {
	budgets, err := s.activeBudgets(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &BudgetSummary{}
	var percentageSum float64

	for i := range budgets {
		progress, err := s.ProgressAt(&budgets[i], now)
		if err != nil {
			return nil, err
		}
		summary.TotalBudgeted += progress.Budgeted
		summary.TotalSpent += progress.Spent
		summary.TotalRemaining += progress.Remaining
		if progress.IsExceeded {
			summary.ExceededCount++
		}
		if progress.IsOnTrack {
			summary.OnTrackCount++
		}
		percentageSum += progress.PercentageUsed
	}

	summary.BudgetCount = len(budgets)
	if summary.BudgetCount > 0 {
		// Simple mean, not weighted by budget size.
		summary.AveragePercentage = percentageSum / float64(summary.BudgetCount)
	}
	return summary, nil
}

// GetBudgetAlerts evaluates every active budget against the alert rules. The
// rules are independent: a budget over its ceiling in its final days emits
// exceeded, warning, and near_end in the same call.
func (s *budgetService) GetBudgetAlerts(userID uint) ([]BudgetAlert, error) {
	budgets, err := s.activeBudgets(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	alerts := []BudgetAlert{}

	for i := range budgets {
		budget := &budgets[i]
		progress, err := s.ProgressAt(budget, now)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, buildAlerts(budget, progress)...)
	}
	return alerts, nil
}

// buildAlerts applies the alert rules to one budget's progress.
func buildAlerts(budget *models.Budget, progress *BudgetProgress) []BudgetAlert {
	var alerts []BudgetAlert

	add := func(alertType AlertType, message string) {
		alerts = append(alerts, BudgetAlert{
			BudgetID:       budget.ID,
			CategoryID:     budget.CategoryID,
			CategoryName:   budget.Category.Name,
			Type:           alertType,
			Message:        message,
			PercentageUsed: progress.PercentageUsed,
			DaysRemaining:  progress.DaysRemaining,
		})
	}

	if progress.IsExceeded {
		add(AlertTypeExceeded, fmt.Sprintf("Budget %q is exceeded: %.1f%% of the limit spent", budget.Name, progress.PercentageUsed))
	}
	if progress.PercentageUsed >= warningThreshold {
		add(AlertTypeWarning, fmt.Sprintf("Budget %q has reached %.1f%% of its limit", budget.Name, progress.PercentageUsed))
	}
	if progress.DaysRemaining > 0 && progress.DaysRemaining <= nearEndDays {
		add(AlertTypeNearEnd, fmt.Sprintf("Budget %q ends in %d day(s)", budget.Name, progress.DaysRemaining))
	}
	return alerts
}

// GetActiveMonthlyBudgets returns the user's active monthly budgets whose
// window covers the given instant.
func (s *budgetService) GetActiveMonthlyBudgets(userID uint, now time.Time) ([]models.Budget, error) {
	var budgets []models.Budget
	err := s.db.Preload("Category").
		Where("user_id = ? AND is_active = ? AND period = ? AND start_date <= ? AND end_date >= ?",
			userID, true, models.BudgetPeriodMonthly, now, now).
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// UsersWithActiveMonthlyBudgets returns the distinct user IDs holding at least
// one active monthly budget whose window covers the given instant.
func (s *budgetService) UsersWithActiveMonthlyBudgets(now time.Time) ([]uint, error) {
	var userIDs []uint
	err := s.db.Model(&models.Budget{}).
		Distinct("user_id").
		Where("is_active = ? AND period = ? AND start_date <= ? AND end_date >= ?",
			true, models.BudgetPeriodMonthly, now, now).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return userIDs, nil
}

// DeactivateExpired flips is_active off for every active budget whose end date
// has passed. Set-based and idempotent; safe on any schedule.
func (s *budgetService) DeactivateExpired(now time.Time) (int64, error) {
	result := s.db.Model(&models.Budget{}).
		Where("is_active = ? AND end_date < ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

func (s *budgetService) activeBudgets(userID uint) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// periodDays counts whole days in the inclusive [start, end] window.
func periodDays(start, end time.Time) int {
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days
}
