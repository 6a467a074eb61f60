package services

import (
	"io"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string, parentID *uint) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID uint, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name, description, icon, color string, parentID *uint) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	MinAmount  *int64
	MaxAmount  *int64
}

// MonthlySummary aggregates a user's income and expenses for one calendar month.
type MonthlySummary struct {
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	TotalIncome  int64 `json:"total_income"`
	TotalExpense int64 `json:"total_expense"`
	Net          int64 `json:"net"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description, merchant string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID uint, categoryID *uint, amount *int64, description, merchant *string, date *time.Time) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
	SumExpenses(userID, categoryID uint, from, to time.Time) (int64, error)
	GetMonthlySummary(userID uint, year int, month time.Month) (*MonthlySummary, error)
}

// BudgetProgress contains real-time utilization metrics for a single budget.
// DaysRemaining is clamped to zero and ElapsedDays floored at one, so the
// derived rates stay well-defined on every day of the budget window.
type BudgetProgress struct {
	BudgetID       uint    `json:"budget_id"`
	CategoryID     uint    `json:"category_id"`
	Budgeted       int64   `json:"budgeted"`
	Spent          int64   `json:"spent"`
	Remaining      int64   `json:"remaining"`
	PercentageUsed float64 `json:"percentage_used"`
	TotalDays      int     `json:"total_days"`
	DaysRemaining  int     `json:"days_remaining"`
	ElapsedDays    int     `json:"elapsed_days"`
	DailyAverage   float64 `json:"daily_average_spending"`
	Projected      float64 `json:"projected_spending"`
	IsExceeded     bool    `json:"is_exceeded"`
	IsOnTrack      bool    `json:"is_on_track"`
}

// BudgetSummary aggregates progress across all of a user's active budgets.
// AveragePercentage is the unweighted mean of the individual percentages.
type BudgetSummary struct {
	TotalBudgeted     int64   `json:"total_budgeted"`
	TotalSpent        int64   `json:"total_spent"`
	TotalRemaining    int64   `json:"total_remaining"`
	ExceededCount     int     `json:"exceeded_count"`
	OnTrackCount      int     `json:"on_track_count"`
	BudgetCount       int     `json:"budget_count"`
	AveragePercentage float64 `json:"average_percentage"`
}

// AlertType classifies a budget alert.
type AlertType string

const (
	AlertTypeExceeded AlertType = "exceeded"
	AlertTypeWarning  AlertType = "warning"
	AlertTypeNearEnd  AlertType = "near_end"
)

// BudgetAlert is one alert emitted for a budget. The rules are evaluated
// independently, so a single budget may emit several alerts at once.
type BudgetAlert struct {
	BudgetID       uint      `json:"budget_id"`
	CategoryID     uint      `json:"category_id"`
	CategoryName   string    `json:"category_name"`
	Type           AlertType `json:"type"`
	Message        string    `json:"message"`
	PercentageUsed float64   `json:"percentage_used"`
	DaysRemaining  int       `json:"days_remaining"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, categoryID uint, name string, amount int64, period models.BudgetPeriod, startDate, endDate time.Time) (*models.Budget, error)
	GetUserBudgets(userID uint, page pagination.PageRequest, isActive *bool, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	UpdateBudget(userID, budgetID uint, name string, amount *int64, period *models.BudgetPeriod, endDate *time.Time) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
	GetBudgetProgress(userID, budgetID uint) (*BudgetProgress, error)
	ProgressAt(budget *models.Budget, now time.Time) (*BudgetProgress, error)
	GetBudgetSummary(userID uint) (*BudgetSummary, error)
	GetBudgetAlerts(userID uint) ([]BudgetAlert, error)
	GetActiveMonthlyBudgets(userID uint, now time.Time) ([]models.Budget, error)
	UsersWithActiveMonthlyBudgets(now time.Time) ([]uint, error)
	DeactivateExpired(now time.Time) (int64, error)
}

// RecurringRunReport summarizes one scheduler pass over due templates.
type RecurringRunReport struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Failed    int `json:"failed"`
}

// RecurringServicer defines the contract for recurring template business logic.
type RecurringServicer interface {
	CreateTemplate(userID, categoryID uint, transactionType models.TransactionType, amount int64, description, merchant string, startDate time.Time, frequency models.Frequency, interval int) (*models.RecurringTemplate, error)
	GetUserTemplates(userID uint, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringTemplate], error)
	GetTemplateByID(userID, templateID uint) (*models.RecurringTemplate, error)
	UpdateTemplate(userID, templateID uint, amount *int64, description, merchant *string, frequency *models.Frequency, interval *int, isActive *bool) (*models.RecurringTemplate, error)
	DeleteTemplate(userID, templateID uint) error
	ProcessDueTemplates(now time.Time) (*RecurringRunReport, error)
}

// NotificationServicer defines the contract for notification business logic.
type NotificationServicer interface {
	GetUserNotifications(userID uint, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error)
	UnreadCount(userID uint) (int64, error)
	MarkRead(userID, notificationID uint) error
	MarkAllRead(userID uint) error
	NotifyBudgetExceeded(userID uint, categoryName string, spent, budgeted int64, month time.Month, year int) error
}

// ExportServicer defines the contract for exporting a user's transactions.
type ExportServicer interface {
	ExportTransactionsCSV(userID uint, filter TransactionFilter, w io.Writer) error
	ExportTransactionsXLSX(userID uint, filter TransactionFilter, w io.Writer) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
