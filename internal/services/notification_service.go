package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/email"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// notificationService handles in-app notifications and email dispatch.
type notificationService struct {
	db     *gorm.DB
	mailer email.Mailer
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB, mailer email.Mailer) NotificationServicer {
	return &notificationService{db: db, mailer: mailer}
}

// GetUserNotifications returns a paginated list of the user's notifications,
// newest first.
func (s *notificationService) GetUserNotifications(userID uint, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var notifications []models.Notification
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(notifications, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *notificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// MarkRead marks a single notification as read.
func (s *notificationService) MarkRead(userID, notificationID uint) error {
	var notification models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&notification).Update("is_read", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// MarkAllRead marks every unread notification for the user as read.
func (s *notificationService) MarkAllRead(userID uint) error {
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// NotifyBudgetExceeded records a budget-exceeded notification for the user and
// sends an email copy. The notification row is the source of truth; email
// delivery is best effort and never fails the caller.
func (s *notificationService) NotifyBudgetExceeded(userID uint, categoryName string, spent, budgeted int64, month time.Month, year int) error {
	title := fmt.Sprintf("Budget exceeded: %s", categoryName)
	message := fmt.Sprintf(
		"You have spent %s of your %s budget for %s in %s %d.",
		formatAmount(spent), formatAmount(budgeted), categoryName, month, year,
	)

	notification := &models.Notification{
		UserID:  userID,
		Type:    models.NotificationTypeBudgetExceeded,
		Title:   title,
		Message: message,
	}
	if err := s.db.Create(notification).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		logger.Get().Errorw("failed to load user for budget email",
			"user_id", userID,
			"error", err,
		)
		return nil
	}

	go func(to, name string) {
		body := budgetExceededEmailBody(name, categoryName, spent, budgeted, month, year)
		if err := s.mailer.Send(to, title, body); err != nil {
			logger.Get().Errorw("failed to send budget exceeded email",
				"user_id", userID,
				"error", err,
			)
		}
	}(user.Email, user.FirstName)

	return nil
}

// formatAmount renders a minor-unit amount as a two-decimal currency string.
func formatAmount(cents int64) string {
	return "$" + decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func budgetExceededEmailBody(firstName, categoryName string, spent, budgeted int64, month time.Month, year int) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>Budget exceeded</h2>
    <p>Hi %s,</p>
    <p>Your <strong>%s</strong> budget for %s %d has been exceeded.</p>
    <ul>
        <li>Budgeted: %s</li>
        <li>Spent: %s</li>
    </ul>
    <p style="color: #666;">You are receiving this because budget alerts are enabled for your account.</p>
</body>
</html>
`, firstName, categoryName, month, year, formatAmount(budgeted), formatAmount(spent))
}
