package models

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	NotificationTypeBudgetExceeded NotificationType = "budget_exceeded"
	NotificationTypeBudgetWarning  NotificationType = "budget_warning"
	NotificationTypeSystem         NotificationType = "system"
)

// Notification is an in-app message delivered to a user. Email delivery is
// best-effort on top of the stored row.
type Notification struct {
	Base
	UserID  uint             `gorm:"not null;index" json:"user_id"`
	Type    NotificationType `gorm:"not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `json:"message"`
	IsRead  bool             `gorm:"default:false" json:"is_read"`
}
