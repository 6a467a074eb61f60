package models

import "time"

// Frequency represents how often a recurring template fires.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurringTemplate is a user-defined rule that periodically materializes a
// concrete transaction. NextOccurrence is always >= StartDate and only moves
// forward: the scheduler advances it by Interval units of Frequency after each
// materialization. Materialized transactions carry no back-reference to the
// template (copy-by-value).
type RecurringTemplate struct {
	Base
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	CategoryID     uint            `gorm:"not null" json:"category_id"`
	Type           TransactionType `gorm:"not null" json:"type"`
	Amount         int64           `gorm:"type:bigint;not null" json:"amount"`
	Description    string          `json:"description"`
	Merchant       string          `json:"merchant"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	Frequency      Frequency       `gorm:"not null" json:"frequency"`
	Interval       int             `gorm:"not null;default:1" json:"interval"`
	NextOccurrence time.Time       `gorm:"not null;index" json:"next_occurrence"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
