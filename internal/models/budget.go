package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodDaily   BudgetPeriod = "daily"
)

// Budget represents a spending ceiling for a category over a fixed
// [start_date, end_date] window. Amount is in minor currency units.
type Budget struct {
	Base
	UserID     uint         `gorm:"not null;index" json:"user_id"`
	CategoryID uint         `gorm:"not null" json:"category_id"`
	Name       string       `gorm:"not null" json:"name"`
	Amount     int64        `gorm:"type:bigint;not null" json:"amount"`
	Period     BudgetPeriod `gorm:"not null" json:"period"`
	StartDate  time.Time    `gorm:"not null" json:"start_date"`
	EndDate    time.Time    `gorm:"not null" json:"end_date"`
	IsActive   bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
