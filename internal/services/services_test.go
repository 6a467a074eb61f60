package services

import (
	"gorm.io/gorm"

	"fintrack/internal/models"
)

// testDeps bundles the fixtures most service tests start from.
type testDeps struct {
	db       *gorm.DB
	user     *models.User
	category *models.Category
}
