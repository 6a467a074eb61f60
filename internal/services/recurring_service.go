package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// catchUpLimit bounds how many missed occurrences a single run will
// materialize for one template. A daily template would need to be paused for
// almost three years to hit it.
const catchUpLimit = 1000

// errOccurrenceTaken signals that a concurrent runner advanced the template
// first; the occurrence belongs to that runner.
var errOccurrenceTaken = errors.New("occurrence already materialized by another runner")

// recurringService handles recurring template business logic.
type recurringService struct {
	db *gorm.DB
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB) RecurringServicer {
	return &recurringService{db: db}
}

// CreateTemplate creates a new recurring template. The first occurrence is the
// start date itself.
func (s *recurringService) CreateTemplate(
	userID, categoryID uint,
	transactionType models.TransactionType,
	amount int64,
	description, merchant string,
	startDate time.Time,
	frequency models.Frequency,
	interval int,
) (*models.RecurringTemplate, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !validFrequency(frequency) {
		return nil, apperrors.ErrInvalidFrequency
	}
	if interval < 1 {
		return nil, apperrors.ErrInvalidInterval
	}
	if startDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}

	// Verify category exists and belongs to user
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	template := &models.RecurringTemplate{
		UserID:         userID,
		CategoryID:     categoryID,
		Type:           transactionType,
		Amount:         amount,
		Description:    description,
		Merchant:       merchant,
		StartDate:      startDate,
		Frequency:      frequency,
		Interval:       interval,
		NextOccurrence: startDate,
		IsActive:       true,
	}

	if err := s.db.Create(template).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return template, nil
}

// GetUserTemplates returns a paginated list of the user's recurring templates.
func (s *recurringService) GetUserTemplates(userID uint, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringTemplate], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTemplate{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var templates []models.RecurringTemplate
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("next_occurrence ASC").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(templates, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTemplateByID returns a template by ID if it belongs to the user.
func (s *recurringService) GetTemplateByID(userID, templateID uint) (*models.RecurringTemplate, error) {
	var template models.RecurringTemplate
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", templateID, userID).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &template, nil
}

// UpdateTemplate updates an existing template's fields. Deactivation is an
// update with is_active=false; the schedule position (next_occurrence) is only
// ever advanced by the scheduler.
func (s *recurringService) UpdateTemplate(
	userID, templateID uint,
	amount *int64,
	description, merchant *string,
	frequency *models.Frequency,
	interval *int,
	isActive *bool,
) (*models.RecurringTemplate, error) {
	template, err := s.GetTemplateByID(userID, templateID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if amount != nil {
		if *amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *amount
	}
	if description != nil {
		updates["description"] = *description
	}
	if merchant != nil {
		updates["merchant"] = *merchant
	}
	if frequency != nil {
		if !validFrequency(*frequency) {
			return nil, apperrors.ErrInvalidFrequency
		}
		updates["frequency"] = *frequency
	}
	if interval != nil {
		if *interval < 1 {
			return nil, apperrors.ErrInvalidInterval
		}
		updates["interval"] = *interval
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(template).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return template, nil
}

// DeleteTemplate permanently removes a template. Past materialized
// transactions are untouched; they carry no reference to the template.
func (s *recurringService) DeleteTemplate(userID, templateID uint) error {
	template, err := s.GetTemplateByID(userID, templateID)
	if err != nil {
		return err
	}

	if err := s.db.Unscoped().Delete(template).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ProcessDueTemplates materializes a transaction for every active template
// whose next occurrence has arrived and advances each template's schedule.
// Failures are isolated per template: one broken template never aborts the
// rest of the run.
func (s *recurringService) ProcessDueTemplates(now time.Time) (*RecurringRunReport, error) {
	var due []models.RecurringTemplate
	if err := s.db.Where("is_active = ? AND next_occurrence <= ?", true, now).
		Find(&due).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log := logger.Get()
	report := &RecurringRunReport{}

	for i := range due {
		template := &due[i]
		report.Processed++

		created, err := s.materialize(template, now)
		report.Created += created
		if err != nil {
			report.Failed++
			log.Errorw("failed to process recurring template",
				"template_id", template.ID,
				"user_id", template.UserID,
				"error", err,
			)
		}
	}

	return report, nil
}

// materialize catches a single template up to now, one occurrence at a time.
// Each occurrence is handled in its own database transaction: the schedule is
// advanced with a compare-and-swap on next_occurrence, and the transaction row
// is inserted only when the swap won. A crash between the two leaves neither
// side applied; a concurrent runner losing the swap simply skips the
// occurrence, so each due occurrence materializes at most once.
func (s *recurringService) materialize(template *models.RecurringTemplate, now time.Time) (int, error) {
	created := 0
	next := template.NextOccurrence

	for i := 0; i < catchUpLimit && !next.After(now); i++ {
		occurrence := next
		// Advance from the previous scheduled occurrence, not from now, so a
		// delayed run keeps the exact cadence.
		advanced := advanceOccurrence(occurrence, template.Frequency, template.Interval)

		err := s.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.RecurringTemplate{}).
				Where("id = ? AND next_occurrence = ?", template.ID, occurrence).
				Update("next_occurrence", advanced)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errOccurrenceTaken
			}

			transaction := &models.Transaction{
				UserID:      template.UserID,
				CategoryID:  &template.CategoryID,
				Type:        template.Type,
				Amount:      template.Amount,
				Description: template.Description,
				Merchant:    template.Merchant,
				Date:        occurrence,
			}
			return tx.Create(transaction).Error
		})
		if errors.Is(err, errOccurrenceTaken) {
			return created, nil
		}
		if err != nil {
			return created, err
		}

		created++
		next = advanced
	}

	template.NextOccurrence = next
	return created, nil
}

// advanceOccurrence adds interval units of the frequency to the given date.
// Monthly and yearly steps clamp to the last day of the target month, so a
// template anchored on Jan 31 fires on Feb 28 rather than sliding into March.
func advanceOccurrence(from time.Time, frequency models.Frequency, interval int) time.Time {
	switch frequency {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, interval)
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7*interval)
	case models.FrequencyMonthly:
		return addMonthsClamped(from, interval)
	case models.FrequencyYearly:
		return addMonthsClamped(from, 12*interval)
	}
	// Unknown frequencies are rejected at creation time; advancing by one day
	// keeps a corrupted row from looping forever.
	return from.AddDate(0, 0, 1)
}

// addMonthsClamped shifts a date by whole months, clamping the day of month to
// the length of the target month.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func validFrequency(f models.Frequency) bool {
	switch f {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly:
		return true
	}
	return false
}
