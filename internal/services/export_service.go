package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

var exportHeaders = []string{"Date", "Type", "Category", "Description", "Merchant", "Amount"}

// exportService renders a user's transactions as downloadable files.
type exportService struct {
	db *gorm.DB
}

// NewExportService creates a new ExportServicer.
func NewExportService(db *gorm.DB) ExportServicer {
	return &exportService{db: db}
}

func (s *exportService) fetch(userID uint, filter TransactionFilter) ([]models.Transaction, error) {
	q := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	q = applyTransactionFilters(q, filter)

	var transactions []models.Transaction
	if err := q.Preload("Category").Order("date ASC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// ExportTransactionsCSV streams the user's transactions as CSV.
func (s *exportService) ExportTransactionsCSV(userID uint, filter TransactionFilter, w io.Writer) error {
	transactions, err := s.fetch(userID, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range transactions {
		t := &transactions[i]
		record := []string{
			t.Date.Format("2006-01-02"),
			string(t.Type),
			categoryName(t),
			t.Description,
			t.Merchant,
			exportAmount(t.Amount),
		}
		if err := cw.Write(record); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ExportTransactionsXLSX writes the user's transactions as a styled Excel
// workbook with a totals row.
func (s *exportService) ExportTransactionsXLSX(userID uint, filter TransactionFilter, w io.Writer) error {
	transactions, err := s.fetch(userID, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Transactions"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 10)
	f.SetColWidth(sheetName, "C", "C", 18)
	f.SetColWidth(sheetName, "D", "D", 32)
	f.SetColWidth(sheetName, "E", "E", 20)
	f.SetColWidth(sheetName, "F", "F", 12)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	var net decimal.Decimal
	for i := range transactions {
		t := &transactions[i]
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), t.Date.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), string(t.Type))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), categoryName(t))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), t.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), t.Merchant)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), exportAmount(t.Amount))

		amount := decimal.NewFromInt(t.Amount).Div(decimal.NewFromInt(100))
		if t.Type == models.TransactionTypeExpense {
			net = net.Sub(amount)
		} else {
			net = net.Add(amount)
		}
	}

	totalStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
	})

	totalRow := len(transactions) + 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("%d records", len(transactions)))
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", totalRow), "Net")
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", totalRow), net.StringFixed(2))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("F%d", totalRow), totalStyle)

	if err := f.Write(w); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func categoryName(t *models.Transaction) string {
	if t.Category != nil {
		return t.Category.Name
	}
	return ""
}

// exportAmount renders a minor-unit amount with two decimal places, without a
// currency symbol so spreadsheets treat it as numeric text.
func exportAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
