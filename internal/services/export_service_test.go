package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func newExportServiceForTest(t *testing.T) (ExportServicer, *testDeps) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	svc := NewExportService(db)
	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	return svc, &testDeps{db: db, user: user, category: category}
}

func TestExportTransactionsCSV(t *testing.T) {
	t.Run("writes_header_and_rows", func(t *testing.T) {
		svc, deps := newExportServiceForTest(t)
		date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
		tx := testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 4250, date)
		deps.db.Model(tx).Updates(map[string]interface{}{"description": "Lunch", "merchant": "Cafe"})

		var buf bytes.Buffer
		testutil.AssertNoError(t, svc.ExportTransactionsCSV(deps.user.ID, TransactionFilter{}, &buf))

		records, err := csv.NewReader(&buf).ReadAll()
		testutil.AssertNoError(t, err)

		if len(records) != 2 {
			t.Fatalf("expected header plus 1 row, got %d records", len(records))
		}
		if records[0][0] != "Date" || records[0][5] != "Amount" {
			t.Errorf("unexpected header %v", records[0])
		}
		row := records[1]
		if row[0] != "2025-03-15" {
			t.Errorf("expected date 2025-03-15, got %q", row[0])
		}
		if row[1] != "expense" {
			t.Errorf("expected type expense, got %q", row[1])
		}
		if row[2] != deps.category.Name {
			t.Errorf("expected category %q, got %q", deps.category.Name, row[2])
		}
		if row[3] != "Lunch" || row[4] != "Cafe" {
			t.Errorf("unexpected description/merchant %v", row)
		}
		if row[5] != "42.50" {
			t.Errorf("expected amount 42.50, got %q", row[5])
		}
	})

	t.Run("empty_result_has_only_header", func(t *testing.T) {
		svc, deps := newExportServiceForTest(t)

		var buf bytes.Buffer
		testutil.AssertNoError(t, svc.ExportTransactionsCSV(deps.user.ID, TransactionFilter{}, &buf))

		records, err := csv.NewReader(&buf).ReadAll()
		testutil.AssertNoError(t, err)
		if len(records) != 1 {
			t.Errorf("expected only the header, got %d records", len(records))
		}
	})

	t.Run("respects_filters", func(t *testing.T) {
		svc, deps := newExportServiceForTest(t)
		base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 1000, base)
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, nil, models.TransactionTypeIncome, 9000, base.AddDate(0, 0, 1))

		expense := models.TransactionTypeExpense
		var buf bytes.Buffer
		testutil.AssertNoError(t, svc.ExportTransactionsCSV(deps.user.ID, TransactionFilter{Type: &expense}, &buf))

		records, err := csv.NewReader(&buf).ReadAll()
		testutil.AssertNoError(t, err)
		if len(records) != 2 {
			t.Errorf("expected header plus 1 expense row, got %d records", len(records))
		}
	})
}

func TestExportTransactionsXLSX(t *testing.T) {
	t.Run("writes_workbook_with_totals", func(t *testing.T) {
		svc, deps := newExportServiceForTest(t)
		base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, nil, models.TransactionTypeIncome, 500000, base)
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 120000, base.AddDate(0, 0, 1))

		var buf bytes.Buffer
		testutil.AssertNoError(t, svc.ExportTransactionsXLSX(deps.user.ID, TransactionFilter{}, &buf))

		f, err := excelize.OpenReader(&buf)
		testutil.AssertNoError(t, err)
		defer f.Close()

		header, err := f.GetCellValue("Transactions", "A1")
		testutil.AssertNoError(t, err)
		if header != "Date" {
			t.Errorf("expected header Date, got %q", header)
		}

		// Rows 2-3 are data, row 4 carries the net total.
		net, err := f.GetCellValue("Transactions", "F4")
		testutil.AssertNoError(t, err)
		if net != "3800.00" {
			t.Errorf("expected net 3800.00, got %q", net)
		}

		count, err := f.GetCellValue("Transactions", "A4")
		testutil.AssertNoError(t, err)
		if count != "2 records" {
			t.Errorf("expected record count label, got %q", count)
		}
	})
}
