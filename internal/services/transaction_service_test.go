package services

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/testutil"
)

func newTransactionServiceForTest(t *testing.T) (TransactionServicer, *testDeps) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	svc := NewTransactionService(db)
	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	return svc, &testDeps{db: db, user: user, category: category}
}

func TestCreateTransaction(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)

		tx, err := svc.CreateTransaction(deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 4250, "Lunch", "Cafe", time.Now())
		testutil.AssertNoError(t, err)

		if tx.ID == 0 {
			t.Fatal("expected non-zero transaction ID")
		}
		if tx.Amount != 4250 {
			t.Errorf("expected amount 4250, got %d", tx.Amount)
		}
	})

	t.Run("uncategorized", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)

		tx, err := svc.CreateTransaction(deps.user.ID, nil, models.TransactionTypeIncome, 500000, "Salary", "", time.Now())
		testutil.AssertNoError(t, err)
		if tx.CategoryID != nil {
			t.Error("expected nil category")
		}
	})

	t.Run("zero_date_defaults_to_now", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)

		tx, err := svc.CreateTransaction(deps.user.ID, nil, models.TransactionTypeExpense, 1000, "", "", time.Time{})
		testutil.AssertNoError(t, err)
		if tx.Date.IsZero() {
			t.Error("date should default to now")
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)

		_, err := svc.CreateTransaction(deps.user.ID, nil, models.TransactionTypeExpense, 0, "", "", time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)

		_, err := svc.CreateTransaction(deps.user.ID, nil, "transfer", 1000, "", "", time.Now())
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("other_users_category", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		other := testutil.CreateTestUser(t, deps.db)
		otherCategory := testutil.CreateTestCategory(t, deps.db, other.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(deps.user.ID, &otherCategory.ID, models.TransactionTypeExpense, 1000, "", "", time.Now())
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetUserTransactions(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 1000, base)
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 5000, base.AddDate(0, 0, 5))
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, nil, models.TransactionTypeIncome, 9000, base.AddDate(0, 0, 10))

		page := pagination.PageRequest{Page: 1, PageSize: 10}

		expense := models.TransactionTypeExpense
		result, err := svc.GetUserTransactions(deps.user.ID, page, TransactionFilter{Type: &expense})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 expenses, got %d", result.TotalItems)
		}

		min := int64(4000)
		result, err = svc.GetUserTransactions(deps.user.ID, page, TransactionFilter{MinAmount: &min})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 transactions >= 4000, got %d", result.TotalItems)
		}

		from := base.AddDate(0, 0, 4)
		to := base.AddDate(0, 0, 6)
		result, err = svc.GetUserTransactions(deps.user.ID, page, TransactionFilter{FromDate: &from, ToDate: &to})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 transaction in date range, got %d", result.TotalItems)
		}
	})

	t.Run("newest_first", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, nil, models.TransactionTypeExpense, 1000, base)
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, nil, models.TransactionTypeExpense, 2000, base.AddDate(0, 0, 3))

		result, err := svc.GetUserTransactions(deps.user.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if len(result.Data) != 2 || result.Data[0].Amount != 2000 {
			t.Errorf("expected newest transaction first")
		}
	})

	t.Run("pagination", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		for i := 0; i < 5; i++ {
			testutil.CreateTestTransaction(t, deps.db, deps.user.ID, nil, models.TransactionTypeExpense, int64(1000+i))
		}

		result, err := svc.GetUserTransactions(deps.user.ID, pagination.PageRequest{Page: 2, PageSize: 2}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 5 {
			t.Errorf("expected 5 total, got %d", result.TotalItems)
		}
		if len(result.Data) != 2 {
			t.Errorf("expected 2 items on page 2, got %d", len(result.Data))
		}
		if result.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", result.TotalPages)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("updates_fields", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		tx := testutil.CreateTestTransaction(t, deps.db, deps.user.ID, nil, models.TransactionTypeExpense, 1000)

		newAmount := int64(2000)
		newDescription := "Updated"
		_, err := svc.UpdateTransaction(deps.user.ID, tx.ID, &deps.category.ID, &newAmount, &newDescription, nil, nil)
		testutil.AssertNoError(t, err)

		var stored models.Transaction
		deps.db.First(&stored, tx.ID)
		if stored.Amount != 2000 || stored.Description != "Updated" {
			t.Errorf("unexpected stored transaction %+v", stored)
		}
		if stored.CategoryID == nil || *stored.CategoryID != deps.category.ID {
			t.Error("category should be updated")
		}
	})

	t.Run("invalid_amount", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		tx := testutil.CreateTestTransaction(t, deps.db, deps.user.ID, nil, models.TransactionTypeExpense, 1000)

		bad := int64(-5)
		_, err := svc.UpdateTransaction(deps.user.ID, tx.ID, nil, &bad, nil, nil, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("not_found", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)

		_, err := svc.UpdateTransaction(deps.user.ID, 9999, nil, nil, nil, nil, nil)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		tx := testutil.CreateTestTransaction(t, deps.db, deps.user.ID, nil, models.TransactionTypeExpense, 1000)

		testutil.AssertNoError(t, svc.DeleteTransaction(deps.user.ID, tx.ID))

		_, err := svc.GetTransactionByID(deps.user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("wrong_owner", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		tx := testutil.CreateTestTransaction(t, deps.db, deps.user.ID, nil, models.TransactionTypeExpense, 1000)

		other := testutil.CreateTestUser(t, deps.db)
		err := svc.DeleteTransaction(other.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestSumExpenses(t *testing.T) {
	t.Run("window_is_inclusive_of_end_day", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 1000, from)
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 2000, to.Add(23*time.Hour))
		// Just past the inclusive end day
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 4000, to.AddDate(0, 0, 1))

		sum, err := svc.SumExpenses(deps.user.ID, deps.category.ID, from, to)
		testutil.AssertNoError(t, err)
		if sum != 3000 {
			t.Errorf("expected sum 3000, got %d", sum)
		}
	})

	t.Run("empty_window", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		sum, err := svc.SumExpenses(deps.user.ID, deps.category.ID, from, from.AddDate(0, 1, 0))
		testutil.AssertNoError(t, err)
		if sum != 0 {
			t.Errorf("expected sum 0, got %d", sum)
		}
	})
}

func TestGetMonthlySummary(t *testing.T) {
	t.Run("aggregates_one_month", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)

		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, nil, models.TransactionTypeIncome, 500000, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 120000, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, &deps.category.ID, models.TransactionTypeExpense, 80000, time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC))
		// Outside the month
		testutil.CreateTestTransactionOn(t, deps.db, deps.user.ID, nil, models.TransactionTypeExpense, 99999, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

		summary, err := svc.GetMonthlySummary(deps.user.ID, 2025, time.March)
		testutil.AssertNoError(t, err)

		if summary.TotalIncome != 500000 {
			t.Errorf("expected income 500000, got %d", summary.TotalIncome)
		}
		if summary.TotalExpense != 200000 {
			t.Errorf("expected expenses 200000, got %d", summary.TotalExpense)
		}
		if summary.Net != 300000 {
			t.Errorf("expected net 300000, got %d", summary.Net)
		}
	})

	t.Run("empty_month", func(t *testing.T) {
		svc, deps := newTransactionServiceForTest(t)

		summary, err := svc.GetMonthlySummary(deps.user.ID, 2025, time.July)
		testutil.AssertNoError(t, err)
		if summary.TotalIncome != 0 || summary.TotalExpense != 0 || summary.Net != 0 {
			t.Errorf("expected zero summary, got %+v", summary)
		}
	})
}
