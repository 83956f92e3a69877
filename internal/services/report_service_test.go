package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"expenseflow/internal/models"
	"expenseflow/internal/testutil"
)

func createReportExpense(t *testing.T, db *gorm.DB, owner *models.User, categoryID uint, amount int64, status models.ExpenseStatus, date time.Time) {
	t.Helper()
	expense := &models.Expense{
		UserID:      owner.ID,
		CategoryID:  categoryID,
		Description: "report fixture",
		Amount:      amount,
		ExpenseDate: date,
		Status:      status,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}
}

func TestTotalsByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReportService(db)
	employee := testutil.CreateTestUser(t, db)
	travel := testutil.CreateTestCategory(t, db)
	meals := testutil.CreateTestCategory(t, db)

	now := time.Now()
	createReportExpense(t, db, employee, travel.ID, 10000, models.StatusApproved, now.AddDate(0, 0, -2))
	createReportExpense(t, db, employee, travel.ID, 5000, models.StatusPaid, now.AddDate(0, 0, -1))
	createReportExpense(t, db, employee, meals.ID, 2500, models.StatusApproved, now.AddDate(0, 0, -1))
	// Unapproved spend must not count.
	createReportExpense(t, db, employee, meals.ID, 9999, models.StatusSubmitted, now.AddDate(0, 0, -1))
	createReportExpense(t, db, employee, meals.ID, 9999, models.StatusRejected, now.AddDate(0, 0, -1))
	// Outside the range.
	createReportExpense(t, db, employee, travel.ID, 7777, models.StatusApproved, now.AddDate(0, -2, 0))

	totals, err := svc.TotalsByCategory(now.AddDate(0, 0, -7), now)
	testutil.AssertNoError(t, err)

	if len(totals) != 2 {
		t.Fatalf("expected 2 category totals, got %d", len(totals))
	}
	byID := map[uint]CategoryTotal{}
	for _, ct := range totals {
		byID[ct.CategoryID] = ct
	}
	if got := byID[travel.ID]; got.Total != 15000 || got.Count != 2 {
		t.Errorf("travel: expected total 15000 over 2 expenses, got %d over %d", got.Total, got.Count)
	}
	if got := byID[meals.ID]; got.Total != 2500 || got.Count != 1 {
		t.Errorf("meals: expected total 2500 over 1 expense, got %d over %d", got.Total, got.Count)
	}
}

func TestMonthlyTrend(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReportService(db)
	employee := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db)

	year := 2025
	createReportExpense(t, db, employee, category.ID, 1000, models.StatusApproved,
		time.Date(year, time.March, 5, 0, 0, 0, 0, time.UTC))
	createReportExpense(t, db, employee, category.ID, 2000, models.StatusApproved,
		time.Date(year, time.March, 20, 0, 0, 0, 0, time.UTC))
	createReportExpense(t, db, employee, category.ID, 4000, models.StatusPaid,
		time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC))
	createReportExpense(t, db, employee, category.ID, 8000, models.StatusApproved,
		time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC))

	trend, err := svc.MonthlyTrend(year)
	testutil.AssertNoError(t, err)

	if len(trend) != 12 {
		t.Fatalf("expected 12 months, got %d", len(trend))
	}
	if trend[2].Total != 3000 {
		t.Errorf("expected March total 3000, got %d", trend[2].Total)
	}
	if trend[10].Total != 4000 {
		t.Errorf("expected November total 4000, got %d", trend[10].Total)
	}
	if trend[0].Total != 0 {
		t.Errorf("expected January empty, got %d", trend[0].Total)
	}
}

func TestExportExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReportService(db)
	employee := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db)

	now := time.Now()
	createReportExpense(t, db, employee, category.ID, 12345, models.StatusApproved, now.AddDate(0, 0, -1))
	createReportExpense(t, db, employee, category.ID, 500, models.StatusSubmitted, now.AddDate(0, 0, -1))

	data, err := svc.ExportExpenses(now.AddDate(0, 0, -7), now)
	testutil.AssertNoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("expected valid xlsx output: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Expenses")
	if err != nil {
		t.Fatalf("failed to read Expenses sheet: %v", err)
	}
	// Header plus both expenses regardless of status.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][4] != "Amount" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][4] != "123.45" {
		t.Errorf("expected formatted amount 123.45, got %q", rows[1][4])
	}
}
