package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	apperrors "expenseflow/internal/errors"
	"expenseflow/internal/models"
)

// reportService aggregates approved spend for finance reporting.
// Aggregation happens in Go rather than dialect-specific SQL so the
// same queries run on postgres and the sqlite test database.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// reportableStatuses are the statuses that count as real spend.
var reportableStatuses = []models.ExpenseStatus{models.StatusApproved, models.StatusPaid}

// TotalsByCategory sums approved spend per category over a date range.
func (s *reportService) TotalsByCategory(from, to time.Time) ([]CategoryTotal, error) {
	var expenses []models.Expense
	if err := s.db.Preload("Category").
		Where("status IN ? AND expense_date >= ? AND expense_date <= ?", reportableStatuses, from, to).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make(map[uint]*CategoryTotal)
	order := make([]uint, 0)
	for _, e := range expenses {
		t, ok := totals[e.CategoryID]
		if !ok {
			t = &CategoryTotal{CategoryID: e.CategoryID, CategoryName: e.Category.Name}
			totals[e.CategoryID] = t
			order = append(order, e.CategoryID)
		}
		t.Total += e.Amount
		t.Count++
	}

	result := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		result = append(result, *totals[id])
	}
	return result, nil
}

// MonthlyTrend sums approved spend per month of the given year.
func (s *reportService) MonthlyTrend(year int) ([]MonthlyTotal, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Second)

	var expenses []models.Expense
	if err := s.db.
		Where("status IN ? AND expense_date >= ? AND expense_date <= ?", reportableStatuses, start, end).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make([]MonthlyTotal, 12)
	for i := range result {
		result[i].Month = i + 1
	}
	for _, e := range expenses {
		result[int(e.ExpenseDate.Month())-1].Total += e.Amount
	}
	return result, nil
}

// ExportExpenses renders all expenses in a date range as an xlsx sheet.
func (s *reportService) ExportExpenses(from, to time.Time) ([]byte, error) {
	var expenses []models.Expense
	if err := s.db.Preload("User").Preload("Category").
		Where("expense_date >= ? AND expense_date <= ?", from, to).
		Order("expense_date ASC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	headers := []string{"ID", "Employee", "Description", "Category", "Amount", "Expense Date", "Status", "Submitted At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	for row, e := range expenses {
		values := []interface{}{
			e.ID,
			e.User.Username,
			e.Description,
			e.Category.Name,
			fmt.Sprintf("%.2f", float64(e.Amount)/100),
			e.ExpenseDate.Format("2006-01-02"),
			string(e.Status),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}
