package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "expenseflow/internal/errors"
	"expenseflow/internal/services"
)

// ReportHandler handles finance reporting requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// parseDateRange reads the from/to query parameters, defaulting to the
// last 30 days when absent.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if v := c.Query("from"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from date, use RFC3339 or YYYY-MM-DD")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to date, use RFC3339 or YYYY-MM-DD")
		}
		to = t
	}
	if to.Before(from) {
		return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "to date must not be before from date")
	}
	return from, to, nil
}

// GetCategoryTotals handles the spend-by-category report
// @Summary     Spend by category
// @Description Get total approved spend per category over a date range. Finance and admin only.
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Range start (RFC3339 or YYYY-MM-DD, default 30 days ago)"
// @Param       to   query string false "Range end (RFC3339 or YYYY-MM-DD, default now)"
// @Success     200 {array} services.CategoryTotal "Per-category totals"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/by-category [get]
func (h *ReportHandler) GetCategoryTotals(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reportService.TotalsByCategory(from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals, "from": from, "to": to})
}

// GetMonthlyTrend handles the monthly spend trend report
// @Summary     Monthly spend trend
// @Description Get total approved spend per month for a year. Finance and admin only.
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (default current year)"
// @Success     200 {array} services.MonthlyTotal "Per-month totals"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly [get]
func (h *ReportHandler) GetMonthlyTrend(c *gin.Context) {
	year, err := parseQueryInt(c, "year", time.Now().Year())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if year < 2000 || year > 2100 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid year"))
		return
	}

	trend, err := h.reportService.MonthlyTrend(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "trend": trend})
}

// ExportExpenses handles the xlsx expense export
// @Summary     Export expenses
// @Description Download all expenses in a date range as an xlsx spreadsheet. Finance and admin only.
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       from query string false "Range start (RFC3339 or YYYY-MM-DD, default 30 days ago)"
// @Param       to   query string false "Range end (RFC3339 or YYYY-MM-DD, default now)"
// @Success     200 {file} binary "xlsx spreadsheet"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/export [get]
func (h *ReportHandler) ExportExpenses(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := h.reportService.ExportExpenses(from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("expenses_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
