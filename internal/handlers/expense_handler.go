package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "expenseflow/internal/errors"
	"expenseflow/internal/pagination"
	"expenseflow/internal/services"
)

// maxAttachmentSize bounds a single uploaded receipt.
const maxAttachmentSize = 10 << 20 // 10 MiB

// ExpenseHandler handles expense CRUD requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseForm represents the multipart form fields for creating or
// updating an expense. Receipt files ride alongside under "attachments".
type ExpenseForm struct {
	Description string `form:"description" binding:"required,max=500"`
	Amount      int64  `form:"amount" binding:"required,gt=0"`
	ExpenseDate string `form:"expense_date" binding:"required"`
	CategoryID  uint   `form:"category_id" binding:"required"`
}

func parseExpenseForm(c *gin.Context) (services.ExpenseInput, []services.AttachmentInput, []multipart.File, error) {
	var form ExpenseForm
	if err := c.ShouldBind(&form); err != nil {
		return services.ExpenseInput{}, nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	expenseDate, err := parseFlexibleTime(form.ExpenseDate)
	if err != nil {
		return services.ExpenseInput{}, nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"invalid expense_date format, use RFC3339 or YYYY-MM-DD")
	}

	input := services.ExpenseInput{
		Description: form.Description,
		Amount:      form.Amount,
		ExpenseDate: expenseDate,
		CategoryID:  form.CategoryID,
	}

	var attachments []services.AttachmentInput
	var opened []multipart.File
	if mpForm, formErr := c.MultipartForm(); formErr == nil && mpForm != nil {
		for _, header := range mpForm.File["attachments"] {
			if header.Size > maxAttachmentSize {
				closeAll(opened)
				return services.ExpenseInput{}, nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
					"attachment exceeds maximum size of 10 MiB")
			}
			file, openErr := header.Open()
			if openErr != nil {
				closeAll(opened)
				return services.ExpenseInput{}, nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, openErr)
			}
			opened = append(opened, file)
			attachments = append(attachments, services.AttachmentInput{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        file,
			})
		}
	}

	return input, attachments, opened, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}

// CreateExpense handles the submission of a new expense claim
// @Summary     Submit an expense
// @Description Submit a new expense claim with optional receipt attachments. The expense starts in SUBMITTED status.
// @Tags        expenses
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       description  formData string true  "Expense description"
// @Param       amount       formData int    true  "Amount in cents"
// @Param       expense_date formData string true  "Expense date (RFC3339 or YYYY-MM-DD)"
// @Param       category_id  formData int    true  "Category ID"
// @Param       attachments  formData file   false "Receipt files"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, attachments, opened, err := parseExpenseForm(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer closeAll(opened)

	expense, err := h.expenseService.Create(userID, input, attachments)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetMyExpenses handles listing the authenticated user's expenses
// @Summary     List my expenses
// @Description Get a paginated list of the authenticated user's expenses, newest first
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetMyExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.expenseService.ListForUser(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAllExpenses handles listing every expense in the system
// @Summary     List all expenses
// @Description Get a paginated list of all expenses across all users. Admin only.
// @Tags        expenses,admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/expenses [get]
func (h *ExpenseHandler) GetAllExpenses(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.expenseService.ListAll(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpenseByID handles the retrieval of a single expense
// @Summary     Get expense by ID
// @Description Get a specific expense. Visible to the owner, the owner's direct manager, and admins.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {object} models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpenseByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense handles updating an existing expense
// @Summary     Update expense
// @Description Update an expense that has not been finally approved. Editing a rejected expense resubmits it.
// @Tags        expenses
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id           path     int    true  "Expense ID"
// @Param       description  formData string true  "Expense description"
// @Param       amount       formData int    true  "Amount in cents"
// @Param       expense_date formData string true  "Expense date (RFC3339 or YYYY-MM-DD)"
// @Param       category_id  formData int    true  "Category ID"
// @Param       attachments  formData file   false "Additional receipt files"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input or non-editable expense"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, attachments, opened, err := parseExpenseForm(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer closeAll(opened)

	expense, err := h.expenseService.Update(userID, expenseID, input, attachments)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense handles the deletion of an expense
// @Summary     Delete expense
// @Description Delete an expense that has not been finally approved, including its stored attachments
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid expense ID or non-editable expense"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.Delete(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// parseQueryInt reads an optional integer query parameter.
func parseQueryInt(c *gin.Context, name string, defaultValue int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+name)
	}
	return n, nil
}
