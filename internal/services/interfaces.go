package services

import (
	"io"
	"time"

	"expenseflow/internal/models"
	"expenseflow/internal/pagination"
)

// UserServicer defines the contract for user and directory logic.
type UserServicer interface {
	Register(username, email, password, firstName, lastName string) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	// GetActor resolves a user with roles and manager preloaded, as
	// consumed by the approval engine's authorization checks.
	GetActor(id uint) (*models.User, error)
	ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	AssignRoles(userID uint, roleNames []string) (*models.User, error)
	SetManager(userID uint, managerID *uint) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// CategoryServicer defines the contract for expense category management.
type CategoryServicer interface {
	CreateCategory(name string) (*models.Category, error)
	GetCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(id uint) (*models.Category, error)
	UpdateCategory(id uint, name string) (*models.Category, error)
	DeleteCategory(id uint) error
}

// ExpenseInput carries the caller-editable fields of an expense.
type ExpenseInput struct {
	Description string
	Amount      int64
	ExpenseDate time.Time
	CategoryID  uint
}

// AttachmentInput is an uploaded file to be stored with an expense.
type AttachmentInput struct {
	FileName    string
	ContentType string
	Data        io.Reader
}

// ExpenseServicer defines the contract for expense CRUD outside the
// approval workflow.
type ExpenseServicer interface {
	Create(actorID uint, input ExpenseInput, attachments []AttachmentInput) (*models.Expense, error)
	GetByID(actorID, expenseID uint) (*models.Expense, error)
	ListForUser(actorID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	ListAll(page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	Update(actorID, expenseID uint, input ExpenseInput, attachments []AttachmentInput) (*models.Expense, error)
	Delete(actorID, expenseID uint) error
}

// ApprovalServicer is the approval workflow engine: the state machine,
// its authorization rules, and the approval-history ledger.
type ApprovalServicer interface {
	Approve(actorID, expenseID uint, comments string) (*models.Expense, error)
	Reject(actorID, expenseID uint, comments string) (*models.Expense, error)
	GetPendingApprovals(actorID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	GetApprovalHistory(actorID, expenseID uint) ([]models.ApprovalHistory, error)
}

// AuditServicer defines the contract for audit logging. LogAction must
// never fail the caller.
type AuditServicer interface {
	LogAction(username, action, entityName string, entityID uint, details string)
	GetAuditLogs(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}

// Notifier delivers best-effort notifications; implementations swallow
// and log delivery failures.
type Notifier interface {
	NotifySubmission(expense *models.Expense, manager *models.User)
	NotifyStatusChange(expense *models.Expense, message string)
}

// CategoryTotal aggregates approved spend for one category.
type CategoryTotal struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Total        int64  `json:"total"`
	Count        int64  `json:"count"`
}

// MonthlyTotal aggregates approved spend for one month of a year.
type MonthlyTotal struct {
	Month int   `json:"month"`
	Total int64 `json:"total"`
}

// ReportServicer defines the contract for reporting and export.
type ReportServicer interface {
	TotalsByCategory(from, to time.Time) ([]CategoryTotal, error)
	MonthlyTrend(year int) ([]MonthlyTotal, error)
	ExportExpenses(from, to time.Time) ([]byte, error)
}
