package models

import "time"

// ExpenseStatus represents where an expense sits in the approval workflow.
type ExpenseStatus string

const (
	StatusSubmitted              ExpenseStatus = "SUBMITTED"
	StatusPendingFinanceApproval ExpenseStatus = "PENDING_FINANCE_APPROVAL"
	StatusApproved               ExpenseStatus = "APPROVED"
	StatusRejected               ExpenseStatus = "REJECTED"
	// StatusPaid is set by an external payout process, never by the
	// approval engine. It blocks any further edits or transitions.
	StatusPaid ExpenseStatus = "PAID"
)

// Editable reports whether an expense in this status may still be
// updated or deleted by its owner.
func (s ExpenseStatus) Editable() bool {
	return s != StatusApproved && s != StatusPaid
}

// Expense represents an employee expense claim.
// Amount is in minor currency units (cents).
type Expense struct {
	Base
	UserID      uint          `gorm:"not null;index" json:"user_id"`
	CategoryID  uint          `gorm:"not null;index" json:"category_id"`
	Description string        `gorm:"not null" json:"description"`
	Amount      int64         `gorm:"type:bigint;not null" json:"amount"`
	ExpenseDate time.Time     `gorm:"not null" json:"expense_date"`
	Status      ExpenseStatus `gorm:"type:varchar(50);not null;default:SUBMITTED;index" json:"status"`

	// Relationships
	User        User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category    Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:ExpenseID" json:"attachments,omitempty"`
}
