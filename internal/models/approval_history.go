package models

import "time"

// ApprovalHistory is one entry in the append-only approval ledger.
// Entries are created exactly once per successful transition and are
// never updated or deleted; no code path exposes a mutation.
type ApprovalHistory struct {
	Base
	ExpenseID    uint          `gorm:"not null;index" json:"expense_id"`
	ApproverID   uint          `gorm:"not null" json:"approver_id"`
	StatusBefore ExpenseStatus `gorm:"type:varchar(50)" json:"status_before"`
	StatusAfter  ExpenseStatus `gorm:"type:varchar(50);not null" json:"status_after"`
	Comments     string        `gorm:"type:text" json:"comments,omitempty"`
	ActionDate   time.Time     `gorm:"not null;index" json:"action_date"`

	Approver User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}
