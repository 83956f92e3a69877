package models

// Attachment is a stored receipt or supporting file for an expense.
// FilePath points into the attachment store and is never exposed raw
// to clients.
type Attachment struct {
	Base
	ExpenseID uint   `gorm:"not null;index" json:"expense_id"`
	FileName  string `gorm:"size:255;not null" json:"file_name"`
	FileType  string `gorm:"size:100" json:"file_type"`
	FilePath  string `gorm:"size:512;not null" json:"-"`
}
