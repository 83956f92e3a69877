package models

// Category is an expense category managed by administrators.
type Category struct {
	Base
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`

	Expenses []Expense `gorm:"foreignKey:CategoryID" json:"-"`
}
