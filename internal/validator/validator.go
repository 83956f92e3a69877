// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"expenseflow/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("expense_status", validateExpenseStatus)
		_ = v.RegisterValidation("role_name", validateRoleName)
	}
}

func validateExpenseStatus(fl validator.FieldLevel) bool {
	switch models.ExpenseStatus(fl.Field().String()) {
	case models.StatusSubmitted, models.StatusPendingFinanceApproval,
		models.StatusApproved, models.StatusRejected, models.StatusPaid:
		return true
	}
	return false
}

func validateRoleName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	for _, r := range models.AllRoles {
		if r == name {
			return true
		}
	}
	return false
}
