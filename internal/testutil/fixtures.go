package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"expenseflow/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user holding the given roles, with a
// hashed password and unique username/email. With no roles it is a plain
// employee.
func CreateTestUser(t *testing.T, db *gorm.DB, roleNames ...string) *models.User {
	t.Helper()

	if len(roleNames) == 0 {
		roleNames = []string{models.RoleEmployee}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Username:  fmt.Sprintf("user%d", n),
		Email:     fmt.Sprintf("user%d@test.com", n),
		Password:  string(hash),
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", n),
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	var roles []models.Role
	if err := db.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
		t.Fatalf("failed to load roles: %v", err)
	}
	if len(roles) != len(roleNames) {
		t.Fatalf("expected %d roles, found %d", len(roleNames), len(roles))
	}
	if err := db.Model(user).Association("Roles").Replace(roles); err != nil {
		t.Fatalf("failed to assign roles: %v", err)
	}
	user.Roles = roles

	return user
}

// SetTestManager wires user under manager in the reporting chain.
func SetTestManager(t *testing.T, db *gorm.DB, user, manager *models.User) {
	t.Helper()

	if err := db.Model(user).Update("manager_id", manager.ID).Error; err != nil {
		t.Fatalf("failed to set manager: %v", err)
	}
	user.ManagerID = &manager.ID
	user.Manager = manager
}

// CreateTestCategory creates a category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	category := &models.Category{
		Name: fmt.Sprintf("Test Category %d", nextID()),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an expense for the owner in the given status.
func CreateTestExpense(t *testing.T, db *gorm.DB, owner *models.User, amount int64, status models.ExpenseStatus) *models.Expense {
	t.Helper()

	category := CreateTestCategory(t, db)
	expense := &models.Expense{
		UserID:      owner.ID,
		CategoryID:  category.ID,
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		Amount:      amount,
		ExpenseDate: time.Now().Add(-24 * time.Hour),
		Status:      status,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	expense.User = *owner
	expense.Category = *category
	return expense
}
