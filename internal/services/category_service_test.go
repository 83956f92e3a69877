package services

import (
	"testing"

	"expenseflow/internal/models"
	"expenseflow/internal/pagination"
	"expenseflow/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("creates_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		category, err := svc.CreateCategory("Travel")
		testutil.AssertNoError(t, err)
		if category.Name != "Travel" {
			t.Errorf("expected name Travel, got %s", category.Name)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory("Meals")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory("Meals")
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("blank_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory("   ")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("renames", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		category := testutil.CreateTestCategory(t, db)

		updated, err := svc.UpdateCategory(category.ID, "Office Supplies")
		testutil.AssertNoError(t, err)
		if updated.Name != "Office Supplies" {
			t.Errorf("expected renamed category, got %s", updated.Name)
		}
	})

	t.Run("name_taken", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		a := testutil.CreateTestCategory(t, db)
		b := testutil.CreateTestCategory(t, db)

		_, err := svc.UpdateCategory(b.ID, a.Name)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("missing_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.UpdateCategory(99999, "Ghost")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("deletes_unused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		category := testutil.CreateTestCategory(t, db)

		err := svc.DeleteCategory(category.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetCategoryByID(category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("refuses_when_in_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		employee := testutil.CreateTestUser(t, db)
		expense := testutil.CreateTestExpense(t, db, employee, 3000, models.StatusSubmitted)

		err := svc.DeleteCategory(expense.CategoryID)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
	})
}

func TestGetCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	testutil.CreateTestCategory(t, db)
	testutil.CreateTestCategory(t, db)

	result, err := svc.GetCategories(pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Errorf("expected 2 categories, got %d", result.TotalItems)
	}
}
