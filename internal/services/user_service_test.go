package services

import (
	"testing"

	"expenseflow/internal/models"
	"expenseflow/internal/pagination"
	"expenseflow/internal/testutil"
)

func TestRegister(t *testing.T) {
	t.Run("creates_employee", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.Register("jdoe", "JDoe@Example.com", "password123", "Jane", "Doe")
		testutil.AssertNoError(t, err)

		if user.Email != "jdoe@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
		if !user.HasRole(models.RoleEmployee) {
			t.Error("expected new user to hold EMPLOYEE role")
		}
		if user.Password == "password123" {
			t.Error("expected password to be hashed")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.Register("first", "same@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.Register("second", "same@example.com", "password123", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("duplicate_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.Register("same", "first@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.Register("same", "second@example.com", "password123", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_USERNAME")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.Register("", "x@example.com", "password123", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("by_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db, models.RoleManager)

		got, err := svc.AttemptLogin(user.Username, "password123")
		testutil.AssertNoError(t, err)
		if got.ID != user.ID {
			t.Errorf("expected user %d, got %d", user.ID, got.ID)
		}
		if !got.HasRole(models.RoleManager) {
			t.Error("expected roles preloaded on login")
		}
	})

	t.Run("by_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.AttemptLogin(user.Email, "password123")
		testutil.AssertNoError(t, err)
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.AttemptLogin(user.Username, "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.AttemptLogin("ghost", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestAssignRoles(t *testing.T) {
	t.Run("replaces_role_set", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		updated, err := svc.AssignRoles(user.ID, []string{models.RoleManager, models.RoleFinance})
		testutil.AssertNoError(t, err)

		if !updated.HasRole(models.RoleManager) || !updated.HasRole(models.RoleFinance) {
			t.Errorf("expected MANAGER and FINANCE, got %v", updated.RoleNames())
		}
		if updated.HasRole(models.RoleEmployee) {
			t.Error("expected EMPLOYEE role replaced, not merged")
		}
	})

	t.Run("unknown_role", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.AssignRoles(user.ID, []string{"SUPERUSER"})
		testutil.AssertAppError(t, err, "UNKNOWN_ROLE")
	})

	t.Run("empty_role_set", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.AssignRoles(user.ID, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestSetManager(t *testing.T) {
	t.Run("assigns_and_clears", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		employee := testutil.CreateTestUser(t, db)
		manager := testutil.CreateTestUser(t, db, models.RoleManager)

		updated, err := svc.SetManager(employee.ID, &manager.ID)
		testutil.AssertNoError(t, err)
		if updated.ManagerID == nil || *updated.ManagerID != manager.ID {
			t.Error("expected manager assigned")
		}

		updated, err = svc.SetManager(employee.ID, nil)
		testutil.AssertNoError(t, err)
		if updated.ManagerID != nil {
			t.Error("expected manager cleared")
		}
	})

	t.Run("self_assignment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.SetManager(user.ID, &user.ID)
		testutil.AssertAppError(t, err, "SELF_MANAGER")
	})

	t.Run("unknown_manager", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)
		ghost := uint(99999)

		_, err := svc.SetManager(user.ID, &ghost)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	err := svc.StoreRefreshTokenHash(user.ID, "abc123")
	testutil.AssertNoError(t, err)

	hash, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if hash != "abc123" {
		t.Errorf("expected stored hash, got %q", hash)
	}
}

func TestListUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	testutil.CreateTestUser(t, db)
	testutil.CreateTestUser(t, db)

	result, err := svc.ListUsers(pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Errorf("expected 2 users, got %d", result.TotalItems)
	}
}
