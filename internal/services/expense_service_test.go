package services

import (
	"os"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"expenseflow/internal/config"
	"expenseflow/internal/dispatch"
	"expenseflow/internal/models"
	"expenseflow/internal/pagination"
	"expenseflow/internal/storage"
	"expenseflow/internal/testutil"
)

type expenseTestEnv struct {
	db         *gorm.DB
	svc        ExpenseServicer
	dispatcher *dispatch.Dispatcher
	storageDir string
}

func setupExpenseTest(t *testing.T) *expenseTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	storageDir := t.TempDir()
	store, err := storage.NewLocalStore(storageDir)
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}

	dispatcher := dispatch.New(16, 1)
	users := NewUserService(db)
	audit := NewAuditService(db)
	notifier := NewNotificationService(&config.Config{SMTPEnabled: false})
	svc := NewExpenseService(db, users, store, audit, notifier, dispatcher)
	return &expenseTestEnv{db: db, svc: svc, dispatcher: dispatcher, storageDir: storageDir}
}

func validInput(t *testing.T, db *gorm.DB) ExpenseInput {
	t.Helper()
	category := testutil.CreateTestCategory(t, db)
	return ExpenseInput{
		Description: "Team lunch",
		Amount:      2500,
		ExpenseDate: time.Now().Add(-time.Hour),
		CategoryID:  category.ID,
	}
}

func TestCreateExpense(t *testing.T) {
	t.Run("starts_submitted", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)

		expense, err := env.svc.Create(employee.ID, validInput(t, env.db), nil)
		testutil.AssertNoError(t, err)

		if expense.Status != models.StatusSubmitted {
			t.Errorf("expected status SUBMITTED, got %s", expense.Status)
		}
		if expense.UserID != employee.ID {
			t.Errorf("expected owner %d, got %d", employee.ID, expense.UserID)
		}
	})

	t.Run("stores_attachments", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)

		attachments := []AttachmentInput{
			{FileName: "receipt.pdf", ContentType: "application/pdf", Data: strings.NewReader("pdf bytes")},
			{FileName: "photo.jpg", ContentType: "image/jpeg", Data: strings.NewReader("jpg bytes")},
		}
		expense, err := env.svc.Create(employee.ID, validInput(t, env.db), attachments)
		testutil.AssertNoError(t, err)

		if len(expense.Attachments) != 2 {
			t.Fatalf("expected 2 attachments, got %d", len(expense.Attachments))
		}
		for _, att := range expense.Attachments {
			if _, statErr := os.Stat(att.FilePath); statErr != nil {
				t.Errorf("expected stored file at %s: %v", att.FilePath, statErr)
			}
		}
	})

	t.Run("validation_failures", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		base := validInput(t, env.db)

		cases := []struct {
			name   string
			mutate func(*ExpenseInput)
		}{
			{"empty_description", func(in *ExpenseInput) { in.Description = "  " }},
			{"zero_amount", func(in *ExpenseInput) { in.Amount = 0 }},
			{"negative_amount", func(in *ExpenseInput) { in.Amount = -100 }},
			{"future_date", func(in *ExpenseInput) { in.ExpenseDate = time.Now().Add(48 * time.Hour) }},
			{"missing_category", func(in *ExpenseInput) { in.CategoryID = 0 }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				input := base
				tc.mutate(&input)
				_, err := env.svc.Create(employee.ID, input, nil)
				testutil.AssertAppError(t, err, "INVALID_INPUT")
			})
		}
	})

	t.Run("unknown_category", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		input := validInput(t, env.db)
		input.CategoryID = 99999

		_, err := env.svc.Create(employee.ID, input, nil)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("writes_audit_entry", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)

		_, err := env.svc.Create(employee.ID, validInput(t, env.db), nil)
		testutil.AssertNoError(t, err)
		env.dispatcher.Close()

		var count int64
		env.db.Model(&models.AuditLog{}).Where("action = ?", "EXPENSE_CREATED").Count(&count)
		if count != 1 {
			t.Errorf("expected 1 EXPENSE_CREATED audit entry, got %d", count)
		}
	})
}

func TestGetExpenseByID(t *testing.T) {
	t.Run("owner_can_view", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusSubmitted)

		got, err := env.svc.GetByID(employee.ID, expense.ID)
		testutil.AssertNoError(t, err)
		if got.ID != expense.ID {
			t.Errorf("expected expense %d, got %d", expense.ID, got.ID)
		}
	})

	t.Run("direct_manager_can_view", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		manager := testutil.CreateTestUser(t, env.db, models.RoleManager)
		testutil.SetTestManager(t, env.db, employee, manager)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusSubmitted)

		_, err := env.svc.GetByID(manager.ID, expense.ID)
		testutil.AssertNoError(t, err)
	})

	t.Run("admin_can_view", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		admin := testutil.CreateTestUser(t, env.db, models.RoleAdmin)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusSubmitted)

		_, err := env.svc.GetByID(admin.ID, expense.ID)
		testutil.AssertNoError(t, err)
	})

	t.Run("unrelated_user_cannot_view", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		other := testutil.CreateTestUser(t, env.db)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusSubmitted)

		_, err := env.svc.GetByID(other.ID, expense.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("missing_expense", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)

		_, err := env.svc.GetByID(employee.ID, 99999)
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})
}

func TestListExpenses(t *testing.T) {
	t.Run("list_for_user_scopes_to_owner", func(t *testing.T) {
		env := setupExpenseTest(t)
		alice := testutil.CreateTestUser(t, env.db)
		bob := testutil.CreateTestUser(t, env.db)
		testutil.CreateTestExpense(t, env.db, alice, 1000, models.StatusSubmitted)
		testutil.CreateTestExpense(t, env.db, alice, 2000, models.StatusApproved)
		testutil.CreateTestExpense(t, env.db, bob, 3000, models.StatusSubmitted)

		result, err := env.svc.ListForUser(alice.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 expenses for alice, got %d", result.TotalItems)
		}
	})

	t.Run("list_all_sees_everything", func(t *testing.T) {
		env := setupExpenseTest(t)
		alice := testutil.CreateTestUser(t, env.db)
		bob := testutil.CreateTestUser(t, env.db)
		testutil.CreateTestExpense(t, env.db, alice, 1000, models.StatusSubmitted)
		testutil.CreateTestExpense(t, env.db, bob, 3000, models.StatusSubmitted)

		result, err := env.svc.ListAll(pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 expenses in total, got %d", result.TotalItems)
		}
	})

	t.Run("pagination_limits_page_size", func(t *testing.T) {
		env := setupExpenseTest(t)
		alice := testutil.CreateTestUser(t, env.db)
		for i := 0; i < 5; i++ {
			testutil.CreateTestExpense(t, env.db, alice, 1000, models.StatusSubmitted)
		}

		result, err := env.svc.ListForUser(alice.ID, pagination.PageRequest{Page: 1, PageSize: 2})
		testutil.AssertNoError(t, err)
		if len(result.Data) != 2 {
			t.Errorf("expected 2 items on page, got %d", len(result.Data))
		}
		if result.TotalItems != 5 {
			t.Errorf("expected total 5, got %d", result.TotalItems)
		}
		if result.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", result.TotalPages)
		}
	})
}

func TestUpdateExpense(t *testing.T) {
	t.Run("owner_updates_submitted", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusSubmitted)

		input := validInput(t, env.db)
		input.Amount = 4200
		updated, err := env.svc.Update(employee.ID, expense.ID, input, nil)
		testutil.AssertNoError(t, err)

		if updated.Amount != 4200 {
			t.Errorf("expected amount 4200, got %d", updated.Amount)
		}
		if updated.Status != models.StatusSubmitted {
			t.Errorf("expected status SUBMITTED, got %s", updated.Status)
		}
	})

	t.Run("editing_rejected_resubmits", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusRejected)

		updated, err := env.svc.Update(employee.ID, expense.ID, validInput(t, env.db), nil)
		testutil.AssertNoError(t, err)

		if updated.Status != models.StatusSubmitted {
			t.Errorf("expected rejected expense to resubmit as SUBMITTED, got %s", updated.Status)
		}
	})

	t.Run("pending_finance_keeps_status", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		expense := testutil.CreateTestExpense(t, env.db, employee, 9000, models.StatusPendingFinanceApproval)

		updated, err := env.svc.Update(employee.ID, expense.ID, validInput(t, env.db), nil)
		testutil.AssertNoError(t, err)

		if updated.Status != models.StatusPendingFinanceApproval {
			t.Errorf("expected status unchanged, got %s", updated.Status)
		}
	})

	t.Run("approved_is_immutable", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)

		for _, status := range []models.ExpenseStatus{models.StatusApproved, models.StatusPaid} {
			expense := testutil.CreateTestExpense(t, env.db, employee, 3000, status)
			_, err := env.svc.Update(employee.ID, expense.ID, validInput(t, env.db), nil)
			testutil.AssertAppError(t, err, "INVALID_EXPENSE_STATE")
		}
	})

	t.Run("non_owner_cannot_update", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		other := testutil.CreateTestUser(t, env.db)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusSubmitted)

		_, err := env.svc.Update(other.ID, expense.ID, validInput(t, env.db), nil)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestDeleteExpense(t *testing.T) {
	t.Run("owner_deletes_with_attachments", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)

		attachments := []AttachmentInput{
			{FileName: "receipt.pdf", ContentType: "application/pdf", Data: strings.NewReader("pdf bytes")},
		}
		expense, err := env.svc.Create(employee.ID, validInput(t, env.db), attachments)
		testutil.AssertNoError(t, err)
		filePath := expense.Attachments[0].FilePath

		err = env.svc.Delete(employee.ID, expense.ID)
		testutil.AssertNoError(t, err)

		if _, statErr := os.Stat(filePath); !os.IsNotExist(statErr) {
			t.Errorf("expected attachment file removed, stat returned %v", statErr)
		}
		var count int64
		env.db.Model(&models.Expense{}).Where("id = ?", expense.ID).Count(&count)
		if count != 0 {
			t.Error("expected expense hidden after soft delete")
		}
	})

	t.Run("approved_cannot_be_deleted", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusApproved)

		err := env.svc.Delete(employee.ID, expense.ID)
		testutil.AssertAppError(t, err, "INVALID_EXPENSE_STATE")
	})

	t.Run("non_owner_cannot_delete", func(t *testing.T) {
		env := setupExpenseTest(t)
		employee := testutil.CreateTestUser(t, env.db)
		other := testutil.CreateTestUser(t, env.db)
		expense := testutil.CreateTestExpense(t, env.db, employee, 3000, models.StatusSubmitted)

		err := env.svc.Delete(other.ID, expense.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}
