package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"expenseflow/internal/dispatch"
	apperrors "expenseflow/internal/errors"
	"expenseflow/internal/logger"
	"expenseflow/internal/models"
	"expenseflow/internal/pagination"
	"expenseflow/internal/storage"
)

// expenseService handles expense CRUD around the approval workflow.
type expenseService struct {
	db         *gorm.DB
	users      UserServicer
	store      storage.Store
	audit      AuditServicer
	notifier   Notifier
	dispatcher *dispatch.Dispatcher
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, users UserServicer, store storage.Store, audit AuditServicer, notifier Notifier, dispatcher *dispatch.Dispatcher) ExpenseServicer {
	return &expenseService{
		db:         db,
		users:      users,
		store:      store,
		audit:      audit,
		notifier:   notifier,
		dispatcher: dispatcher,
	}
}

func validateExpenseInput(input ExpenseInput) error {
	if strings.TrimSpace(input.Description) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if input.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.ExpenseDate.After(time.Now()) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "expense date cannot be in the future")
	}
	if input.CategoryID == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	return nil
}

// Create submits a new expense claim with optional attachments. The
// initial status is always SUBMITTED.
func (s *expenseService) Create(actorID uint, input ExpenseInput, attachments []AttachmentInput) (*models.Expense, error) {
	if err := validateExpenseInput(input); err != nil {
		return nil, err
	}

	actor, err := s.users.GetActor(actorID)
	if err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&models.Category{}).Where("id = ?", input.CategoryID).Count(&count)
	if count == 0 {
		return nil, apperrors.ErrCategoryNotFound
	}

	expense := &models.Expense{
		UserID:      actor.ID,
		CategoryID:  input.CategoryID,
		Description: input.Description,
		Amount:      input.Amount,
		ExpenseDate: input.ExpenseDate,
		Status:      models.StatusSubmitted,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(expense).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return s.storeAttachments(tx, expense, actor.ID, attachments)
	})
	if err != nil {
		return nil, err
	}
	expense.User = *actor

	s.dispatcher.Submit(func() {
		s.audit.LogAction(actor.Username, "EXPENSE_CREATED", "Expense", expense.ID,
			fmt.Sprintf("Amount: %d, Desc: %s", expense.Amount, expense.Description))
	})
	if actor.Manager != nil {
		snapshot := *expense
		manager := *actor.Manager
		s.dispatcher.Submit(func() {
			s.notifier.NotifySubmission(&snapshot, &manager)
		})
	} else {
		logger.Get().Warnw("no manager to notify for new expense",
			"expense_id", expense.ID, "user_id", actor.ID)
	}

	return expense, nil
}

// GetByID returns an expense visible to the actor (owner, their direct
// manager, or an admin).
func (s *expenseService) GetByID(actorID, expenseID uint) (*models.Expense, error) {
	actor, err := s.users.GetActor(actorID)
	if err != nil {
		return nil, err
	}

	var expense models.Expense
	if err := s.db.Preload("User").Preload("Category").Preload("Attachments").
		First(&expense, expenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !canViewExpense(actor, &expense) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "you are not authorized to view this expense")
	}
	return &expense, nil
}

// ListForUser returns the actor's own expenses, newest first.
func (s *expenseService) ListForUser(actorID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("user_id = ?", actorID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Preload("Category").Preload("Attachments").
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListAll returns every expense; callers gate this to admins.
func (s *expenseService) ListAll(page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Expense{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := s.db.Preload("User").Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Update edits an expense that is still editable. Editing a REJECTED or
// SUBMITTED expense re-queues it as SUBMITTED; that implicit transition
// is not ledgered, only explicit approve/reject actions are.
func (s *expenseService) Update(actorID, expenseID uint, input ExpenseInput, attachments []AttachmentInput) (*models.Expense, error) {
	if err := validateExpenseInput(input); err != nil {
		return nil, err
	}

	actor, err := s.users.GetActor(actorID)
	if err != nil {
		return nil, err
	}

	var expense models.Expense
	if err := s.db.Preload("Attachments").First(&expense, expenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !isOwner(actor, &expense) && !hasRole(actor, models.RoleAdmin) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "you are not authorized to update this expense")
	}
	if !expense.Status.Editable() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidExpenseState,
			fmt.Sprintf("cannot update an expense that is already %s", expense.Status))
	}

	var count int64
	s.db.Model(&models.Category{}).Where("id = ?", input.CategoryID).Count(&count)
	if count == 0 {
		return nil, apperrors.ErrCategoryNotFound
	}

	expense.Description = input.Description
	expense.Amount = input.Amount
	expense.ExpenseDate = input.ExpenseDate
	expense.CategoryID = input.CategoryID
	if expense.Status == models.StatusRejected || expense.Status == models.StatusSubmitted {
		expense.Status = models.StatusSubmitted
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Save(&expense).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return s.storeAttachments(tx, &expense, expense.UserID, attachments)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Submit(func() {
		s.audit.LogAction(actor.Username, "EXPENSE_UPDATED", "Expense", expense.ID, "Updated expense details")
	})

	return &expense, nil
}

// Delete removes an expense that has not reached APPROVED or PAID and
// cascade-removes its stored attachment files.
func (s *expenseService) Delete(actorID, expenseID uint) error {
	actor, err := s.users.GetActor(actorID)
	if err != nil {
		return err
	}

	var expense models.Expense
	if err := s.db.Preload("Attachments").First(&expense, expenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrExpenseNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !isOwner(actor, &expense) && !hasRole(actor, models.RoleAdmin) {
		return apperrors.WithMessage(apperrors.ErrForbidden, "you are not authorized to delete this expense")
	}
	if !expense.Status.Editable() {
		return apperrors.WithMessage(apperrors.ErrInvalidExpenseState,
			fmt.Sprintf("cannot delete an expense that is already %s", expense.Status))
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(expense.Attachments) > 0 {
			if txErr := tx.Delete(&models.Attachment{}, "expense_id = ?", expense.ID).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}
		if txErr := tx.Delete(&expense).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, att := range expense.Attachments {
		if delErr := s.store.Delete(att.FilePath); delErr != nil {
			logger.Get().Errorw("failed to delete attachment file",
				"expense_id", expense.ID, "path", att.FilePath, "error", delErr)
		}
	}

	s.dispatcher.Submit(func() {
		s.audit.LogAction(actor.Username, "EXPENSE_DELETED", "Expense", expenseID, "Expense deleted")
	})

	return nil
}

// storeAttachments saves uploads and records their metadata rows.
func (s *expenseService) storeAttachments(tx *gorm.DB, expense *models.Expense, ownerID uint, attachments []AttachmentInput) error {
	for _, att := range attachments {
		subdir := fmt.Sprintf("user_%d/expense_%d", ownerID, expense.ID)
		path, err := s.store.Save(subdir, att.FileName, att.Data)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		row := &models.Attachment{
			ExpenseID: expense.ID,
			FileName:  att.FileName,
			FileType:  att.ContentType,
			FilePath:  path,
		}
		if err := tx.Create(row).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		expense.Attachments = append(expense.Attachments, *row)
	}
	return nil
}
