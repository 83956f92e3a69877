package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"expenseflow/internal/dispatch"
	apperrors "expenseflow/internal/errors"
	"expenseflow/internal/models"
	"expenseflow/internal/pagination"
)

// autoApprovalThreshold is the amount (minor units) at or below which a
// manager approval of a SUBMITTED expense is immediately final.
const autoApprovalThreshold int64 = 5000 // 50.00

const autoApprovalNote = "[Auto-approved: amount under threshold]"

// maxCommentLength bounds free-text approval/rejection comments.
const maxCommentLength = 1000

// approvalService is the workflow engine: it owns the expense status
// state machine, the per-status authorization rules, and the
// append-only approval-history ledger.
type approvalService struct {
	db         *gorm.DB
	users      UserServicer
	audit      AuditServicer
	notifier   Notifier
	dispatcher *dispatch.Dispatcher
}

// NewApprovalService creates a new ApprovalServicer.
func NewApprovalService(db *gorm.DB, users UserServicer, audit AuditServicer, notifier Notifier, dispatcher *dispatch.Dispatcher) ApprovalServicer {
	return &approvalService{
		db:         db,
		users:      users,
		audit:      audit,
		notifier:   notifier,
		dispatcher: dispatcher,
	}
}

// transitionRule gates approve/reject actions for one current status.
// Both operations share the same eligibility per status; only the
// resulting status differs.
type transitionRule struct {
	canAct func(actor, owner *models.User) bool
	deny   string
}

var transitionRules = map[models.ExpenseStatus]transitionRule{
	models.StatusSubmitted: {
		canAct: func(actor, owner *models.User) bool {
			return (isDirectManagerOf(actor, owner) || hasRole(actor, models.RoleAdmin)) &&
				(hasRole(actor, models.RoleManager) || hasRole(actor, models.RoleAdmin))
		},
		deny: "only the owner's direct manager or an admin may act on a submitted expense",
	},
	models.StatusPendingFinanceApproval: {
		canAct: func(actor, owner *models.User) bool {
			return hasRole(actor, models.RoleAdmin) || hasRole(actor, models.RoleFinance)
		},
		deny: "only finance or admin may act on an expense pending finance approval",
	},
}

// Approve advances an expense through the approval state machine.
func (s *approvalService) Approve(actorID, expenseID uint, comments string) (*models.Expense, error) {
	if len(comments) > maxCommentLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "comments cannot exceed 1000 characters")
	}

	actor, err := s.users.GetActor(actorID)
	if err != nil {
		return nil, err
	}

	var expense *models.Expense
	err = s.db.Transaction(func(tx *gorm.DB) error {
		loaded, txErr := loadExpenseForTransition(tx, expenseID)
		if txErr != nil {
			return txErr
		}

		oldStatus := loaded.Status
		rule, ok := transitionRules[oldStatus]
		if !ok {
			return apperrors.WithMessage(apperrors.ErrInvalidExpenseState,
				fmt.Sprintf("expense cannot be approved in status %s", oldStatus))
		}
		if !rule.canAct(actor, &loaded.User) {
			return apperrors.WithMessage(apperrors.ErrForbidden, rule.deny)
		}

		newStatus := models.StatusApproved
		finalComments := comments
		if oldStatus == models.StatusSubmitted && loaded.Amount > autoApprovalThreshold {
			newStatus = models.StatusPendingFinanceApproval
		} else if oldStatus == models.StatusSubmitted {
			if strings.TrimSpace(finalComments) == "" {
				finalComments = autoApprovalNote
			} else {
				finalComments = finalComments + " " + autoApprovalNote
			}
		}

		if txErr := applyTransition(tx, loaded, oldStatus, newStatus); txErr != nil {
			return txErr
		}
		if txErr := appendHistory(tx, loaded.ID, actor.ID, oldStatus, newStatus, finalComments); txErr != nil {
			return txErr
		}

		expense = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your expense status is now %s", expense.Status)
	if strings.TrimSpace(comments) != "" {
		message += ". Comments: " + comments
	}
	s.afterTransition(actor, expense, "EXPENSE_APPROVED",
		fmt.Sprintf("Status changed to %s", expense.Status), message)

	return expense, nil
}

// Reject moves an eligible expense to REJECTED. Comments are mandatory
// and their absence is a validation failure, not an authorization one.
func (s *approvalService) Reject(actorID, expenseID uint, comments string) (*models.Expense, error) {
	if strings.TrimSpace(comments) == "" {
		return nil, apperrors.ErrCommentsRequired
	}
	if len(comments) > maxCommentLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "comments cannot exceed 1000 characters")
	}

	actor, err := s.users.GetActor(actorID)
	if err != nil {
		return nil, err
	}

	var expense *models.Expense
	err = s.db.Transaction(func(tx *gorm.DB) error {
		loaded, txErr := loadExpenseForTransition(tx, expenseID)
		if txErr != nil {
			return txErr
		}

		oldStatus := loaded.Status
		rule, ok := transitionRules[oldStatus]
		if !ok || !rule.canAct(actor, &loaded.User) {
			return apperrors.WithMessage(apperrors.ErrForbidden,
				fmt.Sprintf("you are not authorized to reject this expense in its current state (%s)", oldStatus))
		}

		if txErr := applyTransition(tx, loaded, oldStatus, models.StatusRejected); txErr != nil {
			return txErr
		}
		if txErr := appendHistory(tx, loaded.ID, actor.ID, oldStatus, models.StatusRejected, comments); txErr != nil {
			return txErr
		}

		expense = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(actor, expense, "EXPENSE_REJECTED",
		"Status changed to REJECTED. Comments: "+comments,
		"Your expense has been REJECTED. Comments: "+comments)

	return expense, nil
}

// GetPendingApprovals returns the actor's work queue: SUBMITTED items
// for manager-role holders, PENDING_FINANCE_APPROVAL items for finance
// and admin holders. The manager queue is deliberately system-wide, not
// scoped to direct reports; the approve operation itself still enforces
// the direct-manager rule.
func (s *approvalService) GetPendingApprovals(actorID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	actor, err := s.users.GetActor(actorID)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	var statuses []models.ExpenseStatus
	if hasRole(actor, models.RoleManager) {
		statuses = append(statuses, models.StatusSubmitted)
	}
	if hasRole(actor, models.RoleAdmin) || hasRole(actor, models.RoleFinance) {
		statuses = append(statuses, models.StatusPendingFinanceApproval)
	}

	if len(statuses) == 0 {
		empty := pagination.NewPageResponse([]models.Expense{}, page.Page, page.PageSize, 0)
		return &empty, nil
	}

	base := s.db.Model(&models.Expense{}).Where("status IN ?", statuses)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Preload("User").Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("created_at ASC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetApprovalHistory returns the ledger for an expense in ascending
// action-date order, gated by the same visibility rules as the expense.
func (s *approvalService) GetApprovalHistory(actorID, expenseID uint) ([]models.ApprovalHistory, error) {
	actor, err := s.users.GetActor(actorID)
	if err != nil {
		return nil, err
	}

	var expense models.Expense
	if err := s.db.Preload("User").First(&expense, expenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !canViewExpense(actor, &expense) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "you are not authorized to view this expense")
	}

	var history []models.ApprovalHistory
	if err := s.db.Preload("Approver").
		Where("expense_id = ?", expenseID).
		Order("action_date ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return history, nil
}

// loadExpenseForTransition loads an expense with its owner inside the
// transition transaction.
func loadExpenseForTransition(tx *gorm.DB, expenseID uint) (*models.Expense, error) {
	var expense models.Expense
	if err := tx.Preload("User").First(&expense, expenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// applyTransition writes the new status guarded by the observed one, so
// of two concurrent transition attempts exactly one wins and the loser
// surfaces a retryable conflict.
func applyTransition(tx *gorm.DB, expense *models.Expense, oldStatus, newStatus models.ExpenseStatus) error {
	res := tx.Model(&models.Expense{}).
		Where("id = ? AND status = ?", expense.ID, oldStatus).
		Update("status", newStatus)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrApprovalConflict
	}
	expense.Status = newStatus
	return nil
}

// appendHistory adds a ledger entry in the same transaction as the
// status write.
func appendHistory(tx *gorm.DB, expenseID, approverID uint, before, after models.ExpenseStatus, comments string) error {
	entry := &models.ApprovalHistory{
		ExpenseID:    expenseID,
		ApproverID:   approverID,
		StatusBefore: before,
		StatusAfter:  after,
		Comments:     comments,
		ActionDate:   time.Now(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// afterTransition dispatches the audit and notification side effects
// once the transition has committed. Both are best-effort; neither can
// fail the already-successful transition.
func (s *approvalService) afterTransition(actor *models.User, expense *models.Expense, action, auditDetails, notifyMessage string) {
	username := actor.Username
	expenseID := expense.ID
	snapshot := *expense

	s.dispatcher.Submit(func() {
		s.audit.LogAction(username, action, "Expense", expenseID, auditDetails)
	})
	s.dispatcher.Submit(func() {
		s.notifier.NotifyStatusChange(&snapshot, notifyMessage)
	})
}
