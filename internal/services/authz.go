package services

import "expenseflow/internal/models"

// Pure authorization predicates composed by the workflow engine. They
// hold no state and perform no I/O; callers pass actors resolved with
// roles and manager preloaded.

func hasRole(u *models.User, role string) bool {
	return u.HasRole(role)
}

// isDirectManagerOf reports whether actor is the single direct manager
// referenced by owner.
func isDirectManagerOf(actor, owner *models.User) bool {
	return owner.ManagerID != nil && *owner.ManagerID == actor.ID
}

func isOwner(actor *models.User, expense *models.Expense) bool {
	return expense.UserID == actor.ID
}

// canViewExpense gates read access to an expense and its approval
// history: the owner, the owner's direct manager, or an admin.
func canViewExpense(actor *models.User, expense *models.Expense) bool {
	return isOwner(actor, expense) ||
		hasRole(actor, models.RoleAdmin) ||
		isDirectManagerOf(actor, &expense.User)
}
