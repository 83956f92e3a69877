package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "expenseflow/internal/errors"
	"expenseflow/internal/pagination"
	"expenseflow/internal/services"
)

// AdminHandler handles user directory administration requests.
type AdminHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userService services.UserServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{userService: userService, auditService: auditService}
}

// AssignRolesRequest represents the payload for replacing a user's roles
type AssignRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,role_name"`
}

// SetManagerRequest represents the payload for assigning a user's manager.
// A null manager_id clears the assignment.
type SetManagerRequest struct {
	ManagerID *uint `json:"manager_id"`
}

// ListUsers handles listing all users
// @Summary     List users
// @Description Get a paginated list of all users with their roles. Admin only.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.User] "Paginated users"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.userService.ListUsers(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AssignRoles handles replacing a user's role set
// @Summary     Assign roles
// @Description Replace a user's roles with the given set. Admin only.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "User ID"
// @Param       request body AssignRolesRequest true "Role names (EMPLOYEE, MANAGER, FINANCE, ADMIN)"
// @Success     200 {object} UserResponse "User with updated roles"
// @Failure     400 {object} ErrorResponse "Invalid or unknown role"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users/{id}/roles [put]
func (h *AdminHandler) AssignRoles(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	targetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.AssignRoles(targetID, req.Roles)
	if err != nil {
		respondWithError(c, err)
		return
	}

	actor, actorErr := h.userService.GetUserByID(actorID)
	if actorErr == nil {
		h.auditService.LogAction(actor.Username, "ROLES_ASSIGNED", "User", targetID,
			"Roles replaced: "+strings.Join(req.Roles, ", "))
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// SetManager handles assigning or clearing a user's direct manager
// @Summary     Set manager
// @Description Assign or clear a user's direct manager. Admin only.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int               true "User ID"
// @Param       request body SetManagerRequest true "Manager ID, or null to clear"
// @Success     200 {object} UserResponse "User with updated manager"
// @Failure     400 {object} ErrorResponse "Invalid input or self-assignment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User or manager not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users/{id}/manager [put]
func (h *AdminHandler) SetManager(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	targetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.SetManager(targetID, req.ManagerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	actor, actorErr := h.userService.GetUserByID(actorID)
	if actorErr == nil {
		details := "Manager cleared"
		if req.ManagerID != nil {
			details = "Manager assigned"
		}
		h.auditService.LogAction(actor.Username, "MANAGER_ASSIGNED", "User", targetID, details)
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// ListAuditLogs handles listing audit log entries
// @Summary     List audit logs
// @Description Get a paginated list of audit log entries, newest first. Admin only.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Paginated audit entries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.auditService.GetAuditLogs(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
