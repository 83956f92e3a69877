package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "expenseflow/internal/errors"
	"expenseflow/internal/pagination"
	"expenseflow/internal/services"
)

// ApprovalHandler handles approval workflow requests.
type ApprovalHandler struct {
	approvalService services.ApprovalServicer
}

// NewApprovalHandler creates a new ApprovalHandler.
func NewApprovalHandler(approvalService services.ApprovalServicer) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// DecisionRequest represents the payload for an approve or reject action.
// Comments are optional for approval and mandatory for rejection.
type DecisionRequest struct {
	Comments string `json:"comments" binding:"max=1000"`
}

// ApproveExpense handles approving an expense
// @Summary     Approve expense
// @Description Approve an expense. A manager approval of a small expense is final; larger ones move to finance review.
// @Tags        approvals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int             true  "Expense ID"
// @Param       request body DecisionRequest false "Optional comments"
// @Success     200 {object} models.Expense "Expense after transition"
// @Failure     400 {object} ErrorResponse "Invalid input or non-approvable state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not eligible to approve"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Concurrent decision conflict"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id}/approve [post]
func (h *ApprovalHandler) ApproveExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	expense, err := h.approvalService.Approve(userID, expenseID, req.Comments)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// RejectExpense handles rejecting an expense
// @Summary     Reject expense
// @Description Reject an expense with mandatory comments explaining the decision
// @Tags        approvals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int             true "Expense ID"
// @Param       request body DecisionRequest true "Rejection comments (required)"
// @Success     200 {object} models.Expense "Expense after transition"
// @Failure     400 {object} ErrorResponse "Missing comments or non-rejectable state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not eligible to reject"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Concurrent decision conflict"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id}/reject [post]
func (h *ApprovalHandler) RejectExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	expense, err := h.approvalService.Reject(userID, expenseID, req.Comments)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// GetPendingApprovals handles listing the actor's approval work queue
// @Summary     List pending approvals
// @Description Get the expenses awaiting the authenticated approver's decision, oldest first
// @Tags        approvals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated pending expenses"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /approvals/pending [get]
func (h *ApprovalHandler) GetPendingApprovals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.approvalService.GetPendingApprovals(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetApprovalHistory handles retrieving the approval ledger of an expense
// @Summary     Get approval history
// @Description Get the full approval ledger for an expense in chronological order
// @Tags        approvals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {array} models.ApprovalHistory "Approval history entries"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id}/history [get]
func (h *ApprovalHandler) GetApprovalHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	history, err := h.approvalService.GetApprovalHistory(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}
