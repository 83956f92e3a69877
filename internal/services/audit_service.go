package services

import (
	"gorm.io/gorm"

	apperrors "expenseflow/internal/errors"
	"expenseflow/internal/logger"
	"expenseflow/internal/models"
	"expenseflow/internal/pagination"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// LogAction records an audit event. Errors are logged but never
// propagate to avoid disrupting the main operation.
func (s *auditService) LogAction(username, action, entityName string, entityID uint, details string) {
	entry := &models.AuditLog{
		Username:   username,
		Action:     action,
		EntityName: entityName,
		EntityID:   entityID,
		Details:    details,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"username", username,
			"action", action,
			"entity_name", entityName,
			"entity_id", entityID,
		)
	}
}

// GetAuditLogs returns audit entries, newest first.
func (s *auditService) GetAuditLogs(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.AuditLog{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := s.db.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
