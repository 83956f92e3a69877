package models

// AuditLog records sensitive operations for compliance review.
type AuditLog struct {
	Base
	Username   string `gorm:"size:100;not null" json:"username"`
	Action     string `gorm:"size:100;not null;index" json:"action"`
	EntityName string `gorm:"size:100" json:"entity_name,omitempty"`
	EntityID   uint   `json:"entity_id,omitempty"`
	Details    string `gorm:"type:text" json:"details,omitempty"`
}
