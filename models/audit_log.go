package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditSuccess = "Success"
	AuditFailure = "Failure"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	ActorID   string `gorm:"column:actor_id;size:64;index" json:"actorId"`
	ActorName string `gorm:"column:actor_name;size:150" json:"actorName"`
	ActorRole string `gorm:"column:actor_role;size:32" json:"actorRole"`
	ClientIP  string `gorm:"column:client_ip;size:64" json:"clientIp,omitempty"`

	Action     string `gorm:"size:64;index" json:"action"`
	EntityType string `gorm:"column:entity_type;size:64;index:idx_audit_entity" json:"entityType"`
	EntityID   uint   `gorm:"column:entity_id;index:idx_audit_entity" json:"entityId"`

	Before datatypes.JSON `json:"before,omitempty"`
	After  datatypes.JSON `json:"after,omitempty"`

	Status       string `gorm:"size:16;default:Success" json:"status"`
	ErrorMessage string `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`
}
