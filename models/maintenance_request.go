package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

const (
	MaintenanceOpen       = "Open"
	MaintenanceInProgress = "In Progress"
	MaintenanceResolved   = "Resolved"
)

type MaintenanceRequest struct {
	gorm.Model

	RoomID      uint   `json:"roomId" gorm:"column:room_id;index;not null"`
	Description string `json:"description" gorm:"type:text"`
	Priority    string `json:"priority" gorm:"size:16;default:Medium"`
	Status      string `json:"status" gorm:"size:16;index;default:Open"`
	ReportedBy  string `json:"reportedBy" gorm:"size:150"`

	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy string     `json:"resolvedBy,omitempty" gorm:"size:150"`
}

// Blocks reports whether the request takes the room out of service.
func (m MaintenanceRequest) Blocks() bool {
	return m.Priority == PriorityHigh || m.Priority == PriorityUrgent
}

func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
