package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TaskCheckoutClean    = "Checkout Clean"
	TaskStayoverClean    = "Stayover Clean"
	TaskDeepClean        = "Deep Clean"
	TaskInspection       = "Inspection"
	TaskMaintenanceClean = "Maintenance Clean"
)

const (
	TaskPending    = "Pending"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
	TaskInspected  = "Inspected"
	TaskFailed     = "Failed"
)

type HousekeepingTask struct {
	gorm.Model

	RoomID     uint   `gorm:"column:room_id;index;not null" json:"roomId"`
	RoomNumber string `gorm:"column:room_number;size:50" json:"roomNumber"`

	TaskType string `gorm:"column:task_type;size:32" json:"taskType"`
	Priority string `gorm:"size:16;index:idx_task_priority_status;default:Medium" json:"priority"`
	Status   string `gorm:"size:16;index:idx_task_priority_status;default:Pending" json:"status"`

	BookingID    *uint      `gorm:"column:booking_id;index" json:"bookingId,omitempty"`
	GuestName    string     `gorm:"column:guest_name;size:100" json:"guestName,omitempty"`
	CheckoutTime *time.Time `gorm:"column:checkout_time" json:"checkoutTime,omitempty"`

	ScheduledFor time.Time  `gorm:"column:scheduled_for;index" json:"scheduledFor"`
	DueBy        *time.Time `gorm:"column:due_by" json:"dueBy,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	InspectedAt *time.Time `json:"inspectedAt,omitempty"`
	InspectedBy string     `gorm:"size:150" json:"inspectedBy,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
}
