package services

import (
	"context"
	"errors"
	"log"
	"time"

	"hotel-booking/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HousekeepingScheduler creates cleaning work. EnqueueTask runs inside the
// caller's transaction so the task commits together with the check-out.
type HousekeepingScheduler interface {
	EnqueueTask(tx *gorm.DB, req TaskRequest) (*models.HousekeepingTask, error)
}

type TaskRequest struct {
	RoomID       uint
	RoomNumber   string
	TaskType     string
	Priority     string
	ScheduledFor time.Time
	DueBy        *time.Time
	BookingID    *uint
	GuestName    string
	CheckoutTime *time.Time
	Notes        string
}

type TaskFilter struct {
	Status   string
	Priority string
	RoomID   uint
	Date     *time.Time
}

type HousekeepingService struct {
	DB      *gorm.DB
	Audit   AuditSink
	Timeout time.Duration
}

func NewHousekeepingService(db *gorm.DB, audit AuditSink, timeout time.Duration) *HousekeepingService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &HousekeepingService{DB: db, Audit: audit, Timeout: timeout}
}

func (s *HousekeepingService) EnqueueTask(tx *gorm.DB, req TaskRequest) (*models.HousekeepingTask, error) {
	if req.RoomID == 0 {
		return nil, Invalid("error.roomRequired", "Housekeeping task needs a room")
	}
	if req.TaskType == "" {
		req.TaskType = models.TaskCheckoutClean
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if req.ScheduledFor.IsZero() {
		req.ScheduledFor = time.Now().UTC()
	}

	task := models.HousekeepingTask{
		RoomID:       req.RoomID,
		RoomNumber:   req.RoomNumber,
		TaskType:     req.TaskType,
		Priority:     req.Priority,
		Status:       models.TaskPending,
		BookingID:    req.BookingID,
		GuestName:    req.GuestName,
		CheckoutTime: req.CheckoutTime,
		ScheduledFor: req.ScheduledFor,
		DueBy:        req.DueBy,
		Notes:        req.Notes,
	}
	if err := tx.Create(&task).Error; err != nil {
		return nil, err
	}
	log.Printf("HousekeepingService: queued %s (%s) for room %s", task.TaskType, task.Priority, task.RoomNumber)
	return &task, nil
}

func (s *HousekeepingService) ListTasks(ctx context.Context, f TaskFilter) ([]models.HousekeepingTask, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	q := s.DB.WithContext(ctx).Model(&models.HousekeepingTask{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.Date != nil {
		start := f.Date.UTC().Truncate(24 * time.Hour)
		q = q.Where("scheduled_for >= ? AND scheduled_for < ?", start, start.Add(24*time.Hour))
	}

	var tasks []models.HousekeepingTask
	if err := q.Order("scheduled_for ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, storageError("HousekeepingService.ListTasks", err, nil)
	}
	return tasks, nil
}

var taskTransitions = map[string][]string{
	models.TaskPending:    {models.TaskInProgress, models.TaskCompleted},
	models.TaskInProgress: {models.TaskCompleted},
	models.TaskFailed:     {models.TaskInProgress, models.TaskCompleted},
}

func taskTransitionAllowed(from, to string) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func lockTask(tx *gorm.DB, id uint) (*models.HousekeepingTask, error) {
	var task models.HousekeepingTask
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// UpdateTaskStatus moves a task forward and mirrors it on the room:
// In Progress marks the room's housekeeping In Progress, Completed marks it Clean.
func (s *HousekeepingService) UpdateTaskStatus(ctx context.Context, taskID uint, status, notes string, actor Actor) (*models.HousekeepingTask, error) {
	if status != models.TaskInProgress && status != models.TaskCompleted {
		return nil, Invalid("error.invalidTaskStatus", "status must be In Progress or Completed")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var before, task models.HousekeepingTask
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		before = *locked
		if !taskTransitionAllowed(locked.Status, status) {
			return Conflict("error.invalidTransition", "Cannot move task from "+locked.Status+" to "+status)
		}

		now := time.Now().UTC()
		fields := map[string]interface{}{"status": status}
		roomStatus := models.HousekeepingInProgress
		if status == models.TaskInProgress {
			locked.StartedAt = &now
			fields["started_at"] = now
		} else {
			locked.CompletedAt = &now
			fields["completed_at"] = now
			roomStatus = models.HousekeepingClean
		}
		if notes != "" {
			locked.Notes = notes
			fields["notes"] = notes
		}
		locked.Status = status
		if err := tx.Model(&models.HousekeepingTask{}).Where("id = ?", taskID).Updates(fields).Error; err != nil {
			return err
		}

		room, err := lockRoom(tx, locked.RoomID)
		if err != nil {
			return err
		}
		if err := applyHousekeeping(tx, room, roomStatus); err != nil {
			return err
		}
		task = *locked
		return nil
	})
	if err != nil {
		s.Audit.Record(AuditEntry{Actor: actor, Action: "housekeeping.status", EntityType: "HousekeepingTask", EntityID: taskID, Err: err})
		return nil, storageError("HousekeepingService.UpdateTaskStatus", err, errTaskNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "housekeeping.status", EntityType: "HousekeepingTask", EntityID: taskID, Before: before, After: task})
	return &task, nil
}

// InspectTask signs off a completed task. A pass keeps the room Clean,
// a failure sends it back to Needs Cleaning and marks the task Failed.
func (s *HousekeepingService) InspectTask(ctx context.Context, taskID uint, passed bool, notes string, actor Actor) (*models.HousekeepingTask, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var before, task models.HousekeepingTask
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		before = *locked
		if locked.Status != models.TaskCompleted {
			return Conflict("error.invalidTransition", "Only completed tasks can be inspected")
		}

		now := time.Now().UTC()
		locked.InspectedAt = &now
		locked.InspectedBy = actor.Label()
		locked.Status = models.TaskInspected
		roomStatus := models.HousekeepingClean
		if !passed {
			locked.Status = models.TaskFailed
			roomStatus = models.HousekeepingNeedsCleaning
		}
		if notes != "" {
			locked.Notes = notes
		}
		if err := tx.Model(&models.HousekeepingTask{}).Where("id = ?", taskID).Updates(map[string]interface{}{
			"status":       locked.Status,
			"inspected_at": now,
			"inspected_by": locked.InspectedBy,
			"notes":        locked.Notes,
		}).Error; err != nil {
			return err
		}

		task = *locked
		if passed {
			// room went Clean when the task completed
			return nil
		}
		room, err := lockRoom(tx, locked.RoomID)
		if err != nil {
			return err
		}
		return applyHousekeeping(tx, room, roomStatus)
	})
	if err != nil {
		s.Audit.Record(AuditEntry{Actor: actor, Action: "housekeeping.inspect", EntityType: "HousekeepingTask", EntityID: taskID, Err: err})
		return nil, storageError("HousekeepingService.InspectTask", err, errTaskNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "housekeeping.inspect", EntityType: "HousekeepingTask", EntityID: taskID, Before: before, After: task})
	return &task, nil
}
