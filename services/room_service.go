package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hotel-booking/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomService owns room inventory and is the only writer of a room's
// status, housekeeping status, maintenance block and current booking.
type RoomService struct {
	DB      *gorm.DB
	Audit   AuditSink
	Timeout time.Duration
}

func NewRoomService(db *gorm.DB, audit AuditSink, timeout time.Duration) *RoomService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &RoomService{DB: db, Audit: audit, Timeout: timeout}
}

type RoomInput struct {
	RoomNumber        string                `json:"roomNumber"`
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	RoomType          string                `json:"roomType"`
	Floor             string                `json:"floor"`
	BasePricePerNight *float64              `json:"basePricePerNight"`
	WeekendMultiplier *float64              `json:"weekendMultiplier"`
	SeasonalRates     []models.SeasonalRate `json:"seasonalRates"`
	Capacity          *int                  `json:"capacity"`
	Amenities         []string              `json:"amenities"`
}

type RoomFilter struct {
	Status   string
	RoomType string
	Floor    string
}

type MaintenanceInput struct {
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority"`
}

func validateSeasonalRates(rates []models.SeasonalRate) error {
	for _, r := range rates {
		if r.EndDate.Before(r.StartDate) {
			return Invalid("error.invalidSeasonalRate", fmt.Sprintf("Seasonal rate %q ends before it starts", r.Name))
		}
		if r.Multiplier <= 0 {
			return Invalid("error.invalidSeasonalRate", fmt.Sprintf("Seasonal rate %q needs a positive multiplier", r.Name))
		}
	}
	return nil
}

func (in RoomInput) apply(room *models.Room) error {
	if in.Name != "" {
		room.Name = strings.TrimSpace(in.Name)
	}
	if in.Description != "" {
		room.Description = in.Description
	}
	if in.RoomType != "" {
		if !models.IsValidRoomType(in.RoomType) {
			return Invalid("error.invalidRoomType", "Unknown room type: "+in.RoomType)
		}
		room.RoomType = in.RoomType
	}
	if in.Floor != "" {
		room.Floor = strings.TrimSpace(in.Floor)
	}
	if in.BasePricePerNight != nil {
		if *in.BasePricePerNight < 0 {
			return Invalid("error.invalidPrice", "basePricePerNight must not be negative")
		}
		room.BasePricePerNight = *in.BasePricePerNight
	}
	if in.WeekendMultiplier != nil {
		if *in.WeekendMultiplier <= 0 {
			return Invalid("error.invalidPrice", "weekendMultiplier must be positive")
		}
		room.WeekendMultiplier = *in.WeekendMultiplier
	}
	if in.SeasonalRates != nil {
		if err := validateSeasonalRates(in.SeasonalRates); err != nil {
			return err
		}
		room.SeasonalRates = datatypes.JSONSlice[models.SeasonalRate](in.SeasonalRates)
	}
	if in.Capacity != nil {
		if *in.Capacity < 1 {
			return Invalid("error.invalidCapacity", "capacity must be at least 1")
		}
		room.Capacity = *in.Capacity
	}
	if in.Amenities != nil {
		room.Amenities = datatypes.JSONSlice[string](in.Amenities)
	}
	return nil
}

func (s *RoomService) Create(ctx context.Context, in RoomInput, actor Actor) (*models.Room, error) {
	room := models.Room{
		RoomNumber:         strings.TrimSpace(in.RoomNumber),
		RoomType:           models.RoomTypeStandard,
		WeekendMultiplier:  1,
		Capacity:           2,
		Status:             models.RoomStatusAvailable,
		HousekeepingStatus: models.HousekeepingClean,
		Version:            1,
	}
	if room.RoomNumber == "" {
		return nil, Invalid("error.roomNumberRequired", "Room number is required")
	}
	if in.BasePricePerNight == nil {
		return nil, Invalid("error.invalidPrice", "basePricePerNight is required")
	}
	if err := in.apply(&room); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.DB.WithContext(ctx).Create(&room).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, Conflict("error.roomNumberTaken", fmt.Sprintf("Room number '%s' already exists", room.RoomNumber))
		}
		return nil, storageError("RoomService.Create", err, nil)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "room.create", EntityType: "Room", EntityID: room.ID, After: room})
	return &room, nil
}

func (s *RoomService) List(ctx context.Context, f RoomFilter) ([]models.Room, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	q := s.DB.WithContext(ctx).Model(&models.Room{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RoomType != "" {
		q = q.Where("room_type = ?", f.RoomType)
	}
	if f.Floor != "" {
		q = q.Where("floor = ?", f.Floor)
	}

	var rooms []models.Room
	if err := q.Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, storageError("RoomService.List", err, nil)
	}
	return rooms, nil
}

func (s *RoomService) Get(ctx context.Context, id uint) (*models.Room, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var room models.Room
	err := s.DB.WithContext(ctx).
		Preload("MaintenanceRequests", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&room, id).Error
	if err != nil {
		return nil, storageError("RoomService.Get", err, errRoomNotFound)
	}
	return &room, nil
}

// Update changes descriptive and pricing attributes. Operational state is
// never touched here, and the room number is immutable.
func (s *RoomService) Update(ctx context.Context, id uint, in RoomInput, actor Actor) (*models.Room, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var before, room models.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		before = *locked
		room = *locked

		if n := strings.TrimSpace(in.RoomNumber); n != "" && n != room.RoomNumber {
			return Invalid("error.roomNumberImmutable", "Room number cannot be changed")
		}
		if err := in.apply(&room); err != nil {
			return err
		}
		room.Version++
		return tx.Model(&models.Room{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":                 room.Name,
			"description":          room.Description,
			"room_type":            room.RoomType,
			"floor":                room.Floor,
			"base_price_per_night": room.BasePricePerNight,
			"weekend_multiplier":   room.WeekendMultiplier,
			"seasonal_rates":       room.SeasonalRates,
			"capacity":             room.Capacity,
			"amenities":            room.Amenities,
			"version":              room.Version,
		}).Error
	})
	if err != nil {
		s.Audit.Record(AuditEntry{Actor: actor, Action: "room.update", EntityType: "Room", EntityID: id, Err: err})
		return nil, storageError("RoomService.Update", err, errRoomNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "room.update", EntityType: "Room", EntityID: id, Before: before, After: room})
	return &room, nil
}

// Delete soft-deletes a room that no active booking references.
func (s *RoomService) Delete(ctx context.Context, id uint, actor Actor) error {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var before models.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		before = *room

		var active int64
		if err := tx.Model(&models.Booking{}).
			Where("room_id = ? AND status IN ?", id, models.ActiveBookingStatuses).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return Conflict("error.roomInUse", "Room has active bookings and cannot be deleted")
		}
		return tx.Delete(&models.Room{}, id).Error
	})
	if err != nil {
		s.Audit.Record(AuditEntry{Actor: actor, Action: "room.delete", EntityType: "Room", EntityID: id, Err: err})
		return storageError("RoomService.Delete", err, errRoomNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "room.delete", EntityType: "Room", EntityID: id, Before: before})
	return nil
}

// lockRoom loads a room with a row lock held until tx ends.
func lockRoom(tx *gorm.DB, id uint) (*models.Room, error) {
	var room models.Room
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func writeRoomState(tx *gorm.DB, room *models.Room, fields map[string]interface{}) error {
	room.Version++
	fields["version"] = room.Version
	return tx.Model(&models.Room{}).Where("id = ?", room.ID).Updates(fields).Error
}

func pointsAt(room *models.Room, bookingID uint) bool {
	return room.CurrentBookingID != nil && *room.CurrentBookingID == bookingID
}

// ---------------------------------------------------------------------
// Booking-driven transitions. All run inside the caller's transaction on
// a room row the caller has already locked.
// ---------------------------------------------------------------------

// MarkReserved holds room for bookingID. A room that is not Available and
// does not already belong to bookingID is left alone: the night rows, not
// the room status, are what keep other stays out.
func (s *RoomService) MarkReserved(tx *gorm.DB, room *models.Room, bookingID uint) error {
	if room.Status != models.RoomStatusAvailable && !pointsAt(room, bookingID) {
		return nil
	}
	if room.Status == models.RoomStatusReserved && pointsAt(room, bookingID) {
		return nil
	}
	room.Status = models.RoomStatusReserved
	room.CurrentBookingID = &bookingID
	return writeRoomState(tx, room, map[string]interface{}{
		"status":             room.Status,
		"current_booking_id": bookingID,
	})
}

// MarkOccupied puts the guest of bookingID into room.
func (s *RoomService) MarkOccupied(tx *gorm.DB, room *models.Room, bookingID uint) error {
	if room.IsMaintenanceBlocked || room.Status == models.RoomStatusOutOfOrder {
		return Conflict("error.roomUnavailable", fmt.Sprintf("Room %s is out of service", room.RoomNumber))
	}
	if room.Status == models.RoomStatusOccupied && !pointsAt(room, bookingID) {
		return Conflict("error.roomOccupied", fmt.Sprintf("Room %s is occupied by another guest", room.RoomNumber))
	}
	room.Status = models.RoomStatusOccupied
	room.CurrentBookingID = &bookingID
	return writeRoomState(tx, room, map[string]interface{}{
		"status":             room.Status,
		"current_booking_id": bookingID,
	})
}

// Release frees room from bookingID. A room blocked by maintenance goes
// to Under Maintenance instead of Available. needsCleaning marks the room
// dirty after a stay.
func (s *RoomService) Release(tx *gorm.DB, room *models.Room, bookingID uint, needsCleaning bool) error {
	fields := map[string]interface{}{}
	if needsCleaning {
		room.HousekeepingStatus = models.HousekeepingNeedsCleaning
		fields["housekeeping_status"] = room.HousekeepingStatus
	}
	if pointsAt(room, bookingID) {
		room.CurrentBookingID = nil
		fields["current_booking_id"] = nil
		if room.IsMaintenanceBlocked {
			room.Status = models.RoomStatusUnderMaintenance
		} else {
			room.Status = models.RoomStatusAvailable
		}
		fields["status"] = room.Status
	}
	if len(fields) == 0 {
		return nil
	}
	return writeRoomState(tx, room, fields)
}

// ---------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------

// OpenMaintenance files a request. High and Urgent requests block the room;
// an occupied room keeps its guest and only carries the block flag until
// check-out.
func (s *RoomService) OpenMaintenance(ctx context.Context, roomID uint, in MaintenanceInput, actor Actor) (*models.MaintenanceRequest, error) {
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, Invalid("error.invalidPriority", "Unknown priority: "+priority)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, Invalid("error.descriptionRequired", "Maintenance description is required")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	req := models.MaintenanceRequest{
		RoomID:      roomID,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      models.MaintenanceOpen,
		ReportedBy:  actor.Label(),
	}
	var before, after models.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, roomID)
		if err != nil {
			return err
		}
		before = *room

		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		if req.Blocks() {
			fields := map[string]interface{}{"is_maintenance_blocked": true}
			room.IsMaintenanceBlocked = true
			if room.Status != models.RoomStatusOccupied {
				room.Status = models.RoomStatusUnderMaintenance
				fields["status"] = room.Status
			}
			if err := writeRoomState(tx, room, fields); err != nil {
				return err
			}
		}
		after = *room
		return nil
	})
	if err != nil {
		s.Audit.Record(AuditEntry{Actor: actor, Action: "room.maintenance.open", EntityType: "Room", EntityID: roomID, Err: err})
		return nil, storageError("RoomService.OpenMaintenance", err, errRoomNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "room.maintenance.open", EntityType: "Room", EntityID: roomID, Before: before, After: after})
	return &req, nil
}

// ResolveMaintenance closes a request. When no open request remains the
// block is lifted and an Under Maintenance room returns to Reserved if its
// booking is still upcoming, otherwise to Available.
func (s *RoomService) ResolveMaintenance(ctx context.Context, roomID, requestID uint, actor Actor) (*models.Room, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var before, room models.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockRoom(tx, roomID)
		if err != nil {
			return err
		}
		before = *locked

		var req models.MaintenanceRequest
		if err := tx.Where("id = ? AND room_id = ?", requestID, roomID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("error.maintenanceNotFound", "Maintenance request not found")
			}
			return err
		}
		if req.Status == models.MaintenanceResolved {
			return Conflict("error.alreadyResolved", "Maintenance request is already resolved")
		}

		now := time.Now().UTC()
		if err := tx.Model(&req).Updates(map[string]interface{}{
			"status":      models.MaintenanceResolved,
			"resolved_at": now,
			"resolved_by": actor.Label(),
		}).Error; err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&models.MaintenanceRequest{}).
			Where("room_id = ? AND status <> ?", roomID, models.MaintenanceResolved).
			Count(&open).Error; err != nil {
			return err
		}
		if open == 0 {
			if err := s.liftBlock(tx, locked); err != nil {
				return err
			}
		}
		room = *locked
		return nil
	})
	if err != nil {
		s.Audit.Record(AuditEntry{Actor: actor, Action: "room.maintenance.resolve", EntityType: "Room", EntityID: roomID, Err: err})
		return nil, storageError("RoomService.ResolveMaintenance", err, errRoomNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "room.maintenance.resolve", EntityType: "Room", EntityID: roomID, Before: before, After: room})
	return &room, nil
}

func (s *RoomService) liftBlock(tx *gorm.DB, room *models.Room) error {
	fields := map[string]interface{}{"is_maintenance_blocked": false}
	room.IsMaintenanceBlocked = false

	if room.Status == models.RoomStatusUnderMaintenance {
		restore := models.RoomStatusAvailable
		if room.CurrentBookingID != nil {
			var b models.Booking
			err := tx.Select("id", "status").First(&b, *room.CurrentBookingID).Error
			switch {
			case err == nil && (b.Status == models.BookingPending || b.Status == models.BookingConfirmed):
				restore = models.RoomStatusReserved
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		room.Status = restore
		fields["status"] = restore
		if restore == models.RoomStatusAvailable {
			room.CurrentBookingID = nil
			fields["current_booking_id"] = nil
		}
	}
	return writeRoomState(tx, room, fields)
}

// ---------------------------------------------------------------------
// Housekeeping
// ---------------------------------------------------------------------

func applyHousekeeping(tx *gorm.DB, room *models.Room, status string) error {
	fields := map[string]interface{}{"housekeeping_status": status}
	room.HousekeepingStatus = status
	if status == models.HousekeepingClean {
		now := time.Now().UTC()
		room.LastCleanedAt = &now
		fields["last_cleaned_at"] = now
	}
	return writeRoomState(tx, room, fields)
}

func (s *RoomService) SetHousekeepingStatus(ctx context.Context, roomID uint, status string, actor Actor) (*models.Room, error) {
	if !models.IsValidHousekeepingStatus(status) {
		return nil, Invalid("error.invalidHousekeepingStatus", "Unknown housekeeping status: "+status)
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var before, room models.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockRoom(tx, roomID)
		if err != nil {
			return err
		}
		before = *locked
		if err := applyHousekeeping(tx, locked, status); err != nil {
			return err
		}
		room = *locked
		return nil
	})
	if err != nil {
		return nil, storageError("RoomService.SetHousekeepingStatus", err, errRoomNotFound)
	}

	log.Printf("RoomService: room %s housekeeping %s -> %s by %s", room.RoomNumber, before.HousekeepingStatus, status, actor.Label())
	s.Audit.Record(AuditEntry{Actor: actor, Action: "room.housekeeping", EntityType: "Room", EntityID: roomID, Before: before, After: room})
	return &room, nil
}
