package services

import (
	"context"
	"time"

	"hotel-booking/models"
	"hotel-booking/utils"

	"gorm.io/gorm"
)

// AvailabilityService answers date-range queries against rooms and active bookings.
// It never writes.
type AvailabilityService struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewAvailabilityService(db *gorm.DB, timeout time.Duration) *AvailabilityService {
	return &AvailabilityService{DB: db, Timeout: timeout}
}

type AvailabilityFilter struct {
	RoomType    string
	MinCapacity int
}

// AvailableRoom is a bookable room with its price quote for the requested stay.
type AvailableRoom struct {
	models.Room
	NightlyRate float64                `json:"nightlyRate"`
	Nights      int                    `json:"nights"`
	StayTotal   float64                `json:"stayTotal"`
	NightlyPlan []models.NightlyCharge `json:"nightlyPlan"`
}

func validateRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return Invalid("error.invalidDates", "checkIn and checkOut are required")
	}
	if !checkOut.After(checkIn) {
		return Invalid("error.invalidDates", "Check-out date must be after check-in date")
	}
	return nil
}

// overlapping restricts q to active bookings on roomID whose stay overlaps
// [checkIn, checkOut) under half-open semantics.
func overlapping(q *gorm.DB, roomID uint, checkIn, checkOut time.Time, excludeBookingID uint) *gorm.DB {
	q = q.Model(&models.Booking{}).
		Where("room_id = ?", roomID).
		Where("status IN ?", models.ActiveBookingStatuses).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeBookingID != 0 {
		q = q.Where("id <> ?", excludeBookingID)
	}
	return q
}

// hasConflictTx runs the overlap check on an existing handle, typically an open transaction.
func hasConflictTx(tx *gorm.DB, roomID uint, checkIn, checkOut time.Time, excludeBookingID uint) (bool, error) {
	var count int64
	if err := overlapping(tx, roomID, checkIn, checkOut, excludeBookingID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasConflict reports whether any other active booking holds roomID within [checkIn, checkOut).
func (s *AvailabilityService) HasConflict(ctx context.Context, roomID uint, checkIn, checkOut time.Time, excludeBookingID uint) (bool, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return false, err
	}
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	conflict, err := hasConflictTx(s.DB.WithContext(ctx), roomID, utils.DateOnly(checkIn), utils.DateOnly(checkOut), excludeBookingID)
	if err != nil {
		return false, storageError("AvailabilityService.HasConflict", err, nil)
	}
	return conflict, nil
}

// FindAvailableRooms lists bookable rooms matching filter with no overlapping
// active booking, priced for the requested stay.
func (s *AvailabilityService) FindAvailableRooms(ctx context.Context, checkIn, checkOut time.Time, filter AvailabilityFilter) ([]AvailableRoom, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	if filter.RoomType != "" && !models.IsValidRoomType(filter.RoomType) {
		return nil, Invalid("error.invalidRoomType", "Unknown room type: "+filter.RoomType)
	}
	checkIn, checkOut = utils.DateOnly(checkIn), utils.DateOnly(checkOut)

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	busy := db.Model(&models.Booking{}).
		Select("room_id").
		Where("room_id IS NOT NULL").
		Where("status IN ?", models.ActiveBookingStatuses).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)

	q := db.Model(&models.Room{}).
		Where("status = ?", models.RoomStatusAvailable).
		Where("housekeeping_status = ?", models.HousekeepingClean).
		Where("is_maintenance_blocked = ?", false).
		Where("id NOT IN (?)", busy)
	if filter.RoomType != "" {
		q = q.Where("room_type = ?", filter.RoomType)
	}
	if filter.MinCapacity > 0 {
		q = q.Where("capacity >= ?", filter.MinCapacity)
	}

	var rooms []models.Room
	if err := q.Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, storageError("AvailabilityService.FindAvailableRooms", err, nil)
	}

	out := make([]AvailableRoom, 0, len(rooms))
	for _, room := range rooms {
		if !room.IsBookable() {
			continue
		}
		plan, total, err := StayRates(room, checkIn, checkOut)
		if err != nil {
			return nil, err
		}
		out = append(out, AvailableRoom{
			Room:        room,
			NightlyRate: NightlyRate(room, checkIn),
			Nights:      len(plan),
			StayTotal:   total,
			NightlyPlan: plan,
		})
	}
	return out, nil
}
