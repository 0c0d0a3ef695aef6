package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"hotel-booking/config"
	"hotel-booking/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	t.Setenv("DB_LOG_LEVEL", "silent")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (r *recordingAudit) Record(e AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAudit) last() AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return AuditEntry{}
	}
	return r.entries[len(r.entries)-1]
}

func (r *recordingAudit) count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

type testEnv struct {
	db           *gorm.DB
	audit        *recordingAudit
	rooms        *RoomService
	guests       *GuestService
	housekeeping *HousekeepingService
	availability *AvailabilityService
	bookings     *BookingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	audit := &recordingAudit{}
	timeout := 5 * time.Second

	env := &testEnv{db: db, audit: audit}
	env.rooms = NewRoomService(db, audit, timeout)
	env.guests = NewGuestService(db, timeout)
	env.housekeeping = NewHousekeepingService(db, audit, timeout)
	env.availability = NewAvailabilityService(db, timeout)
	env.bookings = NewBookingService(db, env.rooms, env.guests, env.housekeeping, audit, timeout)
	return env
}

func seedRoom(t *testing.T, db *gorm.DB, number string, base, weekend float64, capacity int) models.Room {
	t.Helper()
	room := models.Room{
		RoomNumber:         number,
		Name:               "Room " + number,
		RoomType:           models.RoomTypeStandard,
		BasePricePerNight:  base,
		WeekendMultiplier:  weekend,
		Capacity:           capacity,
		Amenities:          datatypes.JSONSlice[string]{"WiFi"},
		SeasonalRates:      datatypes.JSONSlice[models.SeasonalRate]{},
		Status:             models.RoomStatusAvailable,
		HousekeepingStatus: models.HousekeepingClean,
		Version:            1,
	}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room %s: %v", number, err)
	}
	return room
}

func reloadRoom(t *testing.T, db *gorm.DB, id uint) models.Room {
	t.Helper()
	var room models.Room
	if err := db.First(&room, id).Error; err != nil {
		t.Fatalf("reload room %d: %v", id, err)
	}
	return room
}

func reloadBooking(t *testing.T, db *gorm.DB, id uint) models.Booking {
	t.Helper()
	var b models.Booking
	if err := db.Preload("AdditionalServices").First(&b, id).Error; err != nil {
		t.Fatalf("reload booking %d: %v", id, err)
	}
	return b
}

// nextWeekday returns the first date on or after from that falls on wd.
func nextWeekday(from time.Time, wd time.Weekday) time.Time {
	d := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func bookingInput(roomID *uint, checkIn, checkOut string) CreateBookingInput {
	zero := 0.0
	return CreateBookingInput{
		GuestName:      "Ada Lovelace",
		GuestEmail:     "Ada@Example.com",
		GuestPhone:     "+44 20 7946 0000",
		NumberOfGuests: 2,
		RoomID:         roomID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		TaxRate:        &zero,
	}
}

func uintPtr(v uint) *uint { return &v }

func mustKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
