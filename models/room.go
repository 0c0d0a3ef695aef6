package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoomTypeStandard     = "Standard"
	RoomTypeDeluxe       = "Deluxe"
	RoomTypeSuite        = "Suite"
	RoomTypeFamily       = "Family"
	RoomTypeExecutive    = "Executive"
	RoomTypePresidential = "Presidential"
)

const (
	RoomStatusAvailable        = "Available"
	RoomStatusOccupied         = "Occupied"
	RoomStatusReserved         = "Reserved"
	RoomStatusUnderMaintenance = "Under Maintenance"
	RoomStatusCleaning         = "Cleaning"
	RoomStatusOutOfOrder       = "Out of Order"
)

const (
	HousekeepingClean         = "Clean"
	HousekeepingNeedsCleaning = "Needs Cleaning"
	HousekeepingInProgress    = "In Progress"
	HousekeepingInspected     = "Inspected"
)

var RoomTypes = []string{
	RoomTypeStandard, RoomTypeDeluxe, RoomTypeSuite,
	RoomTypeFamily, RoomTypeExecutive, RoomTypePresidential,
}

var HousekeepingStatuses = []string{
	HousekeepingClean, HousekeepingNeedsCleaning, HousekeepingInProgress, HousekeepingInspected,
}

// SeasonalRate multiplies the nightly price for nights inside [StartDate, EndDate].
type SeasonalRate struct {
	Name       string    `json:"name"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Multiplier float64   `json:"multiplier"`
}

type Room struct {
	gorm.Model

	RoomNumber  string `json:"roomNumber" gorm:"column:room_number;uniqueIndex;type:varchar(50)"`
	Name        string `json:"name" gorm:"size:150"`
	Description string `json:"description" gorm:"type:text"`
	RoomType    string `json:"roomType" gorm:"column:room_type;size:32;index"`
	Floor       string `json:"floor" gorm:"type:varchar(10)"`

	BasePricePerNight float64                           `json:"basePricePerNight" gorm:"column:base_price_per_night"`
	WeekendMultiplier float64                           `json:"weekendMultiplier" gorm:"column:weekend_multiplier;default:1"`
	SeasonalRates     datatypes.JSONSlice[SeasonalRate] `json:"seasonalRates" gorm:"column:seasonal_rates"`
	Capacity          int                               `json:"capacity" gorm:"column:capacity"`
	Amenities         datatypes.JSONSlice[string]       `json:"amenities" gorm:"column:amenities"`

	// Operational state. Written only by RoomService.
	Status               string     `json:"status" gorm:"size:32;index;default:Available"`
	HousekeepingStatus   string     `json:"housekeepingStatus" gorm:"column:housekeeping_status;size:32;default:Clean"`
	IsMaintenanceBlocked bool       `json:"isMaintenanceBlocked" gorm:"column:is_maintenance_blocked;default:false"`
	CurrentBookingID     *uint      `json:"currentBookingId,omitempty" gorm:"column:current_booking_id;index"`
	LastCleanedAt        *time.Time `json:"lastCleanedAt,omitempty" gorm:"column:last_cleaned_at"`

	Version uint `json:"version" gorm:"default:1"`

	MaintenanceRequests []MaintenanceRequest `json:"maintenanceRequests,omitempty" gorm:"foreignKey:RoomID"`
}

// IsBookable reports whether a new reservation may be placed on the room.
func (r Room) IsBookable() bool {
	return r.Status == RoomStatusAvailable &&
		r.HousekeepingStatus == HousekeepingClean &&
		!r.IsMaintenanceBlocked
}

func IsValidRoomType(t string) bool {
	for _, rt := range RoomTypes {
		if rt == t {
			return true
		}
	}
	return false
}

func IsValidHousekeepingStatus(s string) bool {
	for _, hs := range HousekeepingStatuses {
		if hs == s {
			return true
		}
	}
	return false
}
