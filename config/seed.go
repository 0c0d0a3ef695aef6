package config

import (
	"log"
	"time"

	"hotel-booking/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedDatabase inserts hotel settings and a small room inventory into an empty database.
func SeedDatabase(db *gorm.DB) {
	var settingsCount int64
	db.Model(&models.HotelSetting{}).Count(&settingsCount)
	if settingsCount == 0 {
		hotel := models.DefaultHotelSetting()
		hotel.Name = "Horizon Hotel"
		if err := db.Create(&hotel).Error; err != nil {
			log.Printf("warning: failed to seed hotel settings: %v", err)
		} else {
			log.Println("Hotel settings seeded")
		}
	}

	var roomCount int64
	db.Model(&models.Room{}).Count(&roomCount)
	if roomCount > 0 {
		log.Println("Rooms already seeded")
		return
	}

	year := time.Now().UTC().Year()
	summer := models.SeasonalRate{
		Name:       "Summer",
		StartDate:  time.Date(year, time.June, 15, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(year, time.August, 31, 0, 0, 0, 0, time.UTC),
		Multiplier: 1.25,
	}
	holidays := models.SeasonalRate{
		Name:       "Year End",
		StartDate:  time.Date(year, time.December, 20, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Multiplier: 1.5,
	}

	rooms := []models.Room{
		{RoomNumber: "101", Name: "Standard Queen", RoomType: models.RoomTypeStandard, Floor: "1", BasePricePerNight: 100, WeekendMultiplier: 1.2, Capacity: 2, Amenities: datatypes.JSONSlice[string]{"WiFi", "TV"}},
		{RoomNumber: "102", Name: "Standard Twin", RoomType: models.RoomTypeStandard, Floor: "1", BasePricePerNight: 100, WeekendMultiplier: 1.2, Capacity: 2, Amenities: datatypes.JSONSlice[string]{"WiFi", "TV"}},
		{RoomNumber: "201", Name: "Deluxe King", RoomType: models.RoomTypeDeluxe, Floor: "2", BasePricePerNight: 160, WeekendMultiplier: 1.25, Capacity: 3, SeasonalRates: datatypes.JSONSlice[models.SeasonalRate]{summer, holidays}, Amenities: datatypes.JSONSlice[string]{"WiFi", "TV", "Minibar"}},
		{RoomNumber: "202", Name: "Family Room", RoomType: models.RoomTypeFamily, Floor: "2", BasePricePerNight: 190, WeekendMultiplier: 1.2, Capacity: 5, SeasonalRates: datatypes.JSONSlice[models.SeasonalRate]{summer}, Amenities: datatypes.JSONSlice[string]{"WiFi", "TV", "Sofa bed"}},
		{RoomNumber: "301", Name: "Executive Suite", RoomType: models.RoomTypeSuite, Floor: "3", BasePricePerNight: 320, WeekendMultiplier: 1.3, Capacity: 4, SeasonalRates: datatypes.JSONSlice[models.SeasonalRate]{holidays}, Amenities: datatypes.JSONSlice[string]{"WiFi", "TV", "Minibar", "Lounge access"}},
	}
	for i := range rooms {
		rooms[i].Status = models.RoomStatusAvailable
		rooms[i].HousekeepingStatus = models.HousekeepingClean
	}

	if err := db.Create(&rooms).Error; err != nil {
		log.Printf("warning: failed to seed rooms: %v", err)
		return
	}
	log.Println("Rooms seeded")
}
