package models

import "time"

// BookingNight is one occupied night of a room. The unique (room_id, night)
// index rejects a second active booking for the same room and night at
// write time, independently of the availability check.
type BookingNight struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookingID uint      `gorm:"column:booking_id;index;not null" json:"bookingId"`
	RoomID    uint      `gorm:"column:room_id;not null;uniqueIndex:idx_room_night" json:"roomId"`
	Night     time.Time `gorm:"column:night;type:date;not null;uniqueIndex:idx_room_night" json:"night"`
}
