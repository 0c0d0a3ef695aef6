package services

import (
	"context"
	"testing"

	"hotel-booking/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestRoomCreateAndDuplicateNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.rooms.Create(ctx, RoomInput{
		RoomNumber:        "401",
		Name:              "Garden Deluxe",
		RoomType:          models.RoomTypeDeluxe,
		BasePricePerNight: floatPtr(180),
		WeekendMultiplier: floatPtr(1.25),
		Capacity:          intPtr(3),
		Amenities:         []string{"WiFi", "Balcony"},
	}, frontDesk)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if room.Status != models.RoomStatusAvailable || room.HousekeepingStatus != models.HousekeepingClean || !room.IsBookable() {
		t.Fatalf("new room should be bookable, got %s/%s", room.Status, room.HousekeepingStatus)
	}

	_, err = env.rooms.Create(ctx, RoomInput{RoomNumber: "401", BasePricePerNight: floatPtr(90)}, frontDesk)
	mustKind(t, err, KindConflict)

	_, err = env.rooms.Create(ctx, RoomInput{RoomNumber: "402"}, frontDesk)
	mustKind(t, err, KindInvalid)

	_, err = env.rooms.Create(ctx, RoomInput{RoomNumber: "403", BasePricePerNight: floatPtr(90), RoomType: "Igloo"}, frontDesk)
	mustKind(t, err, KindInvalid)
}

func TestRoomUpdateKeepsNumberAndState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := seedRoom(t, env.db, "404", 100, 1, 2)

	updated, err := env.rooms.Update(ctx, room.ID, RoomInput{BasePricePerNight: floatPtr(125), Capacity: intPtr(4)}, frontDesk)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.BasePricePerNight != 125 || updated.Capacity != 4 || updated.Status != models.RoomStatusAvailable {
		t.Fatalf("unexpected room after update: %+v", updated)
	}

	_, err = env.rooms.Update(ctx, room.ID, RoomInput{RoomNumber: "999"}, frontDesk)
	mustKind(t, err, KindInvalid)

	_, err = env.rooms.Update(ctx, 12345, RoomInput{Name: "ghost"}, frontDesk)
	mustKind(t, err, KindNotFound)
}

func TestRoomDeleteWithActiveBookingConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := seedRoom(t, env.db, "405", 100, 1, 2)
	in, out := weekdayStay()

	b, _, err := env.bookings.Create(ctx, bookingInput(uintPtr(room.ID), in, out), frontDesk)
	if err != nil {
		t.Fatalf("Create booking: %v", err)
	}
	err = env.rooms.Delete(ctx, room.ID, frontDesk)
	mustKind(t, err, KindConflict)

	if _, err := env.bookings.UpdateStatus(ctx, b.BookingReference, StatusUpdateInput{Status: models.BookingCancelled}, frontDesk); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := env.rooms.Delete(ctx, room.ID, frontDesk); err != nil {
		t.Fatalf("Delete after cancel: %v", err)
	}
	if _, err := env.rooms.Get(ctx, room.ID); KindOf(err) != KindNotFound {
		t.Fatalf("deleted room should be NotFound, got %v", err)
	}
}

func TestMaintenanceBlocksAndResolvesToAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := seedRoom(t, env.db, "406", 100, 1, 2)

	low, err := env.rooms.OpenMaintenance(ctx, room.ID, MaintenanceInput{Description: "Squeaky door", Priority: models.PriorityLow}, frontDesk)
	if err != nil {
		t.Fatalf("OpenMaintenance low: %v", err)
	}
	if r := reloadRoom(t, env.db, room.ID); r.IsMaintenanceBlocked || r.Status != models.RoomStatusAvailable {
		t.Fatalf("low priority request must not block the room, got %s blocked=%v", r.Status, r.IsMaintenanceBlocked)
	}

	high, err := env.rooms.OpenMaintenance(ctx, room.ID, MaintenanceInput{Description: "No hot water", Priority: models.PriorityHigh}, frontDesk)
	if err != nil {
		t.Fatalf("OpenMaintenance high: %v", err)
	}
	r := reloadRoom(t, env.db, room.ID)
	if !r.IsMaintenanceBlocked || r.Status != models.RoomStatusUnderMaintenance || r.IsBookable() {
		t.Fatalf("high priority request should block the room, got %s blocked=%v", r.Status, r.IsMaintenanceBlocked)
	}

	in, out := weekdayStay()
	_, _, err = env.bookings.Create(ctx, bookingInput(uintPtr(room.ID), in, out), frontDesk)
	mustKind(t, err, KindConflict)

	if _, err := env.rooms.ResolveMaintenance(ctx, room.ID, high.ID, frontDesk); err != nil {
		t.Fatalf("resolve high: %v", err)
	}
	if r := reloadRoom(t, env.db, room.ID); !r.IsMaintenanceBlocked {
		t.Fatalf("block must stay while a request is still open")
	}

	resolved, err := env.rooms.ResolveMaintenance(ctx, room.ID, low.ID, frontDesk)
	if err != nil {
		t.Fatalf("resolve low: %v", err)
	}
	if resolved.IsMaintenanceBlocked || resolved.Status != models.RoomStatusAvailable {
		t.Fatalf("expected Available and unblocked, got %s blocked=%v", resolved.Status, resolved.IsMaintenanceBlocked)
	}

	_, err = env.rooms.ResolveMaintenance(ctx, room.ID, low.ID, frontDesk)
	mustKind(t, err, KindConflict)
	_, err = env.rooms.ResolveMaintenance(ctx, room.ID, 9999, frontDesk)
	mustKind(t, err, KindNotFound)
}

func TestMaintenanceResolveRestoresReservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := seedRoom(t, env.db, "407", 100, 1, 2)
	in, out := weekdayStay()

	b, _, err := env.bookings.Create(ctx, bookingInput(uintPtr(room.ID), in, out), frontDesk)
	if err != nil {
		t.Fatalf("Create booking: %v", err)
	}
	req, err := env.rooms.OpenMaintenance(ctx, room.ID, MaintenanceInput{Description: "Leak", Priority: models.PriorityUrgent}, frontDesk)
	if err != nil {
		t.Fatalf("OpenMaintenance: %v", err)
	}
	resolved, err := env.rooms.ResolveMaintenance(ctx, room.ID, req.ID, frontDesk)
	if err != nil {
		t.Fatalf("ResolveMaintenance: %v", err)
	}
	if resolved.Status != models.RoomStatusReserved || resolved.CurrentBookingID == nil || *resolved.CurrentBookingID != b.ID {
		t.Fatalf("expected room Reserved for booking %d, got %s", b.ID, resolved.Status)
	}
}

func TestMaintenanceOnOccupiedRoomKeepsGuest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := seedRoom(t, env.db, "408", 100, 1, 2)
	in, out := weekdayStay()

	b, _, err := env.bookings.Create(ctx, bookingInput(uintPtr(room.ID), in, out), frontDesk)
	if err != nil {
		t.Fatalf("Create booking: %v", err)
	}
	if _, err := env.bookings.UpdateStatus(ctx, b.BookingReference, StatusUpdateInput{Status: models.BookingCheckedIn}, frontDesk); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, err := env.rooms.OpenMaintenance(ctx, room.ID, MaintenanceInput{Description: "AC broken", Priority: models.PriorityHigh}, frontDesk); err != nil {
		t.Fatalf("OpenMaintenance: %v", err)
	}
	r := reloadRoom(t, env.db, room.ID)
	if r.Status != models.RoomStatusOccupied || !r.IsMaintenanceBlocked {
		t.Fatalf("occupied room should stay Occupied with the block flag, got %s blocked=%v", r.Status, r.IsMaintenanceBlocked)
	}

	if _, err := env.bookings.UpdateStatus(ctx, b.BookingReference, StatusUpdateInput{Status: models.BookingCheckedOut}, frontDesk); err != nil {
		t.Fatalf("check out: %v", err)
	}
	r = reloadRoom(t, env.db, room.ID)
	if r.Status != models.RoomStatusUnderMaintenance || r.HousekeepingStatus != models.HousekeepingNeedsCleaning {
		t.Fatalf("blocked room should go Under Maintenance after check-out, got %s/%s", r.Status, r.HousekeepingStatus)
	}
}

func TestOpenMaintenanceValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := seedRoom(t, env.db, "409", 100, 1, 2)

	_, err := env.rooms.OpenMaintenance(ctx, room.ID, MaintenanceInput{Description: "x", Priority: "Whenever"}, frontDesk)
	mustKind(t, err, KindInvalid)
	_, err = env.rooms.OpenMaintenance(ctx, room.ID, MaintenanceInput{Description: "   "}, frontDesk)
	mustKind(t, err, KindInvalid)
	_, err = env.rooms.OpenMaintenance(ctx, 9999, MaintenanceInput{Description: "x"}, frontDesk)
	mustKind(t, err, KindNotFound)
}

func TestSetHousekeepingStatusStampsCleaning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := seedRoom(t, env.db, "410", 100, 1, 2)

	dirty, err := env.rooms.SetHousekeepingStatus(ctx, room.ID, models.HousekeepingNeedsCleaning, frontDesk)
	if err != nil {
		t.Fatalf("SetHousekeepingStatus: %v", err)
	}
	if dirty.IsBookable() {
		t.Fatalf("a room that needs cleaning must not be bookable")
	}
	clean, err := env.rooms.SetHousekeepingStatus(ctx, room.ID, models.HousekeepingClean, frontDesk)
	if err != nil {
		t.Fatalf("SetHousekeepingStatus clean: %v", err)
	}
	if clean.LastCleanedAt == nil || !clean.IsBookable() {
		t.Fatalf("clean room should be stamped and bookable: %+v", clean)
	}

	_, err = env.rooms.SetHousekeepingStatus(ctx, room.ID, "Sparkling", frontDesk)
	mustKind(t, err, KindInvalid)
}

func TestRoomListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedRoom(t, env.db, "412", 100, 1, 2)
	seedRoom(t, env.db, "411", 100, 1, 2)
	suite := seedRoom(t, env.db, "413", 300, 1, 2)
	env.db.Model(&models.Room{}).Where("id = ?", suite.ID).Update("room_type", models.RoomTypeSuite)

	rooms, err := env.rooms.List(ctx, RoomFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rooms) != 3 || rooms[0].RoomNumber != "411" {
		t.Fatalf("expected 3 rooms ordered by number, got %d", len(rooms))
	}
	rooms, err = env.rooms.List(ctx, RoomFilter{RoomType: models.RoomTypeSuite})
	if err != nil || len(rooms) != 1 || rooms[0].ID != suite.ID {
		t.Fatalf("type filter failed: %d rooms, err=%v", len(rooms), err)
	}
}
