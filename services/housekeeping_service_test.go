package services

import (
	"context"
	"testing"

	"hotel-booking/models"
)

func checkedOutRoomTask(t *testing.T, env *testEnv, number string) (models.Room, models.HousekeepingTask) {
	t.Helper()
	ctx := context.Background()
	room := seedRoom(t, env.db, number, 100, 1, 2)
	in, out := weekdayStay()

	b, _, err := env.bookings.Create(ctx, bookingInput(uintPtr(room.ID), in, out), frontDesk)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, status := range []string{models.BookingCheckedIn, models.BookingCheckedOut} {
		if _, err := env.bookings.UpdateStatus(ctx, b.BookingReference, StatusUpdateInput{Status: status}, frontDesk); err != nil {
			t.Fatalf("%s: %v", status, err)
		}
	}
	tasks, err := env.housekeeping.ListTasks(ctx, TaskFilter{RoomID: room.ID, Status: models.TaskPending})
	if err != nil || len(tasks) != 1 {
		t.Fatalf("expected one pending task, got %d err=%v", len(tasks), err)
	}
	return room, tasks[0]
}

func TestTaskCompletionCleansRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, task := checkedOutRoomTask(t, env, "501")

	started, err := env.housekeeping.UpdateTaskStatus(ctx, task.ID, models.TaskInProgress, "", Actor{Name: "Housekeeper"})
	if err != nil {
		t.Fatalf("start task: %v", err)
	}
	if started.StartedAt == nil {
		t.Fatalf("start time not stamped")
	}
	if r := reloadRoom(t, env.db, room.ID); r.HousekeepingStatus != models.HousekeepingInProgress {
		t.Fatalf("expected room housekeeping In Progress, got %s", r.HousekeepingStatus)
	}

	done, err := env.housekeeping.UpdateTaskStatus(ctx, task.ID, models.TaskCompleted, "fresh linens", Actor{Name: "Housekeeper"})
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if done.CompletedAt == nil || done.Notes != "fresh linens" {
		t.Fatalf("completion not stamped: %+v", done)
	}
	r := reloadRoom(t, env.db, room.ID)
	if r.HousekeepingStatus != models.HousekeepingClean || r.LastCleanedAt == nil || !r.IsBookable() {
		t.Fatalf("room should be clean and bookable, got %s/%s", r.Status, r.HousekeepingStatus)
	}

	_, err = env.housekeeping.UpdateTaskStatus(ctx, task.ID, models.TaskInProgress, "", Actor{Name: "Housekeeper"})
	mustKind(t, err, KindConflict)

	passed, err := env.housekeeping.InspectTask(ctx, task.ID, true, "", Actor{Name: "Supervisor"})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if passed.Status != models.TaskInspected || passed.InspectedBy != "Supervisor" {
		t.Fatalf("unexpected inspected task: %+v", passed)
	}
	if r := reloadRoom(t, env.db, room.ID); r.HousekeepingStatus != models.HousekeepingClean {
		t.Fatalf("passed inspection should keep the room Clean, got %s", r.HousekeepingStatus)
	}
}

func TestFailedInspectionSendsRoomBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, task := checkedOutRoomTask(t, env, "502")

	_, err := env.housekeeping.InspectTask(ctx, task.ID, false, "", Actor{Name: "Supervisor"})
	mustKind(t, err, KindConflict)

	if _, err := env.housekeeping.UpdateTaskStatus(ctx, task.ID, models.TaskCompleted, "", Actor{Name: "Housekeeper"}); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	failed, err := env.housekeeping.InspectTask(ctx, task.ID, false, "dust under bed", Actor{Name: "Supervisor"})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if failed.Status != models.TaskFailed || failed.Notes != "dust under bed" {
		t.Fatalf("unexpected failed task: %+v", failed)
	}
	if r := reloadRoom(t, env.db, room.ID); r.HousekeepingStatus != models.HousekeepingNeedsCleaning {
		t.Fatalf("failed inspection should mark the room Needs Cleaning, got %s", r.HousekeepingStatus)
	}

	if _, err := env.housekeeping.UpdateTaskStatus(ctx, task.ID, models.TaskInProgress, "", Actor{Name: "Housekeeper"}); err != nil {
		t.Fatalf("failed task should be re-openable: %v", err)
	}
}

func TestUpdateTaskStatusValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.housekeeping.UpdateTaskStatus(ctx, 1, models.TaskInspected, "", frontDesk)
	mustKind(t, err, KindInvalid)
	_, err = env.housekeeping.UpdateTaskStatus(ctx, 4242, models.TaskCompleted, "", frontDesk)
	mustKind(t, err, KindNotFound)
}
