package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func TestStorageErrorClassification(t *testing.T) {
	if storageError("op", nil, errRoomNotFound) != nil {
		t.Fatalf("nil error should stay nil")
	}

	if err := storageError("op", errRoomBooked, nil); err != errRoomBooked {
		t.Fatalf("service errors should pass through, got %v", err)
	}

	wrapped := fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound)
	if err := storageError("op", wrapped, errBookingNotFound); err != errBookingNotFound {
		t.Fatalf("missing row should map to the not-found error, got %v", err)
	}
	if KindOf(storageError("op", gorm.ErrRecordNotFound, nil)) != KindFatal {
		t.Fatalf("missing row without a not-found error is Fatal")
	}

	timeout := storageError("op", context.DeadlineExceeded, nil)
	var se *ServiceError
	if !errors.As(timeout, &se) || se.Kind != KindFatal || se.Code != "error.timeout" {
		t.Fatalf("deadline should map to error.timeout, got %v", timeout)
	}
	if !errors.Is(timeout, context.DeadlineExceeded) {
		t.Fatalf("timeout should unwrap to the cause")
	}

	if KindOf(storageError("op", errors.New("disk on fire"), nil)) != KindFatal {
		t.Fatalf("unknown errors should be Fatal")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{Invalid("c", "m"), KindInvalid},
		{Conflict("c", "m"), KindConflict},
		{NotFound("c", "m"), KindNotFound},
		{Fatal("op", errors.New("x")), KindFatal},
		{fmt.Errorf("wrapped: %w", Conflict("c", "m")), KindConflict},
		{errors.New("plain"), KindFatal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.want, got)
		}
	}
}

func TestDuplicateKeyDetection(t *testing.T) {
	if !isDuplicateKey(gorm.ErrDuplicatedKey) {
		t.Fatalf("gorm duplicate key not detected")
	}
	if !isDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}) {
		t.Fatalf("mysql 1062 not detected")
	}
	if isDuplicateKey(&mysql.MySQLError{Number: 1452}) {
		t.Fatalf("foreign key error reported as duplicate")
	}
	if !isForeignKeyViolation(&mysql.MySQLError{Number: 1452}) {
		t.Fatalf("mysql 1452 not detected as foreign key violation")
	}
}
