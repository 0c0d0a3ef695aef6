package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrorKind classifies a service failure for the HTTP layer.
type ErrorKind int

const (
	KindFatal ErrorKind = iota
	KindInvalid
	KindConflict
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindConflict:
		return "Conflict"
	case KindNotFound:
		return "NotFound"
	default:
		return "Fatal"
	}
}

// ServiceError carries a kind, a stable client-facing code and message,
// and the underlying cause for logs.
type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func Invalid(code, message string) error {
	return &ServiceError{Kind: KindInvalid, Code: code, Message: message}
}

func Conflict(code, message string) error {
	return &ServiceError{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) error {
	return &ServiceError{Kind: KindNotFound, Code: code, Message: message}
}

func Fatal(op string, err error) error {
	return &ServiceError{Kind: KindFatal, Code: "error.internal", Message: op, Err: err}
}

// KindOf returns the kind of err. Errors that are not ServiceErrors are Fatal.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindFatal
}

var (
	errBookingNotFound = NotFound("error.bookingNotFound", "Booking not found")
	errRoomNotFound    = NotFound("error.roomNotFound", "Room not found")
	errGuestNotFound   = NotFound("error.guestNotFound", "Guest not found")
	errTaskNotFound    = NotFound("error.taskNotFound", "Housekeeping task not found")
	errRoomBooked      = Conflict("error.roomBooked", "Room is already booked for these dates")
	errStaleBooking    = Conflict("error.concurrentUpdate", "Booking was modified concurrently, please retry")
)

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == 1451 || me.Number == 1452)
}

// storageError passes ServiceErrors through and classifies raw storage errors.
// A missing row becomes notFound (when given), a timeout or anything
// unrecognised becomes Fatal.
func storageError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Kind: KindFatal, Code: "error.timeout", Message: op + ": storage timed out", Err: err}
	}
	return Fatal(op, err)
}
