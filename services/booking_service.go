package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strconv"
	"strings"
	"time"

	"hotel-booking/models"
	"hotel-booking/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingService drives a reservation through its lifecycle. Room state
// changes go through RoomService inside the same transaction; guest ledger
// and audit calls happen after commit and never fail the operation.
type BookingService struct {
	DB           *gorm.DB
	Rooms        *RoomService
	Guests       GuestLedger
	Housekeeping HousekeepingScheduler
	Audit        AuditSink
	Timeout      time.Duration

	validate *validator.Validate
}

func NewBookingService(db *gorm.DB, rooms *RoomService, guests GuestLedger, hk HousekeepingScheduler, audit AuditSink, timeout time.Duration) *BookingService {
	if audit == nil {
		audit = noopAudit{}
	}
	if rooms == nil {
		rooms = NewRoomService(db, audit, timeout)
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &BookingService{
		DB:           db,
		Rooms:        rooms,
		Guests:       guests,
		Housekeeping: hk,
		Audit:        audit,
		Timeout:      timeout,
		validate:     v,
	}
}

// ----------------------------------------------------
// Inputs
// ----------------------------------------------------

type CreateBookingInput struct {
	BookingReference string `json:"bookingReference" validate:"omitempty,max=64"`

	GuestName        string `json:"guestName" validate:"required,max=100"`
	GuestEmail       string `json:"guestEmail" validate:"required,email,max=150"`
	GuestPhone       string `json:"guestPhone" validate:"required,min=6,max=40"`
	NumberOfGuests   int    `json:"numberOfGuests" validate:"gte=0,lte=50"`
	NumberOfAdults   int    `json:"numberOfAdults" validate:"gte=0"`
	NumberOfChildren int    `json:"numberOfChildren" validate:"gte=0"`

	ItemType     string  `json:"itemType" validate:"omitempty,oneof=Room Service"`
	ItemName     string  `json:"itemName" validate:"max=150"`
	ServicePrice float64 `json:"servicePrice" validate:"gte=0"`
	RoomID       *uint   `json:"roomId"`

	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
	Status   string `json:"status" validate:"omitempty,oneof=Pending Confirmed"`

	BookingSource     string               `json:"bookingSource" validate:"max=32"`
	SpecialRequests   string               `json:"specialRequests"`
	DiscountAmount    float64              `json:"discountAmount" validate:"gte=0"`
	DiscountCode      string               `json:"discountCode" validate:"max=64"`
	CorporateDiscount float64              `json:"corporateDiscount" validate:"gte=0"`
	TaxRate           *float64             `json:"taxRate" validate:"omitempty,gte=0,lte=1"`
	DepositAmount     float64              `json:"depositAmount" validate:"gte=0"`
	Services          []ServiceChargeInput `json:"additionalServices" validate:"dive"`
}

type StatusUpdateInput struct {
	Status             string `json:"status"`
	RoomID             *uint  `json:"roomId"`
	CancelledBy        string `json:"cancelledBy"`
	CancellationReason string `json:"cancellationReason"`
	Version            *uint  `json:"version"`
}

// ServiceChargeInput adds either an itemized service (ServiceName set) or
// an amount to one of the charge buckets named by ChargeType.
type ServiceChargeInput struct {
	ChargeType  string  `json:"chargeType" validate:"omitempty,oneof=restaurant minibar parking other service"`
	ServiceName string  `json:"serviceName" validate:"max=150"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	Date        string  `json:"date"`
}

type PaymentInput struct {
	PaymentStatus    string   `json:"paymentStatus" validate:"required,oneof=Pending Partial Paid Refunded"`
	PaymentMethod    string   `json:"paymentMethod" validate:"max=32"`
	PaymentReference string   `json:"paymentReference" validate:"max=128"`
	DepositAmount    *float64 `json:"depositAmount" validate:"omitempty,gte=0"`
	RefundAmount     *float64 `json:"refundAmount" validate:"omitempty,gte=0"`
}

type BookingFilter struct {
	Status     string
	GuestEmail string
	RoomID     uint
	ItemType   string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (s *BookingService) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Invalid("error.validation", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return Invalid("error.validation", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	}
	return fe.Field() + " is invalid"
}

// ----------------------------------------------------
// Transitions
// ----------------------------------------------------

var bookingTransitions = map[string][]string{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCheckedIn, models.BookingCancelled, models.BookingNoShow},
	models.BookingConfirmed: {models.BookingCheckedIn, models.BookingCancelled, models.BookingNoShow},
	models.BookingCheckedIn: {models.BookingCheckedOut, models.BookingCancelled, models.BookingNoShow},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ----------------------------------------------------
// Storage helpers (all take the open transaction)
// ----------------------------------------------------

func bookingQuery(db *gorm.DB, key string) *gorm.DB {
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		return db.Where("id = ?", id)
	}
	return db.Where("booking_reference = ?", strings.TrimSpace(key))
}

// lockBooking loads the booking with a row lock, then its itemized services.
func lockBooking(tx *gorm.DB, key string) (*models.Booking, error) {
	var b models.Booking
	if err := bookingQuery(tx.Clauses(clause.Locking{Strength: "UPDATE"}), key).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBookingNotFound
		}
		return nil, err
	}
	if err := tx.Where("booking_id = ?", b.ID).Order("id ASC").Find(&b.AdditionalServices).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func bookingColumns(b *models.Booking) map[string]interface{} {
	return map[string]interface{}{
		"guest_id":             b.GuestID,
		"room_id":              b.RoomID,
		"room_number":          b.RoomNumber,
		"room_type":            b.RoomType,
		"status":               b.Status,
		"base_price_per_night": b.BasePricePerNight,
		"nightly_rates":        b.NightlyRates,
		"nights":               b.Nights,
		"total_room_cost":      b.TotalRoomCost,
		"service_charges":      b.ServiceCharges,
		"restaurant_charges":   b.RestaurantCharges,
		"minibar_charges":      b.MinibarCharges,
		"parking_charges":      b.ParkingCharges,
		"other_charges":        b.OtherCharges,
		"tax_amount":           b.TaxAmount,
		"total_amount":         b.TotalAmount,
		"deposit_amount":       b.DepositAmount,
		"balance_amount":       b.BalanceAmount,
		"payment_status":       b.PaymentStatus,
		"payment_method":       b.PaymentMethod,
		"payment_reference":    b.PaymentReference,
		"paid_at":              b.PaidAt,
		"refunded_at":          b.RefundedAt,
		"refund_amount":        b.RefundAmount,
		"check_in_time":        b.CheckInTime,
		"checked_in_by":        b.CheckedInBy,
		"check_out_time":       b.CheckOutTime,
		"checked_out_by":       b.CheckedOutBy,
		"cancelled_at":         b.CancelledAt,
		"cancelled_by":         b.CancelledBy,
		"cancellation_reason":  b.CancellationReason,
		"invoice_number":       b.InvoiceNumber,
		"invoice_generated":    b.InvoiceGenerated,
		"invoice_generated_at": b.InvoiceGeneratedAt,
	}
}

// saveBooking writes b back under a version compare-and-increment.
func saveBooking(tx *gorm.DB, b *models.Booking) error {
	prev := b.Version
	fields := bookingColumns(b)
	fields["version"] = prev + 1

	res := tx.Model(&models.Booking{}).Where("id = ? AND version = ?", b.ID, prev).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleBooking
	}
	b.Version = prev + 1
	return nil
}

// reserveNights inserts one row per occupied night. The unique
// (room_id, night) index turns a racing double booking into errRoomBooked.
func reserveNights(tx *gorm.DB, b *models.Booking) error {
	if b.RoomID == nil {
		return nil
	}
	nights := utils.EachNight(b.CheckIn, b.CheckOut)
	if len(nights) == 0 {
		return nil
	}
	rows := make([]models.BookingNight, 0, len(nights))
	for _, n := range nights {
		rows = append(rows, models.BookingNight{BookingID: b.ID, RoomID: *b.RoomID, Night: n})
	}
	if err := tx.Create(&rows).Error; err != nil {
		if isDuplicateKey(err) {
			return errRoomBooked
		}
		return err
	}
	return nil
}

func releaseNights(tx *gorm.DB, bookingID uint) error {
	return tx.Where("booking_id = ?", bookingID).Delete(&models.BookingNight{}).Error
}

func ensureInvoiceNumber(b *models.Booking) {
	if b.InvoiceNumber == nil {
		n := utils.NewInvoiceNumber()
		b.InvoiceNumber = &n
	}
}

// checkRoomFits rejects rooms that are out of service or too small.
func checkRoomFits(room *models.Room, guests int) error {
	if room.IsMaintenanceBlocked || room.Status == models.RoomStatusOutOfOrder {
		return Conflict("error.roomUnavailable", fmt.Sprintf("Room %s is not available for booking", room.RoomNumber))
	}
	if room.Capacity > 0 && guests > room.Capacity {
		return Invalid("error.capacityExceeded", fmt.Sprintf("Room %s holds at most %d guests", room.RoomNumber, room.Capacity))
	}
	return nil
}

// priceStay fills the room pricing fields of b from room.
func priceStay(b *models.Booking, room *models.Room) error {
	plan, cost, err := StayRates(*room, b.CheckIn, b.CheckOut)
	if err != nil {
		return err
	}
	b.BasePricePerNight = room.BasePricePerNight
	b.NightlyRates = datatypes.JSONSlice[models.NightlyCharge](plan)
	b.TotalRoomCost = cost
	return nil
}

func assignRoomFields(b *models.Booking, room *models.Room) {
	id := room.ID
	b.RoomID = &id
	b.RoomNumber = room.RoomNumber
	b.RoomType = room.RoomType
	if b.ItemName == "" || b.ItemType == models.ItemTypeRoom {
		b.ItemName = fmt.Sprintf("Room %s", room.RoomNumber)
	}
}

// auditFailure records a rejected mutation. before is the zero value when
// the booking was never loaded.
func (s *BookingService) auditFailure(actor Actor, action string, before models.Booking, attempted interface{}, err error) {
	entry := AuditEntry{Actor: actor, Action: action, EntityType: "Booking", EntityID: before.ID, After: attempted, Err: err}
	if before.ID != 0 {
		entry.Before = before
	}
	s.Audit.Record(entry)
}

// ----------------------------------------------------
// Create
// ----------------------------------------------------

// Create validates, prices and persists a booking. When the client supplies
// a booking reference that already exists, the existing booking is returned
// and created is false.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput, actor Actor) (booking *models.Booking, created bool, err error) {
	defer func() {
		if err != nil {
			s.auditFailure(actor, "booking.create", models.Booking{}, in, err)
		}
	}()

	if err := s.check(in); err != nil {
		return nil, false, err
	}
	checkIn, err := utils.ParseDate(in.CheckIn)
	if err != nil {
		return nil, false, Invalid("error.invalidDates", "checkIn: "+err.Error())
	}
	checkOut, err := utils.ParseDate(in.CheckOut)
	if err != nil {
		return nil, false, Invalid("error.invalidDates", "checkOut: "+err.Error())
	}
	if !checkOut.After(checkIn) {
		return nil, false, Invalid("error.invalidDates", "Check-out date must be after check-in date")
	}

	itemType := in.ItemType
	if itemType == "" {
		itemType = models.ItemTypeRoom
	}
	if itemType == models.ItemTypeService {
		if in.RoomID != nil {
			return nil, false, Invalid("error.validation", "Service bookings cannot reference a room")
		}
		if strings.TrimSpace(in.ItemName) == "" {
			return nil, false, Invalid("error.validation", "itemName is required for service bookings")
		}
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	reference := strings.TrimSpace(in.BookingReference)
	if reference != "" {
		if existing, ok, err := s.findByReference(db, reference); err != nil {
			return nil, false, storageError("BookingService.Create", err, nil)
		} else if ok {
			log.Printf("BookingService.Create: reference %s already exists, returning booking %d", reference, existing.ID)
			return existing, false, nil
		}
	} else {
		reference = utils.NewBookingReference()
	}

	var guestID *uint
	if s.Guests != nil {
		if g, gErr := s.Guests.FindOrCreateByEmail(ctx, in.GuestEmail, in.GuestName, in.GuestPhone); gErr != nil {
			log.Printf("⚠️ BookingService.Create: guest ledger lookup failed for %s: %v", utils.MaskEmail(in.GuestEmail), gErr)
		} else {
			guestID = &g.ID
		}
	}

	adults := in.NumberOfAdults
	if adults <= 0 {
		adults = 1
	}
	guests := in.NumberOfGuests
	if guests <= 0 {
		guests = adults + in.NumberOfChildren
	}

	b := models.Booking{
		BookingReference:  reference,
		GuestName:         strings.TrimSpace(in.GuestName),
		GuestEmail:        normalizeEmail(in.GuestEmail),
		GuestPhone:        strings.TrimSpace(in.GuestPhone),
		GuestID:           guestID,
		NumberOfGuests:    guests,
		NumberOfAdults:    adults,
		NumberOfChildren:  in.NumberOfChildren,
		ItemType:          itemType,
		ItemName:          strings.TrimSpace(in.ItemName),
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		Nights:            utils.Nights(checkIn, checkOut),
		Status:            models.BookingPending,
		BookingSource:     in.BookingSource,
		SpecialRequests:   in.SpecialRequests,
		DiscountAmount:    in.DiscountAmount,
		DiscountCode:      in.DiscountCode,
		CorporateDiscount: in.CorporateDiscount,
		DepositAmount:     in.DepositAmount,
		PaymentStatus:     models.PaymentPending,
		NightlyRates:      datatypes.JSONSlice[models.NightlyCharge]{},
		Version:           1,
	}
	if b.BookingSource == "" {
		b.BookingSource = "Online"
	}
	if in.Status != "" {
		b.Status = in.Status
	}
	if in.DepositAmount > 0 {
		b.PaymentStatus = models.PaymentPartial
	}
	if itemType == models.ItemTypeService {
		b.ServiceCharges = roundCents(in.ServicePrice)
	}
	for _, svc := range in.Services {
		line, err := newAdditionalService(svc, checkIn)
		if err != nil {
			return nil, false, err
		}
		b.AdditionalServices = append(b.AdditionalServices, line)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if in.TaxRate != nil {
			b.TaxRate = *in.TaxRate
		} else {
			hotel, err := currentSettings(tx)
			if err != nil {
				return err
			}
			b.TaxRate = hotel.DefaultTaxRate
		}

		var room *models.Room
		if in.RoomID != nil {
			room, err = lockRoom(tx, *in.RoomID)
			if err != nil {
				return err
			}
			if err := checkRoomFits(room, b.NumberOfGuests); err != nil {
				return err
			}
			conflict, err := hasConflictTx(tx, room.ID, checkIn, checkOut, 0)
			if err != nil {
				return err
			}
			if conflict {
				return errRoomBooked
			}
			if err := priceStay(&b, room); err != nil {
				return err
			}
			assignRoomFields(&b, room)
		}

		applyTotals(&b)
		if b.Status == models.BookingConfirmed {
			ensureInvoiceNumber(&b)
		}

		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		if room != nil {
			if err := reserveNights(tx, &b); err != nil {
				return err
			}
			if err := s.Rooms.MarkReserved(tx, room, b.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if in.BookingReference != "" && isDuplicateKey(err) {
			// a concurrent retry with the same reference won the insert
			if existing, ok, findErr := s.findByReference(s.DB.WithContext(ctx), reference); findErr == nil && ok {
				return existing, false, nil
			}
		}
		if isDuplicateKey(err) {
			err = Conflict("error.duplicateBooking", "A booking with this reference already exists")
		}
		return nil, false, storageError("BookingService.Create", err, nil)
	}

	log.Printf("BookingService.Create: booking %d (%s) %s %s", b.ID, b.BookingReference, b.ItemName, utils.FormatStay(b.CheckIn, b.CheckOut))
	s.Audit.Record(AuditEntry{Actor: actor, Action: "booking.create", EntityType: "Booking", EntityID: b.ID, After: b})

	if s.Guests != nil && guestID != nil {
		lctx, lcancel := detached(s.Timeout)
		if err := s.Guests.IncrementBookings(lctx, *guestID); err != nil {
			log.Printf("⚠️ BookingService.Create: guest %d booking count not updated: %v", *guestID, err)
		}
		lcancel()
	}

	return &b, true, nil
}

func (s *BookingService) findByReference(db *gorm.DB, reference string) (*models.Booking, bool, error) {
	var b models.Booking
	err := db.Preload("AdditionalServices").Where("booking_reference = ?", reference).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &b, true, nil
}

func newAdditionalService(in ServiceChargeInput, fallbackDate time.Time) (models.AdditionalService, error) {
	name := strings.TrimSpace(in.ServiceName)
	if name == "" {
		return models.AdditionalService{}, Invalid("error.validation", "serviceName is required")
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}
	unit := in.UnitPrice
	if unit == 0 {
		unit = in.Amount
	}
	if unit <= 0 {
		return models.AdditionalService{}, Invalid("error.validation", "unitPrice or amount must be positive")
	}
	date := fallbackDate
	if in.Date != "" {
		d, err := utils.ParseDate(in.Date)
		if err != nil {
			return models.AdditionalService{}, Invalid("error.invalidDates", "date: "+err.Error())
		}
		date = d
	}
	return models.AdditionalService{
		ServiceName: name,
		Quantity:    qty,
		UnitPrice:   roundCents(unit),
		TotalPrice:  roundCents(unit * float64(qty)),
		Date:        date,
	}, nil
}

// ----------------------------------------------------
// Reads
// ----------------------------------------------------

// Get looks a booking up by numeric id or booking reference.
func (s *BookingService) Get(ctx context.Context, key string) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var b models.Booking
	if err := bookingQuery(s.DB.WithContext(ctx).Preload("AdditionalServices"), key).First(&b).Error; err != nil {
		return nil, storageError("BookingService.Get", err, errBookingNotFound)
	}
	return &b, nil
}

func (s *BookingService) List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	q := s.DB.WithContext(ctx).Model(&models.Booking{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.GuestEmail != "" {
		q = q.Where("guest_email = ?", normalizeEmail(f.GuestEmail))
	}
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.ItemType != "" {
		q = q.Where("item_type = ?", f.ItemType)
	}
	// date range filter uses the same half-open overlap as availability
	if f.From != nil {
		q = q.Where("check_out > ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("check_in < ?", *f.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, storageError("BookingService.List", err, nil)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []models.Booking
	if err := q.Preload("AdditionalServices").
		Order("check_in DESC, id DESC").
		Limit(limit).Offset(f.Offset).
		Find(&list).Error; err != nil {
		return nil, 0, storageError("BookingService.List", err, nil)
	}
	return list, total, nil
}

func (s *BookingService) Invoice(ctx context.Context, key string) (*Invoice, error) {
	b, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	inv := BuildInvoice(*b)
	return &inv, nil
}

// ----------------------------------------------------
// Status transitions
// ----------------------------------------------------

type stayOutcome struct {
	guestID *uint
	email   string
	name    string
	phone   string
	nights  int
	total   float64
}

func (s *BookingService) UpdateStatus(ctx context.Context, key string, in StatusUpdateInput, actor Actor) (booking *models.Booking, err error) {
	var (
		before, after models.Booking
		stay          *stayOutcome
	)
	target := strings.TrimSpace(in.Status)
	defer func() {
		if err != nil {
			s.auditFailure(actor, "booking.status."+statusAction(target), before, in, err)
		}
	}()

	if !models.IsValidBookingStatus(target) {
		return nil, Invalid("error.invalidStatus", "Unknown booking status: "+target)
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, key)
		if err != nil {
			return err
		}
		before = *b
		if in.Version != nil && *in.Version != b.Version {
			return errStaleBooking
		}
		if !CanTransition(b.Status, target) {
			return Conflict("error.invalidTransition", fmt.Sprintf("Cannot change booking status from %s to %s", b.Status, target))
		}

		now := time.Now().UTC()
		switch target {
		case models.BookingConfirmed:
			if b.RoomID != nil {
				room, err := lockRoom(tx, *b.RoomID)
				if err != nil {
					return err
				}
				if err := s.Rooms.MarkReserved(tx, room, b.ID); err != nil {
					return err
				}
			}
			ensureInvoiceNumber(b)

		case models.BookingCheckedIn:
			if err := s.checkIn(tx, b, in.RoomID); err != nil {
				return err
			}
			b.CheckInTime = &now
			b.CheckedInBy = actor.Label()
			ensureInvoiceNumber(b)

		case models.BookingCheckedOut:
			if err := s.checkOut(tx, b, now, actor); err != nil {
				return err
			}
			stay = &stayOutcome{
				guestID: b.GuestID,
				email:   b.GuestEmail,
				name:    b.GuestName,
				phone:   b.GuestPhone,
				nights:  b.Nights,
				total:   b.TotalAmount,
			}

		case models.BookingCancelled:
			if err := s.releaseRoom(tx, b, false); err != nil {
				return err
			}
			b.CancelledAt = &now
			b.CancelledBy = strings.TrimSpace(in.CancelledBy)
			if b.CancelledBy == "" {
				b.CancelledBy = actor.Label()
			}
			b.CancellationReason = strings.TrimSpace(in.CancellationReason)

		case models.BookingNoShow:
			if err := s.releaseRoom(tx, b, b.Status == models.BookingCheckedIn); err != nil {
				return err
			}
		}

		b.Status = target
		applyTotals(b)
		if err := saveBooking(tx, b); err != nil {
			return err
		}
		after = *b
		return nil
	})
	if err != nil {
		return nil, storageError("BookingService.UpdateStatus", err, errBookingNotFound)
	}

	log.Printf("BookingService.UpdateStatus: booking %d %s -> %s by %s", after.ID, before.Status, after.Status, actor.Label())
	s.Audit.Record(AuditEntry{Actor: actor, Action: "booking.status." + statusAction(target), EntityType: "Booking", EntityID: after.ID, Before: before, After: after})

	if stay != nil {
		s.recordStay(after.ID, stay)
	}
	return &after, nil
}

func statusAction(status string) string {
	return strings.ToLower(strings.ReplaceAll(status, " ", "_"))
}

// checkIn puts the guest into the booking's room, assigning roomID first
// when the booking has none or a different one was requested.
func (s *BookingService) checkIn(tx *gorm.DB, b *models.Booking, roomID *uint) error {
	if b.ItemType == models.ItemTypeService {
		return nil
	}
	if roomID != nil && (b.RoomID == nil || *b.RoomID != *roomID) {
		if err := s.moveToRoom(tx, b, *roomID); err != nil {
			return err
		}
	}
	if b.RoomID == nil {
		return Invalid("error.roomRequired", "A room must be assigned before check-in")
	}
	room, err := lockRoom(tx, *b.RoomID)
	if err != nil {
		return err
	}
	return s.Rooms.MarkOccupied(tx, room, b.ID)
}

func (s *BookingService) checkOut(tx *gorm.DB, b *models.Booking, now time.Time, actor Actor) error {
	b.CheckOutTime = &now
	b.CheckedOutBy = actor.Label()
	ensureInvoiceNumber(b)
	b.InvoiceGenerated = true
	b.InvoiceGeneratedAt = &now

	if b.RoomID == nil {
		return nil
	}
	room, err := lockRoom(tx, *b.RoomID)
	if err != nil {
		return err
	}
	if err := s.Rooms.Release(tx, room, b.ID, true); err != nil {
		return err
	}
	if err := releaseNights(tx, b.ID); err != nil {
		return err
	}

	if s.Housekeeping == nil {
		return nil
	}
	hotel, err := currentSettings(tx)
	if err != nil {
		return err
	}
	due := now.Add(time.Duration(hotel.CheckoutCleanDueMinutes) * time.Minute)
	bookingID := b.ID
	_, err = s.Housekeeping.EnqueueTask(tx, TaskRequest{
		RoomID:       room.ID,
		RoomNumber:   room.RoomNumber,
		TaskType:     models.TaskCheckoutClean,
		Priority:     models.PriorityHigh,
		ScheduledFor: now,
		DueBy:        &due,
		BookingID:    &bookingID,
		GuestName:    b.GuestName,
		CheckoutTime: &now,
		Notes:        "Booking " + b.BookingReference,
	})
	return err
}

// releaseRoom frees the booking's room and its reserved nights.
func (s *BookingService) releaseRoom(tx *gorm.DB, b *models.Booking, needsCleaning bool) error {
	if b.RoomID == nil {
		return nil
	}
	room, err := lockRoom(tx, *b.RoomID)
	if err != nil {
		if errors.Is(err, errRoomNotFound) {
			return releaseNights(tx, b.ID)
		}
		return err
	}
	if err := s.Rooms.Release(tx, room, b.ID, needsCleaning); err != nil {
		return err
	}
	return releaseNights(tx, b.ID)
}

// recordStay updates the guest ledger after a check-out has committed.
func (s *BookingService) recordStay(bookingID uint, stay *stayOutcome) {
	if s.Guests == nil {
		return
	}
	ctx, cancel := detached(s.Timeout)
	defer cancel()

	guestID := stay.guestID
	if guestID == nil {
		g, err := s.Guests.FindOrCreateByEmail(ctx, stay.email, stay.name, stay.phone)
		if err != nil {
			log.Printf("⚠️ BookingService: booking %d checked out but guest lookup failed: %v", bookingID, err)
			return
		}
		guestID = &g.ID
	}
	if err := s.Guests.RecordStay(ctx, *guestID, stay.nights, stay.total); err != nil {
		log.Printf("⚠️ BookingService: booking %d checked out but guest %d stay not recorded: %v", bookingID, *guestID, err)
	}
	if points := PointsForStay(stay.total); points > 0 {
		if _, err := s.Guests.AwardPoints(ctx, *guestID, points, fmt.Sprintf("stay booking %d", bookingID)); err != nil {
			log.Printf("⚠️ BookingService: booking %d checked out but guest %d points not awarded: %v", bookingID, *guestID, err)
		}
	}
}

// ----------------------------------------------------
// Room assignment
// ----------------------------------------------------

// moveToRoom switches b to roomID: conflict check excluding b itself,
// release of the previous room and its nights, reprice while the stay
// has not started, reserve the new nights, and drive the new room.
func (s *BookingService) moveToRoom(tx *gorm.DB, b *models.Booking, roomID uint) error {
	var oldRoom, newRoom *models.Room
	var err error

	// lock rooms in id order
	if b.RoomID != nil && *b.RoomID < roomID {
		if oldRoom, err = lockRoom(tx, *b.RoomID); err != nil && !errors.Is(err, errRoomNotFound) {
			return err
		}
	}
	if newRoom, err = lockRoom(tx, roomID); err != nil {
		return err
	}
	if b.RoomID != nil && *b.RoomID > roomID {
		if oldRoom, err = lockRoom(tx, *b.RoomID); err != nil && !errors.Is(err, errRoomNotFound) {
			return err
		}
	}

	if err := checkRoomFits(newRoom, b.NumberOfGuests); err != nil {
		return err
	}
	conflict, err := hasConflictTx(tx, roomID, b.CheckIn, b.CheckOut, b.ID)
	if err != nil {
		return err
	}
	if conflict {
		return errRoomBooked
	}

	if err := releaseNights(tx, b.ID); err != nil {
		return err
	}
	if oldRoom != nil {
		if err := s.Rooms.Release(tx, oldRoom, b.ID, b.Status == models.BookingCheckedIn); err != nil {
			return err
		}
	}

	assignRoomFields(b, newRoom)
	if b.Status == models.BookingPending || b.Status == models.BookingConfirmed {
		if err := priceStay(b, newRoom); err != nil {
			return err
		}
	}
	if err := reserveNights(tx, b); err != nil {
		return err
	}

	switch b.Status {
	case models.BookingPending, models.BookingConfirmed:
		return s.Rooms.MarkReserved(tx, newRoom, b.ID)
	case models.BookingCheckedIn:
		return s.Rooms.MarkOccupied(tx, newRoom, b.ID)
	}
	return nil
}

// AssignRoom assigns or reassigns the booking's room. On a conflict the
// booking is left unchanged.
func (s *BookingService) AssignRoom(ctx context.Context, key string, roomID uint, actor Actor) (booking *models.Booking, err error) {
	var before, after models.Booking
	defer func() {
		if err != nil {
			s.auditFailure(actor, "booking.assign_room", before, map[string]interface{}{"roomId": roomID}, err)
		}
	}()

	if roomID == 0 {
		return nil, Invalid("error.roomRequired", "roomId is required")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, key)
		if err != nil {
			return err
		}
		before = *b

		if b.ItemType == models.ItemTypeService {
			return Invalid("error.serviceBooking", "Service bookings do not take a room")
		}
		if b.IsTerminal() {
			return Conflict("error.invalidTransition", "Cannot assign a room to a "+b.Status+" booking")
		}
		if b.RoomID != nil && *b.RoomID == roomID {
			after = *b
			return nil
		}

		if err := s.moveToRoom(tx, b, roomID); err != nil {
			return err
		}
		applyTotals(b)
		if err := saveBooking(tx, b); err != nil {
			return err
		}
		after = *b
		return nil
	})
	if err != nil {
		return nil, storageError("BookingService.AssignRoom", err, errBookingNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "booking.assign_room", EntityType: "Booking", EntityID: after.ID, Before: before, After: after})
	return &after, nil
}

// ----------------------------------------------------
// Charges & payments
// ----------------------------------------------------

// AddServiceCharge appends a charge and recomputes the total. Status is untouched.
func (s *BookingService) AddServiceCharge(ctx context.Context, key string, in ServiceChargeInput, actor Actor) (booking *models.Booking, err error) {
	var before, after models.Booking
	defer func() {
		if err != nil {
			s.auditFailure(actor, "booking.service_charge", before, in, err)
		}
	}()

	if err := s.check(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ServiceName) == "" && in.ChargeType == "" {
		return nil, Invalid("error.validation", "chargeType or serviceName is required")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, key)
		if err != nil {
			return err
		}
		before = *b
		if b.Status == models.BookingCancelled || b.Status == models.BookingNoShow {
			return Conflict("error.invalidTransition", "Cannot add charges to a "+b.Status+" booking")
		}

		if strings.TrimSpace(in.ServiceName) != "" {
			line, err := newAdditionalService(in, time.Now().UTC())
			if err != nil {
				return err
			}
			line.BookingID = b.ID
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			b.AdditionalServices = append(b.AdditionalServices, line)
		} else {
			amount := roundCents(in.Amount)
			if amount <= 0 {
				return Invalid("error.validation", "amount must be positive")
			}
			switch in.ChargeType {
			case "restaurant":
				b.RestaurantCharges = roundCents(b.RestaurantCharges + amount)
			case "minibar":
				b.MinibarCharges = roundCents(b.MinibarCharges + amount)
			case "parking":
				b.ParkingCharges = roundCents(b.ParkingCharges + amount)
			case "service":
				b.ServiceCharges = roundCents(b.ServiceCharges + amount)
			default:
				b.OtherCharges = roundCents(b.OtherCharges + amount)
			}
		}

		applyTotals(b)
		if err := saveBooking(tx, b); err != nil {
			return err
		}
		after = *b
		return nil
	})
	if err != nil {
		return nil, storageError("BookingService.AddServiceCharge", err, errBookingNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "booking.service_charge", EntityType: "Booking", EntityID: after.ID, Before: before, After: after})
	return &after, nil
}

// RecordPayment stores the external payment signal and recomputes the balance.
func (s *BookingService) RecordPayment(ctx context.Context, key string, in PaymentInput, actor Actor) (booking *models.Booking, err error) {
	var before, after models.Booking
	defer func() {
		if err != nil {
			s.auditFailure(actor, "booking.payment", before, in, err)
		}
	}()

	if err := s.check(in); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, key)
		if err != nil {
			return err
		}
		before = *b

		now := time.Now().UTC()
		b.PaymentStatus = in.PaymentStatus
		if in.PaymentMethod != "" {
			b.PaymentMethod = in.PaymentMethod
		}
		if in.PaymentReference != "" {
			b.PaymentReference = in.PaymentReference
		}
		if in.DepositAmount != nil {
			b.DepositAmount = roundCents(*in.DepositAmount)
		}

		switch in.PaymentStatus {
		case models.PaymentPaid:
			if in.DepositAmount == nil {
				b.DepositAmount = CalculateTotal(*b).Total
			}
			b.PaidAt = &now
		case models.PaymentRefunded:
			refund := b.DepositAmount
			if in.RefundAmount != nil {
				refund = roundCents(*in.RefundAmount)
			}
			if refund > b.DepositAmount {
				return Invalid("error.invalidRefund", "Refund exceeds the amount paid")
			}
			b.RefundAmount = refund
			b.RefundedAt = &now
		}

		applyTotals(b)
		if err := saveBooking(tx, b); err != nil {
			return err
		}
		after = *b
		return nil
	})
	if err != nil {
		return nil, storageError("BookingService.RecordPayment", err, errBookingNotFound)
	}

	s.Audit.Record(AuditEntry{Actor: actor, Action: "booking.payment", EntityType: "Booking", EntityID: after.ID, Before: before, After: after})
	return &after, nil
}

// ----------------------------------------------------
// Delete
// ----------------------------------------------------

// Delete releases the booking's room and nights, then removes the booking.
func (s *BookingService) Delete(ctx context.Context, key string, actor Actor) (err error) {
	var before models.Booking
	defer func() {
		if err != nil {
			s.auditFailure(actor, "booking.delete", before, nil, err)
		}
	}()

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, key)
		if err != nil {
			return err
		}
		before = *b

		if err := s.releaseRoom(tx, b, b.Status == models.BookingCheckedIn); err != nil {
			return err
		}
		return tx.Delete(&models.Booking{}, b.ID).Error
	})
	if err != nil {
		return storageError("BookingService.Delete", err, errBookingNotFound)
	}

	log.Printf("BookingService.Delete: booking %d (%s) deleted by %s", before.ID, before.BookingReference, actor.Label())
	s.Audit.Record(AuditEntry{Actor: actor, Action: "booking.delete", EntityType: "Booking", EntityID: before.ID, Before: before})
	return nil
}
