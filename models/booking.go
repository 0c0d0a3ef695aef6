package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BookingPending    = "Pending"
	BookingConfirmed  = "Confirmed"
	BookingCheckedIn  = "Checked In"
	BookingCheckedOut = "Checked Out"
	BookingCancelled  = "Cancelled"
	BookingNoShow     = "No Show"
)

const (
	ItemTypeRoom    = "Room"
	ItemTypeService = "Service"
)

const (
	PaymentPending  = "Pending"
	PaymentPartial  = "Partial"
	PaymentPaid     = "Paid"
	PaymentRefunded = "Refunded"
)

// ActiveBookingStatuses hold a room for their date range.
var ActiveBookingStatuses = []string{BookingPending, BookingConfirmed, BookingCheckedIn}

// NightlyCharge is one night of the room-cost breakdown captured at pricing time.
type NightlyCharge struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BookingReference string `gorm:"column:booking_reference;size:64;uniqueIndex" json:"bookingReference"`

	// Guest details are denormalized for display; GuestID links the ledger entry.
	GuestName        string `gorm:"column:guest_name;size:100" json:"guestName"`
	GuestEmail       string `gorm:"column:guest_email;size:150;index" json:"guestEmail"`
	GuestPhone       string `gorm:"column:guest_phone;size:40" json:"guestPhone"`
	GuestID          *uint  `gorm:"column:guest_id;index" json:"guestId,omitempty"`
	NumberOfGuests   int    `gorm:"column:number_of_guests;default:1" json:"numberOfGuests"`
	NumberOfAdults   int    `gorm:"column:number_of_adults;default:1" json:"numberOfAdults"`
	NumberOfChildren int    `gorm:"column:number_of_children;default:0" json:"numberOfChildren"`

	ItemType   string `gorm:"column:item_type;size:16;default:Room" json:"itemType"`
	ItemName   string `gorm:"column:item_name;size:150" json:"itemName"`
	RoomID     *uint  `gorm:"column:room_id;index" json:"roomId,omitempty"`
	RoomNumber string `gorm:"column:room_number;size:50" json:"roomNumber,omitempty"`
	RoomType   string `gorm:"column:room_type;size:32" json:"roomType,omitempty"`

	CheckIn  time.Time `gorm:"column:check_in;index:idx_booking_dates" json:"checkIn"`
	CheckOut time.Time `gorm:"column:check_out;index:idx_booking_dates" json:"checkOut"`
	Nights   int       `gorm:"column:nights" json:"nights"`

	Status        string `gorm:"column:status;size:32;index;default:Pending" json:"status"`
	BookingSource string `gorm:"column:booking_source;size:32;default:Online" json:"bookingSource"`

	BasePricePerNight float64                            `gorm:"column:base_price_per_night" json:"basePricePerNight"`
	NightlyRates      datatypes.JSONSlice[NightlyCharge] `gorm:"column:nightly_rates" json:"nightlyRates"`
	TotalRoomCost     float64                            `gorm:"column:total_room_cost" json:"totalRoomCost"`
	ServiceCharges    float64                            `gorm:"column:service_charges" json:"serviceCharges"`
	RestaurantCharges float64                            `gorm:"column:restaurant_charges" json:"restaurantCharges"`
	MinibarCharges    float64                            `gorm:"column:minibar_charges" json:"minibarCharges"`
	ParkingCharges    float64                            `gorm:"column:parking_charges" json:"parkingCharges"`
	OtherCharges      float64                            `gorm:"column:other_charges" json:"otherCharges"`
	DiscountAmount    float64                            `gorm:"column:discount_amount" json:"discountAmount"`
	DiscountCode      string                             `gorm:"column:discount_code;size:64" json:"discountCode,omitempty"`
	CorporateDiscount float64                            `gorm:"column:corporate_discount" json:"corporateDiscount"`
	TaxRate           float64                            `gorm:"column:tax_rate" json:"taxRate"`
	TaxAmount         float64                            `gorm:"column:tax_amount" json:"taxAmount"`
	TotalAmount       float64                            `gorm:"column:total_amount" json:"totalAmount"`
	DepositAmount     float64                            `gorm:"column:deposit_amount" json:"depositAmount"`
	BalanceAmount     float64                            `gorm:"column:balance_amount" json:"balanceAmount"`

	PaymentStatus    string     `gorm:"column:payment_status;size:16;default:Pending" json:"paymentStatus"`
	PaymentMethod    string     `gorm:"column:payment_method;size:32" json:"paymentMethod,omitempty"`
	PaymentReference string     `gorm:"column:payment_reference;size:128" json:"paymentReference,omitempty"`
	PaidAt           *time.Time `gorm:"column:paid_at" json:"paidAt,omitempty"`
	RefundedAt       *time.Time `gorm:"column:refunded_at" json:"refundedAt,omitempty"`
	RefundAmount     float64    `gorm:"column:refund_amount" json:"refundAmount"`

	SpecialRequests string `gorm:"column:special_requests;type:text" json:"specialRequests,omitempty"`

	CheckInTime        *time.Time `gorm:"column:check_in_time" json:"checkInTime,omitempty"`
	CheckedInBy        string     `gorm:"column:checked_in_by;size:150" json:"checkedInBy,omitempty"`
	CheckOutTime       *time.Time `gorm:"column:check_out_time" json:"checkOutTime,omitempty"`
	CheckedOutBy       string     `gorm:"column:checked_out_by;size:150" json:"checkedOutBy,omitempty"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CancelledBy        string     `gorm:"column:cancelled_by;size:150" json:"cancelledBy,omitempty"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text" json:"cancellationReason,omitempty"`

	InvoiceNumber      *string    `gorm:"column:invoice_number;size:64;uniqueIndex" json:"invoiceNumber,omitempty"`
	InvoiceGenerated   bool       `gorm:"column:invoice_generated;default:false" json:"invoiceGenerated"`
	InvoiceGeneratedAt *time.Time `gorm:"column:invoice_generated_at" json:"invoiceGeneratedAt,omitempty"`

	Version uint `gorm:"column:version;default:1" json:"version"`

	AdditionalServices []AdditionalService `gorm:"foreignKey:BookingID" json:"additionalServices"`
}

// AdditionalService is an itemized extra billed to a booking.
type AdditionalService struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	BookingID   uint      `gorm:"column:booking_id;index;not null" json:"bookingId"`
	ServiceName string    `gorm:"column:service_name;size:150" json:"serviceName"`
	Quantity    int       `gorm:"column:quantity;default:1" json:"quantity"`
	UnitPrice   float64   `gorm:"column:unit_price" json:"unitPrice"`
	TotalPrice  float64   `gorm:"column:total_price" json:"totalPrice"`
	Date        time.Time `gorm:"column:date" json:"date"`
}

func (AdditionalService) TableName() string { return "booking_additional_services" }

// IsActive reports whether the booking still holds its room for its date range.
func (b Booking) IsActive() bool {
	for _, s := range ActiveBookingStatuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status change is allowed.
func (b Booking) IsTerminal() bool {
	return b.Status == BookingCheckedOut || b.Status == BookingCancelled || b.Status == BookingNoShow
}

func IsValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCheckedIn, BookingCheckedOut, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}
