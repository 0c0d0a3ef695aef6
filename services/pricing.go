package services

import (
	"math"
	"time"

	"hotel-booking/models"
	"hotel-booking/utils"
)

// roundCents rounds half-up on the cent boundary. The small bias absorbs
// binary representation error so 33.335 rounds to 33.34.
func roundCents(v float64) float64 {
	return math.Floor(v*100+0.5+1e-7) / 100
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NightlyRate prices one night of room. The first seasonal rule whose
// inclusive [StartDate, EndDate] range contains the date wins.
func NightlyRate(room models.Room, date time.Time) float64 {
	day := utils.DateOnly(date)
	rate := room.BasePricePerNight

	if isWeekend(day) && room.WeekendMultiplier > 0 {
		rate *= room.WeekendMultiplier
	}

	for _, rule := range room.SeasonalRates {
		start := utils.DateOnly(rule.StartDate)
		end := utils.DateOnly(rule.EndDate)
		if !day.Before(start) && !day.After(end) {
			rate *= rule.Multiplier
			break
		}
	}

	return roundCents(rate)
}

// StayRates prices every night of [checkIn, checkOut).
func StayRates(room models.Room, checkIn, checkOut time.Time) ([]models.NightlyCharge, float64, error) {
	nights := utils.Nights(checkIn, checkOut)
	if nights < 0 {
		return nil, 0, Invalid("error.invalidDates", "Check-out date must be after check-in date")
	}

	charges := make([]models.NightlyCharge, 0, nights)
	total := 0.0
	for _, night := range utils.EachNight(checkIn, checkOut) {
		rate := NightlyRate(room, night)
		charges = append(charges, models.NightlyCharge{Date: night, Rate: rate})
		total += rate
	}
	return charges, roundCents(total), nil
}

// Totals is the result of pricing a booking's financial fields.
type Totals struct {
	RoomCost           float64 `json:"roomCost"`
	ServiceCharges     float64 `json:"serviceCharges"`
	AdditionalServices float64 `json:"additionalServices"`
	OtherCharges       float64 `json:"otherCharges"`
	Discounts          float64 `json:"discounts"`
	Subtotal           float64 `json:"subtotal"`
	TaxAmount          float64 `json:"taxAmount"`
	Total              float64 `json:"total"`
	Balance            float64 `json:"balance"`
}

// CalculateTotal derives totals from b without mutating it. Calling it
// repeatedly on the same booking returns the same result.
func CalculateTotal(b models.Booking) Totals {
	var t Totals

	t.RoomCost = b.TotalRoomCost
	t.ServiceCharges = b.ServiceCharges
	for _, svc := range b.AdditionalServices {
		t.AdditionalServices += svc.TotalPrice
	}
	t.OtherCharges = b.RestaurantCharges + b.MinibarCharges + b.ParkingCharges + b.OtherCharges
	t.Discounts = b.DiscountAmount + b.CorporateDiscount

	t.Subtotal = t.RoomCost + t.ServiceCharges + t.AdditionalServices + t.OtherCharges - t.Discounts
	if t.Subtotal < 0 {
		t.Subtotal = 0
	}
	t.Subtotal = roundCents(t.Subtotal)
	t.TaxAmount = roundCents(t.Subtotal * b.TaxRate)
	t.Total = roundCents(t.Subtotal + t.TaxAmount)
	t.Balance = roundCents(t.Total - b.DepositAmount)
	return t
}

// applyTotals writes CalculateTotal's result back onto b.
func applyTotals(b *models.Booking) Totals {
	t := CalculateTotal(*b)
	b.TaxAmount = t.TaxAmount
	b.TotalAmount = t.Total
	b.BalanceAmount = t.Balance
	return t
}

type InvoiceLine struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

type Invoice struct {
	InvoiceNumber    string        `json:"invoiceNumber,omitempty"`
	BookingReference string        `json:"bookingReference"`
	GuestName        string        `json:"guestName"`
	GuestEmail       string        `json:"guestEmail"`
	RoomNumber       string        `json:"roomNumber,omitempty"`
	CheckIn          time.Time     `json:"checkIn"`
	CheckOut         time.Time     `json:"checkOut"`
	Nights           int           `json:"nights"`
	Status           string        `json:"status"`
	PaymentStatus    string        `json:"paymentStatus"`
	Lines            []InvoiceLine `json:"lines"`
	Discounts        float64       `json:"discounts"`
	Subtotal         float64       `json:"subtotal"`
	TaxRate          float64       `json:"taxRate"`
	TaxAmount        float64       `json:"taxAmount"`
	Total            float64       `json:"total"`
	Deposit          float64       `json:"deposit"`
	Balance          float64       `json:"balance"`
	GeneratedAt      time.Time     `json:"generatedAt"`
}

// BuildInvoice renders the itemized invoice view of b's current state.
func BuildInvoice(b models.Booking) Invoice {
	t := CalculateTotal(b)

	inv := Invoice{
		BookingReference: b.BookingReference,
		GuestName:        b.GuestName,
		GuestEmail:       b.GuestEmail,
		RoomNumber:       b.RoomNumber,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		Nights:           b.Nights,
		Status:           b.Status,
		PaymentStatus:    b.PaymentStatus,
		Discounts:        roundCents(t.Discounts),
		Subtotal:         t.Subtotal,
		TaxRate:          b.TaxRate,
		TaxAmount:        t.TaxAmount,
		Total:            t.Total,
		Deposit:          b.DepositAmount,
		Balance:          t.Balance,
		GeneratedAt:      time.Now().UTC(),
	}
	if b.InvoiceNumber != nil {
		inv.InvoiceNumber = *b.InvoiceNumber
	}

	for _, n := range b.NightlyRates {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Description: "Room night " + n.Date.Format(utils.DateLayout),
			Quantity:    1,
			UnitPrice:   n.Rate,
			Amount:      n.Rate,
		})
	}
	if len(b.NightlyRates) == 0 && b.TotalRoomCost > 0 {
		inv.Lines = append(inv.Lines, InvoiceLine{Description: "Room", Quantity: b.Nights, UnitPrice: b.BasePricePerNight, Amount: b.TotalRoomCost})
	}

	if b.ServiceCharges > 0 {
		desc := "Service charges"
		if b.ItemType == models.ItemTypeService && b.ItemName != "" {
			desc = b.ItemName
		}
		inv.Lines = append(inv.Lines, InvoiceLine{Description: desc, Quantity: 1, UnitPrice: b.ServiceCharges, Amount: b.ServiceCharges})
	}
	for _, svc := range b.AdditionalServices {
		inv.Lines = append(inv.Lines, InvoiceLine{Description: svc.ServiceName, Quantity: svc.Quantity, UnitPrice: svc.UnitPrice, Amount: svc.TotalPrice})
	}

	buckets := []struct {
		name   string
		amount float64
	}{
		{"Restaurant", b.RestaurantCharges},
		{"Minibar", b.MinibarCharges},
		{"Parking", b.ParkingCharges},
		{"Other", b.OtherCharges},
	}
	for _, bucket := range buckets {
		if bucket.amount > 0 {
			inv.Lines = append(inv.Lines, InvoiceLine{Description: bucket.name, Quantity: 1, UnitPrice: bucket.amount, Amount: bucket.amount})
		}
	}
	if inv.Lines == nil {
		inv.Lines = []InvoiceLine{}
	}
	return inv
}
