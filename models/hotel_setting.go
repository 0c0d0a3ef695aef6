package models

import "time"

const (
	DefaultTaxRate                 = 0.10
	DefaultCurrency                = "USD"
	DefaultCheckoutCleanDueMinutes = 120
)

type HotelSetting struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255" json:"name"`
	Address string `gorm:"type:text" json:"address"`
	Phone   string `gorm:"size:50" json:"phone"`
	Email   string `gorm:"size:150" json:"email"`
	Website string `gorm:"size:255" json:"website"`

	Currency                string  `gorm:"size:8;default:USD" json:"currency"`
	DefaultTaxRate          float64 `gorm:"column:default_tax_rate;default:0.1" json:"defaultTaxRate"`
	CheckoutCleanDueMinutes int     `gorm:"column:checkout_clean_due_minutes;default:120" json:"checkoutCleanDueMinutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultHotelSetting is used until an operator saves real settings.
func DefaultHotelSetting() HotelSetting {
	return HotelSetting{
		Currency:                DefaultCurrency,
		DefaultTaxRate:          DefaultTaxRate,
		CheckoutCleanDueMinutes: DefaultCheckoutCleanDueMinutes,
	}
}
