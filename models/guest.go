package models

import (
	"time"
)

const (
	TierBronze   = "Bronze"
	TierSilver   = "Silver"
	TierGold     = "Gold"
	TierPlatinum = "Platinum"
	TierDiamond  = "Diamond"
)

const (
	GuestActive      = "Active"
	GuestInactive    = "Inactive"
	GuestBlacklisted = "Blacklisted"
)

// Guest is the ledger entry for one guest, keyed by email.
type Guest struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Email    string `gorm:"size:150;uniqueIndex;not null" json:"email"`
	FullName string `gorm:"size:150" json:"fullName"`
	Phone    string `gorm:"size:40;index" json:"phone"`

	MembershipNumber string `gorm:"size:64;uniqueIndex" json:"membershipNumber"`
	LoyaltyPoints    int    `gorm:"default:0" json:"loyaltyPoints"`
	LoyaltyTier      string `gorm:"size:16;index;default:Bronze" json:"loyaltyTier"`
	PointsEarned     int    `gorm:"default:0" json:"pointsEarned"`
	PointsRedeemed   int    `gorm:"default:0" json:"pointsRedeemed"`

	TotalBookings   int        `gorm:"default:0" json:"totalBookings"`
	TotalNights     int        `gorm:"default:0" json:"totalNights"`
	TotalSpent      float64    `gorm:"default:0" json:"totalSpent"`
	LastBookingDate *time.Time `json:"lastBookingDate,omitempty"`
	LastVisitDate   *time.Time `json:"lastVisitDate,omitempty"`

	Status string `gorm:"size:16;index;default:Active" json:"status"`
}

// TierForPoints maps a loyalty balance to its tier.
func TierForPoints(points int) string {
	switch {
	case points >= 10000:
		return TierDiamond
	case points >= 5000:
		return TierPlatinum
	case points >= 2000:
		return TierGold
	case points >= 500:
		return TierSilver
	default:
		return TierBronze
	}
}
