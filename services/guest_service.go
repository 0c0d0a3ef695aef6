package services

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"hotel-booking/models"
	"hotel-booking/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GuestLedger is what the booking flow needs from guest records. Every
// call is made after the booking transaction commits; failures are logged
// and never undo the booking.
type GuestLedger interface {
	FindOrCreateByEmail(ctx context.Context, email, name, phone string) (*models.Guest, error)
	IncrementBookings(ctx context.Context, guestID uint) error
	RecordStay(ctx context.Context, guestID uint, nights int, amountSpent float64) error
	AwardPoints(ctx context.Context, guestID uint, points int, reason string) (*models.Guest, error)
}

type GuestService struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewGuestService(db *gorm.DB, timeout time.Duration) *GuestService {
	return &GuestService{DB: db, Timeout: timeout}
}

type GuestFilter struct {
	Search string
	Tier   string
	Status string
	Limit  int
	Offset int
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ----------------------------------------------------
// FindOrCreateByEmail: email is the guest identity
// ----------------------------------------------------
func (s *GuestService) FindOrCreateByEmail(ctx context.Context, email, name, phone string) (*models.Guest, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, Invalid("error.emailRequired", "Guest email is required")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var guest models.Guest
	err := db.Where("email = ?", email).First(&guest).Error
	if err == nil {
		updates := map[string]interface{}{}
		if guest.FullName == "" && strings.TrimSpace(name) != "" {
			updates["full_name"] = strings.TrimSpace(name)
		}
		if guest.Phone == "" && strings.TrimSpace(phone) != "" {
			updates["phone"] = strings.TrimSpace(phone)
		}
		if len(updates) > 0 {
			if err := db.Model(&guest).Updates(updates).Error; err != nil {
				log.Printf("⚠️ GuestService.FindOrCreateByEmail: contact backfill failed for guest %d: %v", guest.ID, err)
			}
		}
		return &guest, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageError("GuestService.FindOrCreateByEmail", err, nil)
	}

	guest = models.Guest{
		Email:            email,
		FullName:         strings.TrimSpace(name),
		Phone:            strings.TrimSpace(phone),
		MembershipNumber: utils.NewMembershipNumber(),
		LoyaltyTier:      models.TierBronze,
		Status:           models.GuestActive,
	}
	if err := db.Create(&guest).Error; err != nil {
		// lost a race with a concurrent create for the same email
		if isDuplicateKey(err) {
			if err := db.Where("email = ?", email).First(&guest).Error; err == nil {
				return &guest, nil
			}
		}
		return nil, storageError("GuestService.FindOrCreateByEmail", err, nil)
	}

	log.Printf("➡️ GuestService: created guest %d (%s)", guest.ID, utils.MaskEmail(email))
	return &guest, nil
}

func (s *GuestService) IncrementBookings(ctx context.Context, guestID uint) error {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.Guest{}).Where("id = ?", guestID).Updates(map[string]interface{}{
		"total_bookings":    gorm.Expr("total_bookings + ?", 1),
		"last_booking_date": now,
	})
	if res.Error != nil {
		return storageError("GuestService.IncrementBookings", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return errGuestNotFound
	}
	return nil
}

// RecordStay adds a completed stay to the guest's aggregates.
func (s *GuestService) RecordStay(ctx context.Context, guestID uint, nights int, amountSpent float64) error {
	if nights < 0 || amountSpent < 0 {
		return Invalid("error.invalidStay", "nights and amount must not be negative")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.Guest{}).Where("id = ?", guestID).Updates(map[string]interface{}{
		"total_nights":    gorm.Expr("total_nights + ?", nights),
		"total_spent":     gorm.Expr("total_spent + ?", roundCents(amountSpent)),
		"last_visit_date": now,
	})
	if res.Error != nil {
		return storageError("GuestService.RecordStay", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return errGuestNotFound
	}
	return nil
}

func (s *GuestService) adjustPoints(ctx context.Context, op string, guestID uint, delta int) (*models.Guest, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var guest models.Guest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&guest, guestID).Error; err != nil {
			return err
		}
		if guest.LoyaltyPoints+delta < 0 {
			return Conflict("error.insufficientPoints", "Guest does not have enough loyalty points")
		}

		guest.LoyaltyPoints += delta
		if delta > 0 {
			guest.PointsEarned += delta
		} else {
			guest.PointsRedeemed += -delta
		}
		guest.LoyaltyTier = models.TierForPoints(guest.LoyaltyPoints)

		return tx.Model(&models.Guest{}).Where("id = ?", guest.ID).Updates(map[string]interface{}{
			"loyalty_points":  guest.LoyaltyPoints,
			"points_earned":   guest.PointsEarned,
			"points_redeemed": guest.PointsRedeemed,
			"loyalty_tier":    guest.LoyaltyTier,
		}).Error
	})
	if err != nil {
		return nil, storageError(op, err, errGuestNotFound)
	}
	return &guest, nil
}

// AwardPoints credits points and recomputes the tier.
func (s *GuestService) AwardPoints(ctx context.Context, guestID uint, points int, reason string) (*models.Guest, error) {
	if points <= 0 {
		return nil, Invalid("error.invalidPoints", "points must be positive")
	}
	guest, err := s.adjustPoints(ctx, "GuestService.AwardPoints", guestID, points)
	if err != nil {
		return nil, err
	}
	log.Printf("➡️ GuestService: +%d points to guest %d (%s), balance %d %s", points, guestID, reason, guest.LoyaltyPoints, guest.LoyaltyTier)
	return guest, nil
}

// RedeemPoints debits points. Redeeming more than the balance is a Conflict.
func (s *GuestService) RedeemPoints(ctx context.Context, guestID uint, points int, reason string) (*models.Guest, error) {
	if points <= 0 {
		return nil, Invalid("error.invalidPoints", "points must be positive")
	}
	guest, err := s.adjustPoints(ctx, "GuestService.RedeemPoints", guestID, -points)
	if err != nil {
		return nil, err
	}
	log.Printf("➡️ GuestService: -%d points from guest %d (%s), balance %d %s", points, guestID, reason, guest.LoyaltyPoints, guest.LoyaltyTier)
	return guest, nil
}

// PointsForStay is one point per whole currency unit spent.
func PointsForStay(total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(total))
}

func (s *GuestService) Get(ctx context.Context, id uint) (*models.Guest, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var guest models.Guest
	if err := s.DB.WithContext(ctx).First(&guest, id).Error; err != nil {
		return nil, storageError("GuestService.Get", err, errGuestNotFound)
	}
	return &guest, nil
}

func (s *GuestService) List(ctx context.Context, f GuestFilter) ([]models.Guest, int64, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	q := s.DB.WithContext(ctx).Model(&models.Guest{})
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ? OR membership_number LIKE ?", like, like, like, like)
	}
	if f.Tier != "" {
		q = q.Where("loyalty_tier = ?", f.Tier)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, storageError("GuestService.List", err, nil)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var guests []models.Guest
	if err := q.Order("id DESC").Limit(limit).Offset(f.Offset).Find(&guests).Error; err != nil {
		return nil, 0, storageError("GuestService.List", err, nil)
	}
	return guests, total, nil
}

// BookingsForGuest lists a guest's bookings, newest first.
func (s *GuestService) BookingsForGuest(ctx context.Context, guestID uint) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var guest models.Guest
	if err := db.Select("id", "email").First(&guest, guestID).Error; err != nil {
		return nil, storageError("GuestService.BookingsForGuest", err, errGuestNotFound)
	}

	var bookings []models.Booking
	if err := db.Preload("AdditionalServices").
		Where("guest_id = ? OR (guest_id IS NULL AND guest_email = ?)", guest.ID, guest.Email).
		Order("check_in DESC").
		Find(&bookings).Error; err != nil {
		return nil, storageError("GuestService.BookingsForGuest", err, nil)
	}
	return bookings, nil
}
