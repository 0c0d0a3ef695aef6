package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hotel-booking/models"

	"gorm.io/gorm"
)

type SettingsService struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewSettingsService(db *gorm.DB, timeout time.Duration) *SettingsService {
	return &SettingsService{DB: db, Timeout: timeout}
}

type HotelSettingsInput struct {
	Name                    string   `json:"name"`
	Address                 string   `json:"address"`
	Phone                   string   `json:"phone"`
	Email                   string   `json:"email" binding:"omitempty,email"`
	Website                 string   `json:"website"`
	Currency                string   `json:"currency"`
	DefaultTaxRate          *float64 `json:"defaultTaxRate" binding:"omitempty,gte=0,lte=1"`
	CheckoutCleanDueMinutes *int     `json:"checkoutCleanDueMinutes" binding:"omitempty,gte=0"`
}

func currentSettings(db *gorm.DB) (models.HotelSetting, error) {
	var hotel models.HotelSetting
	err := db.Order("id ASC").First(&hotel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultHotelSetting(), nil
	}
	return hotel, err
}

// Current returns the saved settings, or defaults when none were saved yet.
func (s *SettingsService) Current(ctx context.Context) (models.HotelSetting, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	hotel, err := currentSettings(s.DB.WithContext(ctx))
	if err != nil {
		return hotel, storageError("SettingsService.Current", err, nil)
	}
	return hotel, nil
}

func (s *SettingsService) Update(ctx context.Context, in HotelSettingsInput) (models.HotelSetting, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	hotel, err := currentSettings(db)
	if err != nil {
		return hotel, storageError("SettingsService.Update", err, nil)
	}

	hotel.Name = strings.TrimSpace(in.Name)
	hotel.Address = in.Address
	hotel.Phone = in.Phone
	hotel.Email = strings.TrimSpace(in.Email)
	hotel.Website = in.Website
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		hotel.Currency = c
	}
	if in.DefaultTaxRate != nil {
		hotel.DefaultTaxRate = *in.DefaultTaxRate
	}
	if in.CheckoutCleanDueMinutes != nil {
		hotel.CheckoutCleanDueMinutes = *in.CheckoutCleanDueMinutes
	}

	if err := db.Save(&hotel).Error; err != nil {
		return hotel, storageError("SettingsService.Update", err, nil)
	}
	return hotel, nil
}
