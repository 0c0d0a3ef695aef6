package controllers

import (
	"net/http"

	"hotel-booking/services"
	"hotel-booking/utils"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	SettingsSvc *services.SettingsService
}

func NewSettingsController(svc *services.SettingsService) *SettingsController {
	return &SettingsController{SettingsSvc: svc}
}

func (sc *SettingsController) GetHotelSettings(c *gin.Context) {
	hotel, err := sc.SettingsSvc.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, hotel)
}

func (sc *SettingsController) UpdateHotelSettings(c *gin.Context) {
	var payload services.HotelSettingsInput
	if !bindJSON(c, &payload) {
		return
	}

	hotel, err := sc.SettingsSvc.Update(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, hotel)
}
