package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"hotel-booking/middleware"
	"hotel-booking/services"

	"github.com/gin-gonic/gin"
)

// --- Controller ---
type GuestController struct {
	GuestSvc *services.GuestService
}

// NewGuestController Constructor
func NewGuestController(svc *services.GuestService) *GuestController {
	return &GuestController{GuestSvc: svc}
}

type LoyaltyRequest struct {
	Points int    `json:"points" binding:"required,gt=0"`
	Reason string `json:"reason"`
}

// GET /api/guests?search&tier&status&limit&offset
func (gc *GuestController) GetGuests(c *gin.Context) {
	f := services.GuestFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Tier:   strings.TrimSpace(c.Query("tier")),
		Status: strings.TrimSpace(c.Query("status")),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	guests, total, err := gc.GuestSvc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": guests, "total": total})
}

// GET /api/guests/:id
func (gc *GuestController) GetGuestByID(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	guest, err := gc.GuestSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guest": guest})
}

// GET /api/guests/:id/bookings
func (gc *GuestController) GetGuestBookings(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	bookings, err := gc.GuestSvc.BookingsForGuest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// POST /api/guests/:id/loyalty/award
func (gc *GuestController) AwardPoints(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req LoyaltyRequest
	if !bindJSON(c, &req) {
		return
	}

	guest, err := gc.GuestSvc.AwardPoints(c.Request.Context(), id, req.Points, reasonOrDefault(req.Reason, c, "manual award"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guest": guest})
}

// POST /api/guests/:id/loyalty/redeem
func (gc *GuestController) RedeemPoints(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req LoyaltyRequest
	if !bindJSON(c, &req) {
		return
	}

	guest, err := gc.GuestSvc.RedeemPoints(c.Request.Context(), id, req.Points, reasonOrDefault(req.Reason, c, "redemption"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guest": guest})
}

func reasonOrDefault(reason string, c *gin.Context, def string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = def
	}
	return fmt.Sprintf("%s by %s", reason, middleware.CurrentActor(c).Label())
}
