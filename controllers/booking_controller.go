package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotel-booking/middleware"
	"hotel-booking/services"
	"hotel-booking/utils"

	"github.com/gin-gonic/gin"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type AssignRoomRequest struct {
	RoomID uint `json:"roomId" binding:"required"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc      *services.BookingService
	AvailabilitySvc *services.AvailabilityService
}

func NewBookingController(svc *services.BookingService, availability *services.AvailabilityService) *BookingController {
	return &BookingController{BookingSvc: svc, AvailabilitySvc: availability}
}

// GET /api/rooms/available?checkIn&checkOut&roomType&capacity
func (bc *BookingController) GetAvailableRooms(c *gin.Context) {
	checkIn, err := utils.ParseDate(c.Query("checkIn"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidDates", "checkIn: "+err.Error())
		return
	}
	checkOut, err := utils.ParseDate(c.Query("checkOut"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidDates", "checkOut: "+err.Error())
		return
	}

	rooms, err := bc.AvailabilitySvc.FindAvailableRooms(c.Request.Context(), checkIn, checkOut, services.AvailabilityFilter{
		RoomType:    strings.TrimSpace(c.Query("roomType")),
		MinCapacity: queryInt(c, "capacity", 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checkIn":  checkIn.Format(utils.DateLayout),
		"checkOut": checkOut.Format(utils.DateLayout),
		"nights":   utils.Nights(checkIn, checkOut),
		"rooms":    rooms,
	})
}

// POST /api/bookings
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req services.CreateBookingInput
	if !bindJSON(c, &req) {
		return
	}

	booking, created, err := bc.BookingSvc.Create(c.Request.Context(), req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"booking": booking, "created": created})
}

// GET /api/bookings?status&guestEmail&roomId&itemType&from&to&limit&offset
func (bc *BookingController) GetBookings(c *gin.Context) {
	filter := services.BookingFilter{
		Status:     strings.TrimSpace(c.Query("status")),
		GuestEmail: strings.TrimSpace(c.Query("guestEmail")),
		ItemType:   strings.TrimSpace(c.Query("itemType")),
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("roomId")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidId", "Invalid roomId: "+raw)
			return
		}
		filter.RoomID = uint(id)
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := strings.TrimSpace(c.Query(p.name))
		if raw == "" {
			continue
		}
		t, err := utils.ParseDate(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidDates", p.name+": "+err.Error())
			return
		}
		*p.dst = &t
	}

	list, total, err := bc.BookingSvc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list, "total": total, "limit": filter.Limit, "offset": filter.Offset})
}

// GET /api/bookings/:id (numeric id or booking reference)
func (bc *BookingController) GetBooking(c *gin.Context) {
	booking, err := bc.BookingSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// PATCH /api/bookings/:id/status
func (bc *BookingController) UpdateStatus(c *gin.Context) {
	var req services.StatusUpdateInput
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bc.BookingSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// PATCH /api/bookings/:id/assign-room
func (bc *BookingController) AssignRoom(c *gin.Context) {
	var req AssignRoomRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bc.BookingSvc.AssignRoom(c.Request.Context(), c.Param("id"), req.RoomID, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// POST /api/bookings/:id/service-charge
func (bc *BookingController) AddServiceCharge(c *gin.Context) {
	var req services.ServiceChargeInput
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bc.BookingSvc.AddServiceCharge(c.Request.Context(), c.Param("id"), req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// PATCH /api/bookings/:id/payment
func (bc *BookingController) RecordPayment(c *gin.Context) {
	var req services.PaymentInput
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bc.BookingSvc.RecordPayment(c.Request.Context(), c.Param("id"), req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// GET /api/bookings/:id/invoice
func (bc *BookingController) GetInvoice(c *gin.Context) {
	invoice, err := bc.BookingSvc.Invoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// DELETE /api/bookings/:id (admin)
func (bc *BookingController) DeleteBooking(c *gin.Context) {
	if err := bc.BookingSvc.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Booking deleted"})
}
