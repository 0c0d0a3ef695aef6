package controllers

import (
	"log"
	"net/http"
	"strings"

	"hotel-booking/middleware"
	"hotel-booking/services"

	"github.com/gin-gonic/gin"
)

type HousekeepingStatusRequest struct {
	Status string `json:"housekeepingStatus" binding:"required"`
}

type RoomController struct {
	RoomSvc *services.RoomService
}

func NewRoomController(svc *services.RoomService) *RoomController {
	return &RoomController{RoomSvc: svc}
}

// ----------------------------------------------------
// GET /api/rooms?status&roomType&floor
// ----------------------------------------------------
func (rc *RoomController) GetRooms(c *gin.Context) {
	rooms, err := rc.RoomSvc.List(c.Request.Context(), services.RoomFilter{
		Status:   strings.TrimSpace(c.Query("status")),
		RoomType: strings.TrimSpace(c.Query("roomType")),
		Floor:    strings.TrimSpace(c.Query("floor")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// ----------------------------------------------------
// POST /api/rooms
// ----------------------------------------------------
func (rc *RoomController) CreateRoom(c *gin.Context) {
	var req services.RoomInput
	if !bindJSON(c, &req) {
		return
	}

	room, err := rc.RoomSvc.Create(c.Request.Context(), req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("✅ Room %s created (id=%d)", room.RoomNumber, room.ID)
	c.JSON(http.StatusCreated, room)
}

// ----------------------------------------------------
// GET /api/rooms/:id
// ----------------------------------------------------
func (rc *RoomController) GetRoom(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	room, err := rc.RoomSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ----------------------------------------------------
// PUT /api/rooms/:id (attributes only; status is driven by bookings)
// ----------------------------------------------------
func (rc *RoomController) UpdateRoom(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req services.RoomInput
	if !bindJSON(c, &req) {
		return
	}

	room, err := rc.RoomSvc.Update(c.Request.Context(), id, req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ----------------------------------------------------
// DELETE /api/rooms/:id
// ----------------------------------------------------
func (rc *RoomController) DeleteRoom(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := rc.RoomSvc.Delete(c.Request.Context(), id, middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	log.Printf("✅ Room ID %d deleted.", id)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Room deleted successfully"})
}

// ----------------------------------------------------
// POST /api/rooms/:id/maintenance
// ----------------------------------------------------
func (rc *RoomController) OpenMaintenance(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req services.MaintenanceInput
	if !bindJSON(c, &req) {
		return
	}

	mr, err := rc.RoomSvc.OpenMaintenance(c.Request.Context(), id, req, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mr)
}

// ----------------------------------------------------
// PATCH /api/rooms/:id/maintenance/:requestId/resolve
// ----------------------------------------------------
func (rc *RoomController) ResolveMaintenance(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	requestID, ok := parseUintParam(c, "requestId")
	if !ok {
		return
	}

	room, err := rc.RoomSvc.ResolveMaintenance(c.Request.Context(), id, requestID, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ----------------------------------------------------
// PATCH /api/rooms/:id/housekeeping
// ----------------------------------------------------
func (rc *RoomController) SetHousekeepingStatus(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req HousekeepingStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	room, err := rc.RoomSvc.SetHousekeepingStatus(c.Request.Context(), id, req.Status, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}
