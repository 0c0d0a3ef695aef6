package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"hotel-booking/middleware"
	"hotel-booking/services"
	"hotel-booking/utils"

	"github.com/gin-gonic/gin"
)

type TaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type InspectTaskRequest struct {
	Passed *bool  `json:"passed" binding:"required"`
	Notes  string `json:"notes"`
}

type HousekeepingController struct {
	HousekeepingSvc *services.HousekeepingService
}

func NewHousekeepingController(svc *services.HousekeepingService) *HousekeepingController {
	return &HousekeepingController{HousekeepingSvc: svc}
}

// GET /api/housekeeping/tasks?status&priority&roomId&date
func (hc *HousekeepingController) GetTasks(c *gin.Context) {
	f := services.TaskFilter{
		Status:   strings.TrimSpace(c.Query("status")),
		Priority: strings.TrimSpace(c.Query("priority")),
	}
	if raw := strings.TrimSpace(c.Query("roomId")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidId", "Invalid roomId: "+raw)
			return
		}
		f.RoomID = uint(id)
	}
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := utils.ParseDate(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidDates", "date: "+err.Error())
			return
		}
		f.Date = &d
	}

	tasks, err := hc.HousekeepingSvc.ListTasks(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// PATCH /api/housekeeping/tasks/:id/status
func (hc *HousekeepingController) UpdateTaskStatus(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req TaskStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := hc.HousekeepingSvc.UpdateTaskStatus(c.Request.Context(), id, req.Status, req.Notes, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// PATCH /api/housekeeping/tasks/:id/inspect
func (hc *HousekeepingController) InspectTask(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req InspectTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := hc.HousekeepingSvc.InspectTask(c.Request.Context(), id, *req.Passed, req.Notes, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}
