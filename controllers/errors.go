package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"hotel-booking/services"
	"hotel-booking/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps a service error kind onto the HTTP status and the
// {"error": {...}} envelope. Fatal detail only goes to the log.
func respondError(c *gin.Context, err error) {
	var se *services.ServiceError
	if !errors.As(err, &se) {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "Something went wrong, please try again later")
		return
	}

	switch se.Kind {
	case services.KindInvalid:
		utils.JSONError(c, http.StatusBadRequest, se.Code, se.Message)
	case services.KindNotFound:
		utils.JSONError(c, http.StatusNotFound, se.Code, se.Message)
	case services.KindConflict:
		utils.JSONError(c, http.StatusConflict, se.Code, se.Message)
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, se)
		utils.JSONError(c, http.StatusInternalServerError, se.Code, "Something went wrong, please try again later")
	}
}

// bindJSON binds the request body into dst, writing a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			utils.JSONErrorDetails(c, http.StatusBadRequest, "error.validation", "Invalid request payload", details)
			return false
		}
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidId", "Invalid "+name+": "+raw)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
