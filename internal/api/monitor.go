package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/service"
)

// MonitorHandler is the teacher's view of a day's records.
type MonitorHandler struct {
	monitor service.IMonitorService
	admins  middleware.AdminChecker
}

func NewMonitorHandler(monitor service.IMonitorService, admins middleware.AdminChecker) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, admins: admins}
}

func (h *MonitorHandler) RegisterRoutes(router *gin.RouterGroup) {
	monitor := router.Group("/monitor")
	monitor.Use(middleware.RequireAdmin(h.admins))
	monitor.GET("/records", h.Records)
}

// Records answers store failures with the message the monitor shows.
func (h *MonitorHandler) Records(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	res, err := h.monitor.Records(c.Request.Context(), user, c.Query("date"))
	if errors.Is(err, service.ErrInvalidInput) {
		respondError(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.MonitorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, res)
}
