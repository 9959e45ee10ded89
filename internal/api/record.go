package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/models"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// RecordHandler stores what a student ate.
type RecordHandler struct {
	records service.IRecordService
}

func NewRecordHandler(records service.IRecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

func (h *RecordHandler) RegisterRoutes(router *gin.RouterGroup) {
	records := router.Group("/records")
	{
		records.POST("/lunch", h.SubmitLunch)
		records.POST("/snack", h.SubmitSnack)
		records.GET("/:kind", h.GetRecord)
	}
}

// RecordResponse wraps a stored record. Created is false when an earlier
// record for the same day was overwritten.
type RecordResponse struct {
	Record  *models.FoodRecord `json:"record"`
	Created bool               `json:"created"`
}

func (h *RecordHandler) SubmitLunch(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req types.LunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, created, err := h.records.SubmitLunch(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(savedStatus(created), RecordResponse{Record: rec, Created: created})
}

func (h *RecordHandler) SubmitSnack(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req types.SnackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, created, err := h.records.SubmitSnack(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(savedStatus(created), RecordResponse{Record: rec, Created: created})
}

// GetRecord returns the caller's lunch or snack record for ?date=.
func (h *RecordHandler) GetRecord(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	rec, err := h.records.Get(c.Request.Context(), user, c.Query("date"), models.RecordKind(c.Param("kind")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func savedStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
