package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// SnackHandler recognizes snacks in a photo.
type SnackHandler struct {
	snacks  service.ISnackService
	limiter *middleware.RateLimiter
}

// NewSnackHandler creates the handler. limiter may be nil.
func NewSnackHandler(snacks service.ISnackService, limiter *middleware.RateLimiter) *SnackHandler {
	return &SnackHandler{snacks: snacks, limiter: limiter}
}

func (h *SnackHandler) RegisterRoutes(router *gin.RouterGroup) {
	handlers := []gin.HandlerFunc{h.Analyze}
	if h.limiter != nil {
		handlers = append([]gin.HandlerFunc{h.limiter.Middleware(middleware.ByUser)}, handlers...)
	}
	router.POST("/snacks/analyze", handlers...)
}

// Analyze returns the snack names the vision model reads from the photo.
// Nothing is recorded; the client confirms the list through /records/snack.
func (h *SnackHandler) Analyze(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req types.SnackAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.snacks.Analyze(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
