package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// ChatHandler drives the lunch chat and the nutrition briefing.
type ChatHandler struct {
	chats   service.IChatService
	limiter *middleware.RateLimiter
}

// NewChatHandler creates the handler. limiter may be nil.
func NewChatHandler(chats service.IChatService, limiter *middleware.RateLimiter) *ChatHandler {
	return &ChatHandler{chats: chats, limiter: limiter}
}

// RegisterRoutes expects router to be authenticated already.
func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/chat")
	if h.limiter != nil {
		chat.Use(h.limiter.Middleware(middleware.ByUser))
	}
	{
		chat.POST("/start", h.Start)
		chat.POST("/nutrition", h.StartNutrition)
		chat.POST("/:id/messages", h.Send)
		chat.POST("/:id/end", h.End)
	}
}

func (h *ChatHandler) Start(c *gin.Context) {
	h.open(c, h.chats.Start)
}

// StartNutrition opens the briefing for a day that already has a lunch
// record.
func (h *ChatHandler) StartNutrition(c *gin.Context) {
	h.open(c, h.chats.StartNutrition)
}

func (h *ChatHandler) open(c *gin.Context, start func(context.Context, types.Identity, string) (*service.ChatReply, error)) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req types.ChatStartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	reply, err := start(c.Request.Context(), user, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

func (h *ChatHandler) Send(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req types.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := h.chats.Send(c.Request.Context(), user, c.Param("id"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// End closes a session the student chose to finish. Sessions below turn 3
// answer 409.
func (h *ChatHandler) End(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	reply, err := h.chats.End(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
