package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/babcheck/babcheck/backend/internal/conversation"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/store"
)

// statusFor maps service and store errors onto HTTP statuses.
func statusFor(err error) int {
	var apiErr *service.APIError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, conversation.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrTooEarly),
		errors.Is(err, conversation.ErrSessionEnded),
		errors.Is(err, conversation.ErrNotStarted),
		errors.Is(err, service.ErrLunchRequired):
		return http.StatusConflict
	case errors.Is(err, service.ErrLLMNotConfigured), errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal failures are not echoed back.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
}
