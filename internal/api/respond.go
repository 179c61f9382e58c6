package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutrilog/backend/internal/service"
)

// respondError maps service-layer error classes onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrInvalidInitData):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrTransport), errors.Is(err, service.ErrParse):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// currentUserID reads the authenticated user id set by the auth
// middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return id, true
}

func currentTelegramID(c *gin.Context) int64 {
	if v, exists := c.Get("telegram_id"); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
