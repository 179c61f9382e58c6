package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutrilog/backend/internal/service"
)

// UsageHandler reports the governor's counters and ceilings.
type UsageHandler struct {
	usage *service.UsageGovernor
}

func NewUsageHandler(usage *service.UsageGovernor) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// RegisterRoutes registers the usage routes
func (h *UsageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/usage", h.Stats)
}

// Stats returns today's and yesterday's counters plus the limits.
func (h *UsageHandler) Stats(c *gin.Context) {
	stats, err := h.usage.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
