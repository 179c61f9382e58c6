package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/service"
)

// ProfileHandler serves the user profile and settings surface.
type ProfileHandler struct {
	profile *service.ProfileService
	state   *service.StateStore
	logger  *zap.Logger
}

func NewProfileHandler(profile *service.ProfileService, state *service.StateStore, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profile: profile, state: state, logger: logger}
}

// RegisterRoutes registers the profile routes
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/profile", h.Get)
	router.PUT("/profile/settings", h.UpdateSettings)
}

// Get returns the current user with defaults applied.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.profile.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateSettings stores the settings blob and mirrors target and
// personal-info fields into the user columns.
func (h *ProfileHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.profile.UpdateUserSettings(c.Request.Context(), userID, req.Settings)
	if err != nil {
		respondError(c, err)
		return
	}

	if tgID := currentTelegramID(c); tgID != 0 {
		h.state.SetSettings(c.Request.Context(), tgID, req.Settings)
		h.state.SetUser(c.Request.Context(), tgID, user)
	}

	c.JSON(http.StatusOK, user)
}
