package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/service"
)

// AuthHandler exchanges Telegram init data for a session token.
type AuthHandler struct {
	auth    *service.AuthService
	profile *service.ProfileService
	state   *service.StateStore
	logger  *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, profile *service.ProfileService, state *service.StateStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, profile: profile, state: state, logger: logger}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/auth/telegram", h.Telegram)
}

// Telegram verifies the Mini App init data, upserts the user row and
// returns a session token.
func (h *AuthHandler) Telegram(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.auth.ResolveIdentity(req.InitData)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.profile.GetOrCreateUser(c.Request.Context(), *identity)
	if err != nil {
		respondError(c, err)
		return
	}

	h.state.SetUser(c.Request.Context(), user.TelegramID, user)

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		h.logger.Error("failed to mint session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}
