package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/service"
)

// AnalyzeHandler drives the estimation flow: governor check, multi-item
// analysis, audit logging.
type AnalyzeHandler struct {
	analyzer *service.MealAnalyzer
	usage    *service.UsageGovernor
	profile  *service.ProfileService
	// enforceLimits turns the advisory pre-call check into a hard 429.
	enforceLimits bool
	logger        *zap.Logger
}

func NewAnalyzeHandler(analyzer *service.MealAnalyzer, usage *service.UsageGovernor, profile *service.ProfileService, enforceLimits bool, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:      analyzer,
		usage:         usage,
		profile:       profile,
		enforceLimits: enforceLimits,
		logger:        logger,
	}
}

// RegisterRoutes registers the analysis routes
func (h *AnalyzeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/analyze", h.Analyze)
}

// Analyze estimates the nutrition of one meal description.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	limits, err := h.usage.CheckLimits(ctx)
	if err != nil {
		// The governor is advisory; a broken counter store must not take
		// the estimation flow down with it.
		h.logger.Warn("usage limit check failed", zap.Error(err))
	} else if !limits.CanUseAI {
		if h.enforceLimits {
			respondError(c, service.ErrLimitExceeded)
			return
		}
		h.logger.Warn("daily AI ceiling reached, proceeding anyway",
			zap.Int("requests", limits.DailyRequests),
			zap.Float64("cost", limits.DailyCost))
	}

	analysis, err := h.analyzer.AnalyzeMeal(ctx, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	if raw, merr := json.Marshal(analysis); merr == nil {
		if lerr := h.profile.LogAIRequest(ctx, userID, req.Description, string(raw)); lerr != nil {
			h.logger.Warn("failed to write AI audit row", zap.Error(lerr))
		}
	}

	resp := AnalyzeResponse{Analysis: analysis}
	if status, serr := h.usage.CheckLimits(ctx); serr == nil {
		resp.Limits = status
	}
	c.JSON(http.StatusOK, resp)
}
