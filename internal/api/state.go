package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/service"
)

// Bounded retries for a sync that keeps losing to concurrent mutations.
const maxSyncAttempts = 3

// StateHandler exposes the per-user application state snapshot and the
// authoritative re-sync that recomputes it from the entry table.
type StateHandler struct {
	state   *service.StateStore
	entries *service.EntryService
	logger  *zap.Logger
}

func NewStateHandler(state *service.StateStore, entries *service.EntryService, logger *zap.Logger) *StateHandler {
	return &StateHandler{state: state, entries: entries, logger: logger}
}

// RegisterRoutes registers the state routes
func (h *StateHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/state", h.Get)
	router.POST("/state/sync", h.Sync)
}

// Get returns the current state snapshot, rehydrated from its last
// persisted form when the process restarted.
func (h *StateHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	tgID := currentTelegramID(c)
	c.JSON(http.StatusOK, h.state.Load(c.Request.Context(), tgID))
}

// Sync recomputes today's totals and meals from the persisted entries
// and installs them, versioned so a recomputation that raced a newer
// optimistic update is retried rather than applied stale.
func (h *StateHandler) Sync(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tgID := currentTelegramID(c)
	ctx := c.Request.Context()
	today := service.Today()

	for attempt := 0; attempt < maxSyncAttempts; attempt++ {
		version := h.state.BeginSync(ctx, tgID)

		totals, err := h.entries.GetDailyTotals(ctx, userID, today)
		if err != nil {
			h.state.SetError(ctx, tgID, err.Error())
			respondError(c, err)
			return
		}
		meals, err := h.entries.GetFoodEntries(ctx, userID, today)
		if err != nil {
			h.state.SetError(ctx, tgID, err.Error())
			respondError(c, err)
			return
		}
		days, err := h.entries.GetDaysWithEntries(ctx, userID)
		if err != nil {
			h.state.SetError(ctx, tgID, err.Error())
			respondError(c, err)
			return
		}

		if state, applied := h.state.ApplySync(ctx, tgID, version, *totals, meals, days); applied {
			c.JSON(http.StatusOK, SyncResponse{State: state, Applied: true})
			return
		}
		h.logger.Debug("sync lost to a concurrent update, retrying",
			zap.Int64("telegram_id", tgID), zap.Int("attempt", attempt+1))
	}

	// Give back the live state; the caller may sync again.
	c.JSON(http.StatusOK, SyncResponse{State: h.state.Load(ctx, tgID), Applied: false})
}
