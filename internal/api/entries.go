package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/service"
)

// EntryHandler owns the food entry CRUD surface and its aggregates.
type EntryHandler struct {
	entries *service.EntryService
	state   *service.StateStore
	logger  *zap.Logger
}

func NewEntryHandler(entries *service.EntryService, state *service.StateStore, logger *zap.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, state: state, logger: logger}
}

// RegisterRoutes registers the entry and stats routes
func (h *EntryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/entries", h.Add)
	router.GET("/entries", h.List)
	router.DELETE("/entries/:id", h.Delete)
	router.GET("/stats", h.Stats)
	router.GET("/stats/days", h.Days)
}

// Add persists one food entry and bumps the user's in-memory daily
// totals optimistically when the entry lands on today.
func (h *EntryHandler) Add(c *gin.Context) {
	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entry, err := h.entries.AddFoodEntry(c.Request.Context(), userID, models.FoodEntry{
		FoodName:            req.FoodName,
		Calories:            req.Calories,
		Proteins:            req.Proteins,
		Fats:                req.Fats,
		Carbs:               req.Carbs,
		Date:                req.Date,
		Recommendations:     req.Recommendations,
		OriginalDescription: req.OriginalDescription,
		AnalysisDetails:     req.AnalysisDetails,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if tgID := currentTelegramID(c); tgID != 0 && entry.Date == service.Today() {
		h.state.AddMeal(c.Request.Context(), tgID, *entry)
	}

	c.JSON(http.StatusCreated, entry)
}

// List returns the user's entries, optionally filtered by ?date=.
func (h *EntryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entries, err := h.entries.GetFoodEntries(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Delete removes one entry. Entries owned by another user read as 404.
func (h *EntryHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.entries.DeleteFoodEntry(c.Request.Context(), userID, uint(entryID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": entryID})
}

// Stats sums macros over an inclusive ?start=&end= date range.
func (h *EntryHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	totals, err := h.entries.GetUserStats(c.Request.Context(), userID, c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// Days returns the count of distinct dates with at least one entry.
func (h *EntryHandler) Days(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	days, err := h.entries.GetDaysWithEntries(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if tgID := currentTelegramID(c); tgID != 0 {
		h.state.SetDaysCount(c.Request.Context(), tgID, days)
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}
