package api

import (
	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/service"
)

// AuthRequest carries the raw init data string from the Mini App host.
type AuthRequest struct {
	InitData string `json:"init_data"`
}

// AuthResponse returns the session token and resolved user row.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AnalyzeRequest is one meal description to estimate.
type AnalyzeRequest struct {
	Description string `json:"description" binding:"required"`
}

// AnalyzeResponse is the aggregated analysis plus the governor's view of
// remaining headroom.
type AnalyzeResponse struct {
	Analysis *service.MealAnalysis `json:"analysis"`
	Limits   *service.LimitStatus  `json:"limits,omitempty"`
}

// AddEntryRequest is one food entry to persist.
type AddEntryRequest struct {
	FoodName            string  `json:"food_name" binding:"required"`
	Calories            int     `json:"calories"`
	Proteins            float64 `json:"proteins"`
	Fats                float64 `json:"fats"`
	Carbs               float64 `json:"carbs"`
	Date                string  `json:"date"`
	Recommendations     string  `json:"recommendations"`
	OriginalDescription string  `json:"original_description"`
	AnalysisDetails     string  `json:"analysis_details"`
}

// UpdateSettingsRequest replaces the user's settings blob.
type UpdateSettingsRequest struct {
	Settings models.UserSettings `json:"settings" binding:"required"`
}

// SyncResponse returns the post-sync state snapshot.
type SyncResponse struct {
	State   *service.AppState `json:"state"`
	Applied bool              `json:"applied"`
}
