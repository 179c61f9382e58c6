package models

import "time"

// FoodEntry is one logged meal or item. Entries are append-only: they are
// inserted once and either read back or deleted, never updated in place.
type FoodEntry struct {
	ID                  uint      `gorm:"primarykey" json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	UserID              uint      `gorm:"index;not null" json:"user_id"`
	FoodName            string    `gorm:"size:255;not null" json:"food_name"`
	Calories            int       `gorm:"not null;check:calories >= 0" json:"calories"`
	Proteins            float64   `gorm:"not null;check:proteins >= 0" json:"proteins"`
	Fats                float64   `gorm:"not null;check:fats >= 0" json:"fats"`
	Carbs               float64   `gorm:"not null;check:carbs >= 0" json:"carbs"`
	Date                string    `gorm:"size:10;index;not null" json:"date"`
	Recommendations     string    `gorm:"type:text" json:"recommendations"`
	OriginalDescription string    `gorm:"type:text" json:"original_description"`
	AnalysisDetails     string    `gorm:"type:text" json:"analysis_details"`
}

// DailyTotals is the field-wise sum of a user's entries for one calendar
// date. It is derived on demand and never persisted.
type DailyTotals struct {
	Calories int     `json:"calories"`
	Proteins float64 `json:"proteins"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
}
