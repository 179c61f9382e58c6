package models

import (
	"time"

	"gorm.io/gorm"
)

// Default nutrition targets applied when a user row has no explicit values.
const (
	DefaultTargetCalories = 2000
	DefaultTargetProtein  = 150
	DefaultTargetFat      = 65
	DefaultTargetCarbs    = 250

	DefaultUserName = "Пользователь"
)

// User is a Telegram-identified profile. TelegramID is unique and never
// changes after the row is created.
type User struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	TelegramID     int64          `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username       string         `gorm:"size:255" json:"username"`
	FirstName      string         `gorm:"size:255" json:"first_name"`
	LastName       string         `gorm:"size:255" json:"last_name"`
	Name           string         `gorm:"size:255" json:"name"`
	Age            int            `json:"age"`
	Height         float64        `json:"height"`
	Weight         float64        `json:"weight"`
	TargetWeight   float64        `json:"target_weight"`
	ActivityLevel  string         `gorm:"size:50;default:'moderate'" json:"activity_level"`
	Goal           string         `gorm:"size:50;default:'maintain'" json:"goal"`
	TargetCalories int            `json:"target_calories"`
	TargetProtein  float64        `json:"target_protein"`
	TargetFat      float64        `json:"target_fat"`
	TargetCarbs    float64        `json:"target_carbs"`
	Settings       string         `gorm:"type:text" json:"settings"`
}

// ApplyDefaults fills zero-valued display and target fields so callers
// never see an unconfigured profile.
func (u *User) ApplyDefaults() {
	if u.Name == "" {
		u.Name = DefaultUserName
	}
	if u.TargetCalories == 0 {
		u.TargetCalories = DefaultTargetCalories
	}
	if u.TargetProtein == 0 {
		u.TargetProtein = DefaultTargetProtein
	}
	if u.TargetFat == 0 {
		u.TargetFat = DefaultTargetFat
	}
	if u.TargetCarbs == 0 {
		u.TargetCarbs = DefaultTargetCarbs
	}
}
