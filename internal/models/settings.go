package models

import (
	"encoding/json"
	"fmt"
)

// SettingsVersion is the current schema version of the settings blob.
const SettingsVersion = 1

// UserSettings is the free-form settings blob stored on the user row.
// The blob is versioned; ParseSettings migrates older shapes forward so
// the rest of the code only ever sees the current schema.
type UserSettings struct {
	Version       int             `json:"version"`
	Notifications bool            `json:"notifications"`
	DarkMode      bool            `json:"dark_mode"`
	Language      string          `json:"language"`
	Targets       *TargetSettings `json:"targets,omitempty"`
	Personal      *PersonalInfo   `json:"personal,omitempty"`
}

// TargetSettings carries the per-day nutrition targets when the client
// edits them through the settings form.
type TargetSettings struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// PersonalInfo carries the physical-attribute fields of the profile form.
type PersonalInfo struct {
	Name         string  `json:"name"`
	Age          int     `json:"age"`
	Height       float64 `json:"height"`
	Weight       float64 `json:"weight"`
	TargetWeight float64 `json:"target_weight"`
}

// DefaultSettings returns the settings applied to a fresh user.
func DefaultSettings() UserSettings {
	return UserSettings{
		Version:       SettingsVersion,
		Notifications: true,
		Language:      "ru",
	}
}

// ParseSettings decodes a stored settings blob, migrating legacy
// unversioned blobs to the current schema. An empty blob yields the
// defaults; a malformed blob is an error.
func ParseSettings(raw string) (UserSettings, error) {
	if raw == "" || raw == "{}" {
		return DefaultSettings(), nil
	}

	var s UserSettings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return UserSettings{}, fmt.Errorf("malformed settings blob: %w", err)
	}

	if s.Version == 0 {
		migrateLegacySettings(&s, raw)
	}
	if s.Language == "" {
		s.Language = "ru"
	}
	return s, nil
}

// migrateLegacySettings lifts the original unversioned blob, which nested
// targets under "dailyStats" and personal fields under "user", into the
// current schema.
func migrateLegacySettings(s *UserSettings, raw string) {
	var legacy struct {
		DailyStats *struct {
			TargetCalories int     `json:"targetCalories"`
			TargetProtein  float64 `json:"targetProtein"`
			TargetFat      float64 `json:"targetFat"`
			TargetCarbs    float64 `json:"targetCarbs"`
		} `json:"dailyStats"`
		User *struct {
			Name         string  `json:"name"`
			Age          int     `json:"age"`
			Height       float64 `json:"height"`
			Weight       float64 `json:"weight"`
			TargetWeight float64 `json:"targetWeight"`
		} `json:"user"`
	}
	if err := json.Unmarshal([]byte(raw), &legacy); err == nil {
		if legacy.DailyStats != nil && s.Targets == nil {
			s.Targets = &TargetSettings{
				Calories: legacy.DailyStats.TargetCalories,
				Protein:  legacy.DailyStats.TargetProtein,
				Fat:      legacy.DailyStats.TargetFat,
				Carbs:    legacy.DailyStats.TargetCarbs,
			}
		}
		if legacy.User != nil && s.Personal == nil {
			s.Personal = &PersonalInfo{
				Name:         legacy.User.Name,
				Age:          legacy.User.Age,
				Height:       legacy.User.Height,
				Weight:       legacy.User.Weight,
				TargetWeight: legacy.User.TargetWeight,
			}
		}
	}
	s.Version = SettingsVersion
}

// Encode serializes the settings for storage on the user row.
func (s UserSettings) Encode() (string, error) {
	s.Version = SettingsVersion
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settings: %w", err)
	}
	return string(data), nil
}
