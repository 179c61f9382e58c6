package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings(t *testing.T) {
	t.Run("empty blob yields defaults", func(t *testing.T) {
		for _, raw := range []string{"", "{}"} {
			s, err := ParseSettings(raw)
			require.NoError(t, err)
			assert.Equal(t, SettingsVersion, s.Version)
			assert.True(t, s.Notifications)
			assert.Equal(t, "ru", s.Language)
			assert.Nil(t, s.Targets)
		}
	})

	t.Run("current schema round trips", func(t *testing.T) {
		original := UserSettings{
			DarkMode: true,
			Language: "en",
			Targets:  &TargetSettings{Calories: 1800, Protein: 120, Fat: 60, Carbs: 200},
			Personal: &PersonalInfo{Name: "Анна", Age: 29, Weight: 60.5},
		}
		encoded, err := original.Encode()
		require.NoError(t, err)

		parsed, err := ParseSettings(encoded)
		require.NoError(t, err)
		assert.Equal(t, SettingsVersion, parsed.Version)
		assert.True(t, parsed.DarkMode)
		assert.Equal(t, "en", parsed.Language)
		require.NotNil(t, parsed.Targets)
		assert.Equal(t, 1800, parsed.Targets.Calories)
		require.NotNil(t, parsed.Personal)
		assert.Equal(t, "Анна", parsed.Personal.Name)
	})

	t.Run("legacy blob is migrated", func(t *testing.T) {
		legacy := `{
			"dailyStats": {"targetCalories": 2200, "targetProtein": 160, "targetFat": 70, "targetCarbs": 260},
			"user": {"name": "Иван", "age": 40, "height": 175, "weight": 90, "targetWeight": 80}
		}`
		parsed, err := ParseSettings(legacy)
		require.NoError(t, err)
		assert.Equal(t, SettingsVersion, parsed.Version)

		require.NotNil(t, parsed.Targets)
		assert.Equal(t, 2200, parsed.Targets.Calories)
		assert.Equal(t, 160.0, parsed.Targets.Protein)
		assert.Equal(t, 70.0, parsed.Targets.Fat)
		assert.Equal(t, 260.0, parsed.Targets.Carbs)

		require.NotNil(t, parsed.Personal)
		assert.Equal(t, "Иван", parsed.Personal.Name)
		assert.Equal(t, 40, parsed.Personal.Age)
		assert.Equal(t, 80.0, parsed.Personal.TargetWeight)
	})

	t.Run("legacy blob with only targets", func(t *testing.T) {
		parsed, err := ParseSettings(`{"dailyStats": {"targetCalories": 1500}}`)
		require.NoError(t, err)
		require.NotNil(t, parsed.Targets)
		assert.Equal(t, 1500, parsed.Targets.Calories)
		assert.Nil(t, parsed.Personal)
		assert.Equal(t, "ru", parsed.Language)
	})

	t.Run("malformed blob is an error", func(t *testing.T) {
		_, err := ParseSettings("{broken")
		assert.Error(t, err)
	})
}

func TestEncodeStampsVersion(t *testing.T) {
	encoded, err := UserSettings{Language: "ru"}.Encode()
	require.NoError(t, err)
	assert.Contains(t, encoded, `"version":1`)
}

func TestUserApplyDefaults(t *testing.T) {
	t.Run("zero profile gets defaults", func(t *testing.T) {
		var u User
		u.ApplyDefaults()
		assert.Equal(t, DefaultUserName, u.Name)
		assert.Equal(t, DefaultTargetCalories, u.TargetCalories)
		assert.Equal(t, float64(DefaultTargetProtein), u.TargetProtein)
		assert.Equal(t, float64(DefaultTargetFat), u.TargetFat)
		assert.Equal(t, float64(DefaultTargetCarbs), u.TargetCarbs)
	})

	t.Run("configured values survive", func(t *testing.T) {
		u := User{Name: "Анна", TargetCalories: 1700}
		u.ApplyDefaults()
		assert.Equal(t, "Анна", u.Name)
		assert.Equal(t, 1700, u.TargetCalories)
		assert.Equal(t, float64(DefaultTargetProtein), u.TargetProtein)
	})
}
