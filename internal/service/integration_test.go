package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/service"
	"github.com/nutrilog/backend/internal/testdb"
	"github.com/nutrilog/backend/internal/types"
)

// Exercises the entry and profile services against a real Postgres, so
// the check constraints and aggregate SQL run on the production dialect.
func TestEntryFlowOnPostgres(t *testing.T) {
	td := testdb.Setup(t)
	ctx := context.Background()
	logger := zap.NewNop()

	profiles := service.NewProfileService(td.DB, logger)
	entries := service.NewEntryService(td.DB, logger)

	user, err := profiles.GetOrCreateUser(ctx, types.TelegramUser{ID: 987654321, FirstName: "Мария"})
	require.NoError(t, err)

	created, err := entries.AddFoodEntry(ctx, user.ID, models.FoodEntry{
		FoodName: "Гречка",
		Calories: 343,
		Proteins: 12.6,
		Fats:     3.3,
		Carbs:    62,
		Date:     "2025-03-10",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	totals, err := entries.GetDailyTotals(ctx, user.ID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 343, totals.Calories)
	assert.InDelta(t, 12.6, totals.Proteins, 0.001)

	t.Run("check constraint rejects negative rows", func(t *testing.T) {
		err := td.DB.Exec(
			"INSERT INTO food_entries (user_id, food_name, calories, proteins, fats, carbs, date) VALUES (?, ?, ?, ?, ?, ?, ?)",
			user.ID, "Сломанная строка", -1, 0, 0, 0, "2025-03-10",
		).Error
		assert.Error(t, err)
	})

	t.Run("unique telegram id", func(t *testing.T) {
		err := td.DB.Exec(
			"INSERT INTO users (telegram_id, name) VALUES (?, ?)",
			user.TelegramID, "Дубль",
		).Error
		assert.Error(t, err)
	})

	t.Run("delete is ownership scoped", func(t *testing.T) {
		stranger, err := profiles.GetOrCreateUser(ctx, types.TelegramUser{ID: 111})
		require.NoError(t, err)
		assert.ErrorIs(t, entries.DeleteFoodEntry(ctx, stranger.ID, created.ID), service.ErrNotFound)
		require.NoError(t, entries.DeleteFoodEntry(ctx, user.ID, created.ID))
	})
}
