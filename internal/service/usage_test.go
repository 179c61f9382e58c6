package service

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func usageTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set, skipping usage governor tests")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":" + port, DB: 15})
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestUsageGovernor(t *testing.T) {
	client := usageTestRedis(t)
	defer client.Close()
	ctx := context.Background()

	gov := NewUsageGovernor(client, 3, 1.0, zap.NewNop())
	require.NoError(t, gov.ResetToday(ctx))
	defer gov.ResetToday(ctx)

	t.Run("fresh day has full headroom", func(t *testing.T) {
		status, err := gov.CheckLimits(ctx)
		require.NoError(t, err)
		assert.True(t, status.CanUseAI)
		assert.Equal(t, 0, status.DailyRequests)
		assert.Equal(t, 3, status.RemainingRequests)
		assert.Equal(t, 1.0, status.RemainingCost)
	})

	t.Run("usage accumulates", func(t *testing.T) {
		status, err := gov.RecordUsage(ctx, 500, 0.02)
		require.NoError(t, err)
		assert.Equal(t, 1, status.DailyRequests)
		assert.InDelta(t, 0.02, status.DailyCost, 0.0001)
		assert.True(t, status.CanUseAI)
	})

	t.Run("request ceiling flips the flag", func(t *testing.T) {
		_, err := gov.RecordUsage(ctx, 500, 0.02)
		require.NoError(t, err)
		status, err := gov.RecordUsage(ctx, 500, 0.02)
		require.NoError(t, err)
		assert.Equal(t, 3, status.DailyRequests)
		assert.False(t, status.CanUseAI)
		assert.Equal(t, 0, status.RemainingRequests)

		checked, err := gov.CheckLimits(ctx)
		require.NoError(t, err)
		assert.False(t, checked.CanUseAI)
	})

	t.Run("cost ceiling flips the flag", func(t *testing.T) {
		costGov := NewUsageGovernor(client, 100, 0.05, zap.NewNop())
		require.NoError(t, costGov.ResetToday(ctx))
		defer costGov.ResetToday(ctx)

		_, err := costGov.RecordUsage(ctx, 500, 0.04)
		require.NoError(t, err)
		status, err := costGov.RecordUsage(ctx, 500, 0.04)
		require.NoError(t, err)
		assert.False(t, status.CanUseAI)
		assert.Equal(t, 0.0, status.RemainingCost)
	})

	t.Run("reset restores headroom", func(t *testing.T) {
		require.NoError(t, gov.ResetToday(ctx))
		status, err := gov.CheckLimits(ctx)
		require.NoError(t, err)
		assert.True(t, status.CanUseAI)
	})

	t.Run("stats report today and limits", func(t *testing.T) {
		require.NoError(t, gov.ResetToday(ctx))
		_, err := gov.RecordUsage(ctx, 500, 0.02)
		require.NoError(t, err)

		stats, err := gov.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Today.Requests)
		assert.Equal(t, 3, stats.MaxDailyRequests)
		assert.Equal(t, 1.0, stats.MaxDailyCost)
	})
}

func TestUsageGovernorWithoutRedis(t *testing.T) {
	gov := NewUsageGovernor(nil, 100, 2.0, zap.NewNop())
	ctx := context.Background()

	status, err := gov.CheckLimits(ctx)
	require.NoError(t, err)
	assert.True(t, status.CanUseAI)

	status, err = gov.RecordUsage(ctx, 500, 0.02)
	require.NoError(t, err)
	assert.True(t, status.CanUseAI)
	assert.Equal(t, 0, status.DailyRequests)
}
