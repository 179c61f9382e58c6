package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter keys are kept two days so yesterday's figures stay readable
// for the stats endpoint before expiring.
const usageKeyTTL = 48 * time.Hour

// LimitStatus reports today's AI usage against the configured ceilings.
type LimitStatus struct {
	CanUseAI          bool    `json:"can_use_ai"`
	DailyRequests     int     `json:"daily_requests"`
	DailyCost         float64 `json:"daily_cost"`
	RemainingRequests int     `json:"remaining_requests"`
	RemainingCost     float64 `json:"remaining_cost"`
}

// UsageStats is the governor's reporting shape: today, yesterday and the
// configured limits.
type UsageStats struct {
	Today struct {
		Requests int     `json:"requests"`
		Cost     float64 `json:"cost"`
	} `json:"today"`
	Yesterday struct {
		Requests int     `json:"requests"`
		Cost     float64 `json:"cost"`
	} `json:"yesterday"`
	MaxDailyRequests int     `json:"max_daily_requests"`
	MaxDailyCost     float64 `json:"max_daily_cost"`
}

// UsageGovernor tracks a process-wide, date-keyed request count and
// estimated cost in Redis. The check is advisory: RecordUsage warns when
// a ceiling is crossed but never blocks, and enforcement is the caller's
// decision.
type UsageGovernor struct {
	redis            *redis.Client
	maxDailyRequests int
	maxDailyCost     float64
	logger           *zap.Logger
}

// NewUsageGovernor creates a governor with the given daily ceilings.
func NewUsageGovernor(redisClient *redis.Client, maxDailyRequests int, maxDailyCost float64, logger *zap.Logger) *UsageGovernor {
	return &UsageGovernor{
		redis:            redisClient,
		maxDailyRequests: maxDailyRequests,
		maxDailyCost:     maxDailyCost,
		logger:           logger,
	}
}

func usageDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func requestsKey(date string) string { return "ai:requests:" + date }
func costKey(date string) string     { return "ai:cost:" + date }

// CheckLimits reports whether today's counters leave headroom for
// another call.
func (g *UsageGovernor) CheckLimits(ctx context.Context) (*LimitStatus, error) {
	if g.redis == nil {
		return g.status(0, 0), nil
	}
	requests, cost, err := g.counters(ctx, usageDate(time.Now()))
	if err != nil {
		return nil, err
	}
	return g.status(requests, cost), nil
}

// RecordUsage increments today's counters and returns the updated status.
// Crossing a ceiling is logged, not blocked.
func (g *UsageGovernor) RecordUsage(ctx context.Context, tokens int, cost float64) (*LimitStatus, error) {
	// Without Redis the governor is inert: nothing is counted and no
	// ceiling ever trips.
	if g.redis == nil {
		return g.status(0, 0), nil
	}

	today := usageDate(time.Now())

	pipe := g.redis.Pipeline()
	incrReqs := pipe.Incr(ctx, requestsKey(today))
	incrCost := pipe.IncrByFloat(ctx, costKey(today), cost)
	pipe.Expire(ctx, requestsKey(today), usageKeyTTL)
	pipe.Expire(ctx, costKey(today), usageKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to record usage: %v", ErrBackend, err)
	}

	status := g.status(int(incrReqs.Val()), incrCost.Val())
	if status.DailyRequests >= g.maxDailyRequests {
		g.logger.Warn("daily AI request ceiling reached",
			zap.Int("requests", status.DailyRequests),
			zap.Int("limit", g.maxDailyRequests))
	}
	if status.DailyCost >= g.maxDailyCost {
		g.logger.Warn("daily AI cost ceiling reached",
			zap.Float64("cost", status.DailyCost),
			zap.Float64("limit", g.maxDailyCost))
	}
	_ = tokens // token counts are not billed separately today

	return status, nil
}

// ResetToday clears today's counters. Maintenance only.
func (g *UsageGovernor) ResetToday(ctx context.Context) error {
	if g.redis == nil {
		return nil
	}
	today := usageDate(time.Now())
	if err := g.redis.Del(ctx, requestsKey(today), costKey(today)).Err(); err != nil {
		return fmt.Errorf("%w: failed to reset usage counters: %v", ErrBackend, err)
	}
	return nil
}

// Stats returns today's and yesterday's counters plus the limits.
func (g *UsageGovernor) Stats(ctx context.Context) (*UsageStats, error) {
	now := time.Now()

	stats := &UsageStats{
		MaxDailyRequests: g.maxDailyRequests,
		MaxDailyCost:     g.maxDailyCost,
	}
	if g.redis == nil {
		return stats, nil
	}

	var err error
	stats.Today.Requests, stats.Today.Cost, err = g.counters(ctx, usageDate(now))
	if err != nil {
		return nil, err
	}
	stats.Yesterday.Requests, stats.Yesterday.Cost, err = g.counters(ctx, usageDate(now.AddDate(0, 0, -1)))
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (g *UsageGovernor) counters(ctx context.Context, date string) (int, float64, error) {
	requests, err := g.redis.Get(ctx, requestsKey(date)).Int()
	if err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("%w: failed to read usage counters: %v", ErrBackend, err)
	}
	cost, err := g.redis.Get(ctx, costKey(date)).Float64()
	if err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("%w: failed to read usage counters: %v", ErrBackend, err)
	}
	return requests, cost, nil
}

func (g *UsageGovernor) status(requests int, cost float64) *LimitStatus {
	remainingReqs := g.maxDailyRequests - requests
	if remainingReqs < 0 {
		remainingReqs = 0
	}
	remainingCost := g.maxDailyCost - cost
	if remainingCost < 0 {
		remainingCost = 0
	}
	return &LimitStatus{
		CanUseAI:          requests < g.maxDailyRequests && cost < g.maxDailyCost,
		DailyRequests:     requests,
		DailyCost:         cost,
		RemainingRequests: remainingReqs,
		RemainingCost:     remainingCost,
	}
}
