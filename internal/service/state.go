package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/models"
)

const stateSnapshotTTL = 30 * 24 * time.Hour

// AppState is one user's application state: the profile snapshot, derived
// daily totals, today's meals and UI-relevant settings. The error flag
// overlays the rest: the state can hold stale data and an error at once.
type AppState struct {
	User            *models.User        `json:"user,omitempty"`
	DailyTotals     models.DailyTotals  `json:"daily_totals"`
	Meals           []models.FoodEntry  `json:"meals"`
	Settings        models.UserSettings `json:"settings"`
	DaysWithEntries int                 `json:"days_with_entries"`
	Loading         bool                `json:"loading"`
	LastError       string              `json:"last_error,omitempty"`
	SyncVersion     uint64              `json:"sync_version"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func defaultState() *AppState {
	return &AppState{
		Meals:    []models.FoodEntry{},
		Settings: models.DefaultSettings(),
	}
}

// EncodeState serializes a state snapshot. Pure function over AppState.
func EncodeState(state *AppState) ([]byte, error) {
	return json.Marshal(state)
}

// DecodeState merges a stored snapshot under the default shape. Malformed
// or empty snapshots fall back to the defaults rather than failing.
func DecodeState(data []byte) *AppState {
	state := defaultState()
	if len(data) == 0 {
		return state
	}
	if err := json.Unmarshal(data, state); err != nil {
		return defaultState()
	}
	if state.Meals == nil {
		state.Meals = []models.FoodEntry{}
	}
	if state.Settings.Version == 0 {
		state.Settings = models.DefaultSettings()
	}
	return state
}

// StateStore holds per-user AppState, persists every change to Redis and
// rehydrates prior snapshots on first access. It is explicitly
// constructed and injected; there is no package-level instance.
type StateStore struct {
	mu     sync.Mutex
	states map[int64]*AppState
	redis  *redis.Client
	logger *zap.Logger
}

func NewStateStore(redisClient *redis.Client, logger *zap.Logger) *StateStore {
	return &StateStore{
		states: make(map[int64]*AppState),
		redis:  redisClient,
		logger: logger,
	}
}

func stateKey(telegramID int64) string {
	return "appstate:" + strconv.FormatInt(telegramID, 10)
}

// Load returns the state for a user, rehydrating from Redis when the
// in-memory map has no entry yet.
func (s *StateStore) Load(ctx context.Context, telegramID int64) *AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, telegramID)
}

func (s *StateStore) loadLocked(ctx context.Context, telegramID int64) *AppState {
	if state, ok := s.states[telegramID]; ok {
		return state
	}

	state := defaultState()
	if s.redis != nil {
		if data, err := s.redis.Get(ctx, stateKey(telegramID)).Bytes(); err == nil {
			state = DecodeState(data)
		}
	}
	s.states[telegramID] = state
	return state
}

// mutate applies one action under the lock, bumps the sync version and
// persists the snapshot.
func (s *StateStore) mutate(ctx context.Context, telegramID int64, action func(*AppState)) *AppState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.loadLocked(ctx, telegramID)
	action(state)
	state.SyncVersion++
	state.UpdatedAt = time.Now()
	s.persistLocked(ctx, telegramID, state)

	snapshot := *state
	return &snapshot
}

func (s *StateStore) persistLocked(ctx context.Context, telegramID int64, state *AppState) {
	if s.redis == nil {
		return
	}
	data, err := EncodeState(state)
	if err != nil {
		s.logger.Warn("failed to encode state snapshot", zap.Error(err))
		return
	}
	if err := s.redis.Set(ctx, stateKey(telegramID), data, stateSnapshotTTL).Err(); err != nil {
		s.logger.Warn("failed to persist state snapshot",
			zap.Int64("telegram_id", telegramID), zap.Error(err))
	}
}

// SetUser records the resolved user row in the state.
func (s *StateStore) SetUser(ctx context.Context, telegramID int64, user *models.User) *AppState {
	return s.mutate(ctx, telegramID, func(st *AppState) {
		st.User = user
		st.LastError = ""
	})
}

// AddMeal appends a meal and bumps the daily totals optimistically. The
// authoritative figures arrive with the next sync.
func (s *StateStore) AddMeal(ctx context.Context, telegramID int64, entry models.FoodEntry) *AppState {
	return s.mutate(ctx, telegramID, func(st *AppState) {
		st.Meals = append([]models.FoodEntry{entry}, st.Meals...)
		st.DailyTotals.Calories += entry.Calories
		st.DailyTotals.Proteins += entry.Proteins
		st.DailyTotals.Fats += entry.Fats
		st.DailyTotals.Carbs += entry.Carbs
	})
}

// SetSettings replaces the settings snapshot.
func (s *StateStore) SetSettings(ctx context.Context, telegramID int64, settings models.UserSettings) *AppState {
	return s.mutate(ctx, telegramID, func(st *AppState) {
		st.Settings = settings
	})
}

// ResetDailyTotals zeroes the derived totals, e.g. on date rollover.
func (s *StateStore) ResetDailyTotals(ctx context.Context, telegramID int64) *AppState {
	return s.mutate(ctx, telegramID, func(st *AppState) {
		st.DailyTotals = models.DailyTotals{}
		st.Meals = []models.FoodEntry{}
	})
}

// SetLoading toggles the loading overlay flag.
func (s *StateStore) SetLoading(ctx context.Context, telegramID int64, loading bool) *AppState {
	return s.mutate(ctx, telegramID, func(st *AppState) {
		st.Loading = loading
	})
}

// SetError records a non-fatal error overlay; existing data stays.
func (s *StateStore) SetError(ctx context.Context, telegramID int64, message string) *AppState {
	return s.mutate(ctx, telegramID, func(st *AppState) {
		st.LastError = message
	})
}

// SetDaysCount records the distinct-day count.
func (s *StateStore) SetDaysCount(ctx context.Context, telegramID int64, days int) *AppState {
	return s.mutate(ctx, telegramID, func(st *AppState) {
		st.DaysWithEntries = days
	})
}

// BeginSync captures the current sync version. An authoritative re-sync
// reads the database after calling this and hands the version back to
// ApplySync.
func (s *StateStore) BeginSync(ctx context.Context, telegramID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, telegramID).SyncVersion
}

// ApplySync installs recomputed totals and meals, but only when no
// mutation happened since BeginSync. A stale recomputation can therefore
// never overwrite a newer optimistic update; the caller re-syncs instead.
func (s *StateStore) ApplySync(ctx context.Context, telegramID int64, version uint64, totals models.DailyTotals, meals []models.FoodEntry, days int) (*AppState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.loadLocked(ctx, telegramID)
	if state.SyncVersion != version {
		snapshot := *state
		return &snapshot, false
	}

	if meals == nil {
		meals = []models.FoodEntry{}
	}
	state.DailyTotals = totals
	state.Meals = meals
	state.DaysWithEntries = days
	state.LastError = ""
	state.SyncVersion++
	state.UpdatedAt = time.Now()
	s.persistLocked(ctx, telegramID, state)

	snapshot := *state
	return &snapshot, true
}
