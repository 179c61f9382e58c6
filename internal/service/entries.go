package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutrilog/backend/internal/models"
)

// EntryService owns the food_entries table and its derived aggregates.
type EntryService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewEntryService(db *gorm.DB, logger *zap.Logger) *EntryService {
	return &EntryService{db: db, logger: logger}
}

// Today returns the server-local calendar date in entry format.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// AddFoodEntry inserts one entry for the user, defaulting the date to
// today when the caller omits it. Macro fields must be non-negative.
func (s *EntryService) AddFoodEntry(ctx context.Context, userID uint, entry models.FoodEntry) (*models.FoodEntry, error) {
	if entry.FoodName == "" {
		return nil, fmt.Errorf("%w: food name is required", ErrValidation)
	}
	if entry.Calories < 0 || entry.Proteins < 0 || entry.Fats < 0 || entry.Carbs < 0 {
		return nil, fmt.Errorf("%w: macro fields must be non-negative", ErrValidation)
	}

	entry.ID = 0
	entry.UserID = userID
	if entry.Date == "" {
		entry.Date = Today()
	}
	if entry.OriginalDescription == "" {
		entry.OriginalDescription = entry.FoodName
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to insert food entry: %v", ErrBackend, err)
	}
	return &entry, nil
}

// GetFoodEntries returns the user's entries, optionally filtered to one
// date, newest first.
func (s *EntryService) GetFoodEntries(ctx context.Context, userID uint, date string) ([]models.FoodEntry, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if date != "" {
		query = query.Where("date = ?", date)
	}

	var entries []models.FoodEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to load food entries: %v", ErrBackend, err)
	}
	return entries, nil
}

// DeleteFoodEntry removes one entry. The delete is scoped by both entry
// id and owner, so an id belonging to another user reads as not found.
func (s *EntryService) DeleteFoodEntry(ctx context.Context, userID, entryID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&models.FoodEntry{})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to delete food entry: %v", ErrBackend, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: entry %d", ErrNotFound, entryID)
	}
	return nil
}

// GetDailyTotals sums the user's entries for one calendar date.
func (s *EntryService) GetDailyTotals(ctx context.Context, userID uint, date string) (*models.DailyTotals, error) {
	return s.sumRange(ctx, userID, date, date)
}

// GetUserStats sums the user's entries over an inclusive date range.
func (s *EntryService) GetUserStats(ctx context.Context, userID uint, startDate, endDate string) (*models.DailyTotals, error) {
	if startDate == "" || endDate == "" {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	return s.sumRange(ctx, userID, startDate, endDate)
}

func (s *EntryService) sumRange(ctx context.Context, userID uint, startDate, endDate string) (*models.DailyTotals, error) {
	var totals models.DailyTotals
	err := s.db.WithContext(ctx).Model(&models.FoodEntry{}).
		Select("COALESCE(SUM(calories),0) AS calories, COALESCE(SUM(proteins),0) AS proteins, COALESCE(SUM(fats),0) AS fats, COALESCE(SUM(carbs),0) AS carbs").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sum food entries: %v", ErrBackend, err)
	}
	return &totals, nil
}

// GetDaysWithEntries counts the distinct calendar dates having at least
// one entry for the user.
func (s *EntryService) GetDaysWithEntries(ctx context.Context, userID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FoodEntry{}).
		Where("user_id = ?", userID).
		Distinct("date").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count entry days: %v", ErrBackend, err)
	}
	return int(count), nil
}
