package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/types"
)

// ProfileService owns the users table and the AI request audit log.
type ProfileService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewProfileService(db *gorm.DB, logger *zap.Logger) *ProfileService {
	return &ProfileService{db: db, logger: logger}
}

// GetOrCreateUser looks a user up by Telegram ID, inserting a row seeded
// from the identity when absent. Calling it twice with the same identity
// returns the same row; the Telegram ID never changes after creation.
func (s *ProfileService) GetOrCreateUser(ctx context.Context, identity types.TelegramUser) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("telegram_id = ?", identity.ID).First(&user).Error
	if err == nil {
		user.ApplyDefaults()
		s.normalizeSettings(&user)
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: failed to look up user: %v", ErrBackend, err)
	}

	name := identity.DisplayName()
	if name == "" {
		name = models.DefaultUserName
	}
	settings, err := models.DefaultSettings().Encode()
	if err != nil {
		return nil, err
	}

	user = models.User{
		TelegramID: identity.ID,
		Username:   identity.Username,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		Name:       name,
		Settings:   settings,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent first sighting of the same identity can insert
		// first; the unique index makes the retry read safe.
		var existing models.User
		if lerr := s.db.WithContext(ctx).Where("telegram_id = ?", identity.ID).First(&existing).Error; lerr == nil {
			existing.ApplyDefaults()
			s.normalizeSettings(&existing)
			return &existing, nil
		}
		return nil, fmt.Errorf("%w: failed to create user: %v", ErrBackend, err)
	}

	s.logger.Info("created user", zap.Int64("telegram_id", identity.ID), zap.Uint("user_id", user.ID))
	user.ApplyDefaults()
	return &user, nil
}

// GetUser returns one user row with display defaults applied and the
// settings blob normalized to the current schema.
func (s *ProfileService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("%w: failed to load user: %v", ErrBackend, err)
	}
	user.ApplyDefaults()
	s.normalizeSettings(&user)
	return &user, nil
}

// normalizeSettings runs the stored blob through the settings parser so
// callers always see the current schema, legacy unversioned blobs
// included. The row itself is left untouched; migration happens on read.
func (s *ProfileService) normalizeSettings(user *models.User) {
	settings, err := models.ParseSettings(user.Settings)
	if err != nil {
		s.logger.Warn("malformed settings blob, serving defaults",
			zap.Uint("user_id", user.ID), zap.Error(err))
		settings = models.DefaultSettings()
	}
	encoded, err := settings.Encode()
	if err != nil {
		return
	}
	user.Settings = encoded
}

// UpdateUserSettings stores the versioned settings blob and fans nested
// target and personal-info values out into their discrete columns.
func (s *ProfileService) UpdateUserSettings(ctx context.Context, userID uint, settings models.UserSettings) (*models.User, error) {
	encoded, err := settings.Encode()
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"settings": encoded}
	if t := settings.Targets; t != nil {
		updates["target_calories"] = t.Calories
		updates["target_protein"] = t.Protein
		updates["target_fat"] = t.Fat
		updates["target_carbs"] = t.Carbs
	}
	if p := settings.Personal; p != nil {
		updates["age"] = p.Age
		updates["height"] = p.Height
		updates["weight"] = p.Weight
		updates["target_weight"] = p.TargetWeight
		if p.Name != "" {
			updates["name"] = p.Name
		}
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("%w: failed to update settings: %v", ErrBackend, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}

	return s.GetUser(ctx, userID)
}

// LogAIRequest appends one audit row. Failures are reported but callers
// treat them as non-fatal: auditing never blocks the main flow.
func (s *ProfileService) LogAIRequest(ctx context.Context, userID uint, requestText, responseText string) error {
	row := models.AIRequest{
		UserID:       userID,
		RequestText:  requestText,
		ResponseText: responseText,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: failed to log AI request: %v", ErrBackend, err)
	}
	return nil
}
