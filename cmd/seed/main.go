package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/database"
	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/service"
	"github.com/nutrilog/backend/internal/types"
)

// Seeds the development database with the synthetic Mini App identity
// and a day of sample entries.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("failed to migrate", zap.Error(err))
	}

	ctx := context.Background()
	profile := service.NewProfileService(db, logger)
	entries := service.NewEntryService(db, logger)

	user, err := profile.GetOrCreateUser(ctx, types.TelegramUser{
		ID:        123456789,
		FirstName: "Dev",
		Username:  "dev_user",
	})
	if err != nil {
		logger.Fatal("failed to seed user", zap.Error(err))
	}

	samples := []models.FoodEntry{
		{FoodName: "Овсянка с ягодами", Calories: 320, Proteins: 9, Fats: 6, Carbs: 58},
		{FoodName: "Куриная грудка (200г)", Calories: 330, Proteins: 62, Fats: 7.2, Carbs: 0},
		{FoodName: "Рис белый вареный (100г)", Calories: 130, Proteins: 2.7, Fats: 0.3, Carbs: 28},
	}
	for _, sample := range samples {
		if _, err := entries.AddFoodEntry(ctx, user.ID, sample); err != nil {
			logger.Fatal("failed to seed entry", zap.String("food", sample.FoodName), zap.Error(err))
		}
	}

	logger.Info("seeded development data",
		zap.Uint("user_id", user.ID),
		zap.Int("entries", len(samples)))
}
