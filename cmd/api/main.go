package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/api"
	"github.com/nutrilog/backend/internal/database"
	"github.com/nutrilog/backend/internal/router"
	"github.com/nutrilog/backend/internal/server"
	"github.com/nutrilog/backend/internal/service"
)

func main() {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}

	usage := service.NewUsageGovernor(redisClient, cfg.AIMaxDailyReqs, cfg.AIMaxDailyCost, logger)
	estimator, err := service.NewEstimationService(cfg, redisClient, usage, logger)
	if err != nil {
		logger.Fatal("failed to create estimation service", zap.Error(err))
	}
	analyzer := service.NewMealAnalyzer(estimator, cfg.AIImproveNames, logger)
	auth := service.NewAuthService(cfg, logger)
	profile := service.NewProfileService(db, logger)
	entries := service.NewEntryService(db, logger)
	state := service.NewStateStore(redisClient, logger)

	handlers := router.Handlers{
		Auth:    api.NewAuthHandler(auth, profile, state, logger),
		Analyze: api.NewAnalyzeHandler(analyzer, usage, profile, cfg.AIEnforceLimits, logger),
		Entries: api.NewEntryHandler(entries, state, logger),
		Profile: api.NewProfileHandler(profile, state, logger),
		State:   api.NewStateHandler(state, entries, logger),
		Usage:   api.NewUsageHandler(usage),
	}

	engine := router.SetupRouter(handlers, auth, db, redisClient, logger)
	srv := server.New(engine, cfg.ServerHost, cfg.ServerPort, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	logger.Info("shutting down server")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Fatal("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	if config.IsProduction() {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
