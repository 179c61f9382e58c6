package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that the loaded configuration is usable in the current
// environment. Production is strict; development tolerates missing
// secrets so the app can run against local defaults.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "must not be empty"}.Error())
	}
	if cfg.AIMaxDailyReqs <= 0 {
		errs = append(errs, ValidationError{"AI_MAX_DAILY_REQUESTS", "must be positive"}.Error())
	}
	if cfg.AIMaxDailyCost <= 0 {
		errs = append(errs, ValidationError{"AI_MAX_DAILY_COST", "must be positive"}.Error())
	}

	if IsProduction() {
		if cfg.JWTSecret == "" {
			errs = append(errs, ValidationError{"JWT_SECRET", "required in production"}.Error())
		}
		if cfg.TelegramBotToken == "" {
			errs = append(errs, ValidationError{"TELEGRAM_BOT_TOKEN", "required in production"}.Error())
		}
		if cfg.AIAPIKey == "" {
			errs = append(errs, ValidationError{"AI_API_KEY", "required in production"}.Error())
		}
		if cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", "required in production"}.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
