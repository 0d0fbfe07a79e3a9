package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the bot and the notification pipeline.
type Config struct {
	TelegramToken string
	DatabaseURL   string

	// NotificationsEnabled seeds the settings row on first run; after that
	// the stored toggle wins.
	NotificationsEnabled bool
	MaxPerDay            int
	// MinInterval is parsed and validated but not enforced between
	// individual sends; only the daily cap limits volume.
	MinInterval   time.Duration
	LeadTime      time.Duration
	CheckInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("database_url", "taskmate.db")
	v.SetDefault("notifications_enabled", false)
	v.SetDefault("max_notifications_per_day", 3)
	v.SetDefault("min_notification_interval_hours", 2)
	v.SetDefault("notification_lead_time_hours", 3)
	v.SetDefault("notification_check_interval_minutes", 30)
	v.AutomaticEnv()

	cfg := Config{
		TelegramToken:        strings.TrimSpace(v.GetString("telegram_token")),
		DatabaseURL:          strings.TrimSpace(v.GetString("database_url")),
		NotificationsEnabled: v.GetBool("notifications_enabled"),
		MaxPerDay:            v.GetInt("max_notifications_per_day"),
		MinInterval:          time.Duration(v.GetInt("min_notification_interval_hours")) * time.Hour,
		LeadTime:             time.Duration(v.GetInt("notification_lead_time_hours")) * time.Hour,
		CheckInterval:        time.Duration(v.GetInt("notification_check_interval_minutes")) * time.Minute,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskmate.db"
	}
	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.MaxPerDay <= 0 {
		return cfg, fmt.Errorf("MAX_NOTIFICATIONS_PER_DAY must be positive, got %d", cfg.MaxPerDay)
	}
	if cfg.MinInterval <= 0 {
		return cfg, fmt.Errorf("MIN_NOTIFICATION_INTERVAL_HOURS must be positive")
	}
	if cfg.LeadTime <= 0 {
		return cfg, fmt.Errorf("NOTIFICATION_LEAD_TIME_HOURS must be positive")
	}
	if cfg.CheckInterval <= 0 {
		return cfg, fmt.Errorf("NOTIFICATION_CHECK_INTERVAL_MINUTES must be positive")
	}

	return cfg, nil
}
