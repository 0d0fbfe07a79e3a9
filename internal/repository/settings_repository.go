package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskmate/internal/model"
)

// SettingsRepository manages the singleton notification settings row.
type SettingsRepository struct {
	db *gorm.DB
	// seedEnabled is the configured default applied when the row does not
	// exist yet. Once created, the stored toggle is authoritative.
	seedEnabled bool
}

func NewSettingsRepository(db *gorm.DB, seedEnabled bool) *SettingsRepository {
	return &SettingsRepository{db: db, seedEnabled: seedEnabled}
}

// Get returns the settings row, creating it on first access.
func (r *SettingsRepository) Get(ctx context.Context) (*model.NotificationSettings, error) {
	var settings model.NotificationSettings
	db := r.db.WithContext(ctx)
	err := db.First(&settings, model.SettingsID).Error
	switch {
	case err == nil:
		return &settings, nil
	case err == gorm.ErrRecordNotFound:
		settings = model.NotificationSettings{
			ID:      model.SettingsID,
			Enabled: r.seedEnabled,
		}
		if err := db.Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("create settings: %w", err)
		}
		return &settings, nil
	default:
		return nil, fmt.Errorf("find settings: %w", err)
	}
}

// SetEnabled flips the notification toggle.
func (r *SettingsRepository) SetEnabled(ctx context.Context, enabled bool) error {
	if _, err := r.Get(ctx); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&model.NotificationSettings{}).
		Where("id = ?", model.SettingsID).
		Update("enabled", enabled).Error; err != nil {
		return fmt.Errorf("toggle notifications: %w", err)
	}
	return nil
}
