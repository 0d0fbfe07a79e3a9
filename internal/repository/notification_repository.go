package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskmate/internal/model"
)

// NotificationRepository manages sent reminders.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListAll returns the full notification history, newest first. The
// eligibility pass uses it to skip tasks with an undismissed reminder.
func (r *NotificationRepository) ListAll(ctx context.Context) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := r.db.WithContext(ctx).Order("sent_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id uint) (*model.Notification, error) {
	var notification model.Notification
	if err := r.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// CommitBatch stores an admitted notification batch and the updated settings
// row in one transaction. A check run either lands completely or not at all;
// a partial batch with a bumped counter must never be observable.
func (r *NotificationRepository) CommitBatch(ctx context.Context, batch []model.Notification, settings *model.NotificationSettings) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(batch) > 0 {
			if err := tx.Create(&batch).Error; err != nil {
				return fmt.Errorf("create notifications: %w", err)
			}
		}
		if err := tx.Save(settings).Error; err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Dismiss marks a notification dismissed and records the dismissal time on
// the settings row, together.
func (r *NotificationRepository) Dismiss(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Notification{}).Where("id = ?", id).
			Updates(map[string]interface{}{"dismissed": true, "dismissed_at": at})
		if res.Error != nil {
			return fmt.Errorf("dismiss notification: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&model.NotificationSettings{}).Where("id = ?", model.SettingsID).
			Update("last_dismiss", at).Error; err != nil {
			return fmt.Errorf("record last dismiss: %w", err)
		}
		return nil
	})
	return err
}
