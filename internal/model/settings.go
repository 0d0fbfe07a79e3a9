package model

import "time"

// SettingsID is the fixed primary key of the notification settings row.
const SettingsID = 1

// DateLayout is the calendar-date format used for daily-counter resets.
const DateLayout = "2006-01-02"

// NotificationSettings is the single row of shared notification state.
// DailyCount resets to zero on the first access after LastResetDate
// falls behind the current date.
type NotificationSettings struct {
	ID            uint `gorm:"primaryKey"`
	Enabled       bool `gorm:"default:false"`
	DailyCount    int  `gorm:"default:0"`
	LastResetDate string
	LastDismiss   *time.Time
	UpdatedAt     time.Time
}
