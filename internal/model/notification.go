package model

import "time"

// Notification is a reminder surfaced for an upcoming task deadline.
// At most one undismissed notification may reference a task at a time.
type Notification struct {
	ID          uint  `gorm:"primaryKey"`
	TaskID      *uint `gorm:"index"`
	UserID      uint  `gorm:"index"`
	Message     string
	SentAt      time.Time
	Dismissed   bool `gorm:"default:false"`
	DismissedAt *time.Time
}
