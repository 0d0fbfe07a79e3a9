package model

import "time"

// Task priorities. Extracted tasks always start at medium.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a single to-do item extracted from a chat message.
type Task struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index"`
	Title       string
	Description string
	Deadline    *time.Time
	Completed   bool   `gorm:"default:false"`
	Priority    string `gorm:"default:medium"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
