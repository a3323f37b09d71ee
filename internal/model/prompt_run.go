package model

import "time"

// PromptRun records one daily prompt generation. Slot is unique, so a
// scheduled day can be claimed only once across processes.
type PromptRun struct {
	ID        uint      `gorm:"primaryKey"`
	RunID     string    `gorm:"size:36;not null;uniqueIndex"`
	Slot      string    `gorm:"size:32;not null;uniqueIndex"`
	Users     int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
