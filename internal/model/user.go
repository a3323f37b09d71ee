package model

import "time"

// Default identity values for users registered through the bot.
const (
	DefaultUserSource   = "telegram"
	DefaultUserLanguage = "uk"
)

// User stores a diary owner identified by an external messaging account.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID int64     `gorm:"not null;uniqueIndex:idx_users_external_source,priority:1" json:"external_id"`
	Source     string    `gorm:"size:32;not null;default:telegram;uniqueIndex:idx_users_external_source,priority:2" json:"source"`
	Username   string    `gorm:"size:64" json:"username,omitempty"`
	Language   string    `gorm:"size:8;not null;default:uk" json:"language"`
	IsActive   bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	Entries    []Entry   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ApplyDefaults fills unset identity fields.
func (u *User) ApplyDefaults() {
	if u.Source == "" {
		u.Source = DefaultUserSource
	}
	if u.Language == "" {
		u.Language = DefaultUserLanguage
	}
}

// UserUpdate carries a partial user update. Nil fields are left untouched.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Source   *string `json:"source,omitempty"`
}
