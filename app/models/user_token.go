package models

import "time"

// UserToken stores a third-party refresh credential, one per (user, provider).
// Writes are idempotent upserts; the newest token wins.
type UserToken struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:ux_user_tokens_provider" json:"user_id"`
	Provider     string    `gorm:"type:varchar(50);not null;uniqueIndex:ux_user_tokens_provider" json:"provider"`
	RefreshToken string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
