package models

import "time"

// SummarizeCall is an append-only usage log row, one per metered call.
// Rows are never updated; they vanish only with their owning user.
type SummarizeCall struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	TranscriptLength int       `gorm:"not null" json:"transcript_length"`
	TokensUsed       int       `gorm:"not null" json:"tokens_used"`
	CalledAt         time.Time `gorm:"autoCreateTime" json:"called_at"`
}
