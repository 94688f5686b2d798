package models

import "time"

// EmailVerification and PasswordReset are structurally identical one-time
// code rows; they live in separate tables so the two flows cannot redeem
// each other's codes. The codes package works against either table.

type EmailVerification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Email     string    `gorm:"type:varchar(200);index:ix_email_verifications_live" json:"email"`
	Code      string    `gorm:"type:char(6);not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index:ix_email_verifications_live" json:"expires_at"`
	Consumed  bool      `gorm:"not null;default:false;index:ix_email_verifications_live" json:"consumed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type PasswordReset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Email     string    `gorm:"type:varchar(200);index:ix_password_resets_live" json:"email"`
	Code      string    `gorm:"type:char(6);not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index:ix_password_resets_live" json:"expires_at"`
	Consumed  bool      `gorm:"not null;default:false;index:ix_password_resets_live" json:"consumed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
