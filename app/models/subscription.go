package models

import "time"

// SubscriptionPlan is immutable reference data seeded by migrations. Plans
// are looked up by name, never created by end users.
type SubscriptionPlan struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Name  string  `gorm:"uniqueIndex;type:varchar(50)" json:"name"`
	Quota int     `gorm:"not null" json:"quota"`
	Price float64 `gorm:"type:decimal(10,2)" json:"price"`
}

type UserSubscriptionHistory struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	PlanID    uint             `gorm:"not null" json:"plan_id"`
	Plan      SubscriptionPlan `json:"plan"`
	StartedAt time.Time        `gorm:"autoCreateTime" json:"started_at"`
	EndedAt   *time.Time       `gorm:"type:timestamp;default:null" json:"ended_at"`
}
