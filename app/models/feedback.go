package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserFeedback struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Feedback  datatypes.JSON `gorm:"not null" json:"feedback"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
