package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxnote/voxnote/app/models"
)

// DefaultPlans is the reference tier set. The SQL migrations seed the same
// rows; this exists so AutoMigrate-based setups (tests, dev) behave the same.
var DefaultPlans = []models.SubscriptionPlan{
	{Name: models.PLAN_FREE, Quota: 25, Price: 0.00},
	{Name: models.PLAN_PRO, Quota: 100, Price: 4.99},
}

var DefaultRoles = []models.Role{
	{Name: models.ROLE_USER},
	{Name: models.ROLE_ADMIN},
}

// SeedReferenceData inserts default plans and roles, ignoring duplicates.
func SeedReferenceData(db *gorm.DB) error {
	plans := make([]models.SubscriptionPlan, len(DefaultPlans))
	copy(plans, DefaultPlans)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&plans).Error; err != nil {
		return err
	}

	roles := make([]models.Role, len(DefaultRoles))
	copy(roles, DefaultRoles)
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error
}
