package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxnote/voxnote/app/models"
)

// ErrEmailTaken is returned by Create when the address is already registered.
var ErrEmailTaken = errors.New("email already taken")

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByEmail retrieves a user by their email address. A missing row is not
// an error; callers get (nil, nil).
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts the user row, the free-plan subscription history row and the
// default role assignment as one atomic unit. Partial creation would leave a
// user without a plan or role, which the quota path assumes cannot happen.
func (r *userRepository) Create(email, password, fullName string) (*models.User, error) {
	user, err := models.NewUser(email, password, fullName)
	if err != nil {
		return nil, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}

		var freePlan models.SubscriptionPlan
		if err := tx.Where("name = ?", models.PLAN_FREE).First(&freePlan).Error; err != nil {
			return err
		}
		history := models.UserSubscriptionHistory{
			UserID:    user.ID,
			PlanID:    freePlan.ID,
			StartedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		var defaultRole models.Role
		if err := tx.Where("name = ?", models.ROLE_USER).First(&defaultRole).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserRole{UserID: user.ID, RoleID: defaultRole.ID}).Error
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// RecordSummarizeCall increments the user's counter with a relative SQL
// update so concurrent calls never lose an increment, and appends the
// per-call log row in the same transaction.
func (r *userRepository) RecordSummarizeCall(userID uint, transcriptLen, tokensUsed int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"summarize_call_count": gorm.Expr("summarize_call_count + 1"),
				"last_summarize_at":    time.Now().UTC(),
			}).Error
		if err != nil {
			return err
		}

		call := models.SummarizeCall{
			UserID:           userID,
			TranscriptLength: transcriptLen,
			TokensUsed:       tokensUsed,
		}
		return tx.Create(&call).Error
	})
}

// UpsertExternalToken stores a refresh credential per (user, provider).
// Conflicts are resolved silently in favor of the newest write.
func (r *userRepository) UpsertExternalToken(userID uint, provider, refreshToken string, expiresAt time.Time) error {
	token := models.UserToken{
		UserID:       userID,
		Provider:     provider,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"refresh_token", "expires_at", "updated_at"}),
	}).Create(&token).Error
}

// UpdatePassword hashes and stores a new password for the user.
func (r *userRepository) UpdatePassword(userID uint, newPassword string) error {
	hashed, err := models.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("password", hashed).Error
}

// Update persists changes on an already-loaded user row.
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// DeletePendingSignup removes the user and all dependent rows. Dependent
// tables are cleared explicitly inside the transaction so the result does
// not depend on the driver honoring foreign-key cascades.
func (r *userRepository) DeletePendingSignup(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		deletes := []interface{}{
			&models.EmailVerification{},
			&models.PasswordReset{},
			&models.UserSubscriptionHistory{},
			&models.SummarizeCall{},
			&models.UserFeedback{},
			&models.UserToken{},
			&models.UserRole{},
		}
		for _, m := range deletes {
			if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, userID).Error
	})
}

// CountVerified returns how many users have confirmed their email.
func (r *userRepository) CountVerified() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email_verified = ?", true).Count(&count).Error
	return count, err
}

// GrantRole assigns the named role. A user holds exactly one role, so
// granting a new one replaces the existing assignment.
func (r *userRepository) GrantRole(userID uint, roleName string) error {
	var role models.Role
	if err := r.db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return err
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"role_id": role.ID}),
	}).Create(&models.UserRole{UserID: userID, RoleID: role.ID}).Error
}

// RoleNames returns the role set for a user.
func (r *userRepository) RoleNames(userID uint) ([]string, error) {
	var names []string
	err := r.db.Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.name", &names).Error
	return names, err
}

// HasRole reports whether the user holds the named role.
func (r *userRepository) HasRole(userID uint, roleName string) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, roleName).
		Count(&count).Error
	return count > 0, err
}

// StoreFeedback appends a feedback row for the user.
func (r *userRepository) StoreFeedback(userID uint, feedback []byte) (*models.UserFeedback, error) {
	fb := models.UserFeedback{
		UserID:   userID,
		Feedback: feedback,
	}
	if err := r.db.Create(&fb).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}
