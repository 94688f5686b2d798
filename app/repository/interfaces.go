package repository

import (
	"time"

	"github.com/voxnote/voxnote/app/models"
)

// UserRepository is the credential store: durable, transactional storage for
// users and everything they own.
type UserRepository interface {
	// GetByEmail returns (nil, nil) when no user exists for the address.
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)

	// Create inserts the user together with the default free-plan history row
	// and the default role assignment in one transaction. A user is never
	// observable without a plan and a role.
	Create(email, password, fullName string) (*models.User, error)

	// RecordSummarizeCall bumps the user's counter with a relative update and
	// appends the usage log row in the same transaction.
	RecordSummarizeCall(userID uint, transcriptLen, tokensUsed int) error

	// UpsertExternalToken is idempotent on (user, provider); last write wins.
	UpsertExternalToken(userID uint, provider, refreshToken string, expiresAt time.Time) error

	UpdatePassword(userID uint, newPassword string) error
	Update(user *models.User) error

	// DeletePendingSignup removes an unverified user and every dependent row.
	DeletePendingSignup(userID uint) error

	CountVerified() (int64, error)

	GrantRole(userID uint, roleName string) error
	RoleNames(userID uint) ([]string, error)
	HasRole(userID uint, roleName string) (bool, error)

	StoreFeedback(userID uint, feedback []byte) (*models.UserFeedback, error)
}

// PlanRepository reads the immutable subscription tier set.
type PlanRepository interface {
	GetByName(name string) (*models.SubscriptionPlan, error)
	List() ([]models.SubscriptionPlan, error)
}
