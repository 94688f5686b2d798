package quota

import (
	"errors"
	"fmt"

	"github.com/voxnote/voxnote/app/models"
	"github.com/voxnote/voxnote/app/repository"
)

// ErrQuotaExceeded is returned when a user's plan allowance is exhausted.
// It is an entitlement problem, distinct from authentication failures: the
// remedy is waiting for the period to roll over or upgrading the plan.
var ErrQuotaExceeded = errors.New("quota exceeded")

// Accountant decides whether a metered operation may proceed. It performs the
// admission check only; recording happens after the metered work succeeds so
// a failed downstream call never consumes quota.
type Accountant struct {
	users repository.UserRepository
	plans repository.PlanRepository
}

func NewAccountant(users repository.UserRepository, plans repository.PlanRepository) *Accountant {
	return &Accountant{users: users, plans: plans}
}

// Check resolves the user's entitlement. Administrators are unlimited and get
// a nil plan. Unknown plan names fall back to the free tier rather than
// erroring, so a half-migrated row degrades instead of breaking.
func (a *Accountant) Check(user *models.User) (*models.SubscriptionPlan, error) {
	admin, err := a.users.HasRole(user.ID, models.ROLE_ADMIN)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}
	if admin {
		return nil, nil
	}

	plan, err := a.resolvePlan(user.Plan)
	if err != nil {
		return nil, err
	}

	if user.SummarizeCallCount >= plan.Quota {
		return nil, ErrQuotaExceeded
	}

	return plan, nil
}

// Remaining returns the allowance left for the user and the resolved plan,
// or unlimited=true (with a nil plan) for administrators. The value may go
// negative when a plan's quota was lowered after calls were made; there is
// no artificial floor.
func (a *Accountant) Remaining(user *models.User) (remaining int, plan *models.SubscriptionPlan, unlimited bool, err error) {
	admin, err := a.users.HasRole(user.ID, models.ROLE_ADMIN)
	if err != nil {
		return 0, nil, false, fmt.Errorf("failed to resolve roles: %w", err)
	}
	if admin {
		return 0, nil, true, nil
	}

	plan, err = a.resolvePlan(user.Plan)
	if err != nil {
		return 0, nil, false, err
	}

	return plan.Quota - user.SummarizeCallCount, plan, false, nil
}

func (a *Accountant) resolvePlan(name string) (*models.SubscriptionPlan, error) {
	plan, err := a.plans.GetByName(name)
	if err == nil {
		return plan, nil
	}

	plan, err = a.plans.GetByName(models.PLAN_FREE)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fallback plan: %w", err)
	}
	return plan, nil
}
