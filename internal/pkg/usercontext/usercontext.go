package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voxnote/voxnote/app/models"
)

// ContextKey is the Locals key the auth middleware stores the context under.
const ContextKey = "USER_CONTEXT"

// UserContext is the per-request identity resolved by the auth middleware.
// User is nil for anonymous requests.
type UserContext struct {
	User       *models.User
	IsLoggedIn bool
}

// Get returns the user context for the request; anonymous when unset.
func Get(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(ContextKey).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// Set stores the user context on the request.
func Set(c *fiber.Ctx, ctx UserContext) {
	c.Locals(ContextKey, ctx)
}
