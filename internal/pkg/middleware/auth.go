package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/voxnote/voxnote/app/repository"
	"github.com/voxnote/voxnote/internal/pkg/token"
	"github.com/voxnote/voxnote/internal/pkg/usercontext"
)

// AccessTokenCookie is the session cookie name.
const AccessTokenCookie = "access_token"

var tokenService *token.Service

// Setup wires the token service used by the auth middleware.
func Setup(ts *token.Service) {
	tokenService = ts
}

// TokenService returns the wired token service.
func TokenService() *token.Service {
	if tokenService == nil {
		panic("auth middleware not initialized. Call middleware.Setup first.")
	}
	return tokenService
}

// ExtractToken pulls the session token from the cookie, the Authorization
// header or (for WebSocket upgrades) the token query parameter.
func ExtractToken(c *fiber.Ctx) string {
	if tok := c.Cookies(AccessTokenCookie); tok != "" {
		return tok
	}
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}

// UserContextMiddleware resolves the request identity for every request.
// Invalid or missing tokens leave the request anonymous; route-level guards
// decide whether anonymous is acceptable.
func UserContextMiddleware(c *fiber.Ctx) error {
	tok := ExtractToken(c)
	if tok == "" {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	claims, err := TokenService().Validate(tok)
	if err != nil {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByEmail(claims.Email)
	if err != nil {
		log.Printf("user lookup failed for token subject: %v", err)
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}
	if user == nil {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	usercontext.Set(c, usercontext.UserContext{User: user, IsLoggedIn: true})
	return c.Next()
}

// RequireAuth rejects anonymous requests with a JSON 401.
func RequireAuth(c *fiber.Ctx) error {
	ctx := usercontext.Get(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}
