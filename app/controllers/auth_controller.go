package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voxnote/voxnote/app/repository"
	"github.com/voxnote/voxnote/internal/pkg/codes"
	"github.com/voxnote/voxnote/internal/pkg/mail"
	"github.com/voxnote/voxnote/internal/pkg/middleware"
	"github.com/voxnote/voxnote/internal/pkg/usercontext"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// HandleRegister creates an unverified user and mails a verification PIN.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	log.Printf("Registration attempt for %s", req.Email)

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.Create(req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "This email is already in use."})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	ttl := codes.DefaultTTL(codes.PurposeVerify)
	code, err := codeIssuer.Issue(user.Email, user.ID, codes.PurposeVerify, ttl)
	if err != nil {
		log.Printf("Failed to issue verification code for %s: %v", user.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue verification code"})
	}
	mail.SendVerificationEmail(user.Email, code, ttl)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"email":             user.Email,
		"created_at":        user.CreatedAt,
		"verification_sent": true,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks credentials and sets the session token cookie. A valid
// password on an unverified account is a distinct failure: the remedy is
// confirming the email, not retyping the password.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		log.Printf("Login lookup failed for %s: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "login failed"})
	}
	if user == nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
	}
	if !user.EmailVerified {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unverified", "message": "Please verify your email first"})
	}

	ts := middleware.TokenService()
	tok, err := ts.Generate(user.Email)
	if err != nil {
		log.Printf("Failed to issue session token for %s: %v", user.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "login failed"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Printf("Failed to record last login for %s: %v", user.Email, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tok,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   int(ts.GetExpiration().Seconds()),
		Path:     "/",
	})

	return c.JSON(fiber.Map{"email": user.Email})
}

// HandleLogout clears the session cookie.
func HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		HTTPOnly: true,
		MaxAge:   -1,
		Path:     "/",
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// HandleMe returns the authenticated user's profile.
func HandleMe(c *fiber.Ctx) error {
	ctx := usercontext.Get(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	return c.JSON(fiber.Map{
		"email":     ctx.User.Email,
		"full_name": ctx.User.FullName,
	})
}

// HandleQuota reports the remaining allowance and plan for the user.
// Administrators get the unlimited sentinel instead of a number.
func HandleQuota(c *fiber.Ctx) error {
	ctx := usercontext.Get(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	remaining, plan, unlimited, err := accountant.Remaining(ctx.User)
	if err != nil {
		log.Printf("Quota lookup failed for %s: %v", ctx.User.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "failed to resolve quota"})
	}
	if unlimited {
		return c.JSON(fiber.Map{
			"remaining": "unlimited",
			"plan":      fiber.Map{"name": "admin", "quota": "unlimited"},
		})
	}

	return c.JSON(fiber.Map{
		"remaining": remaining,
		"plan":      plan,
	})
}
