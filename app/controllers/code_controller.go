package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/voxnote/voxnote/app/repository"
	"github.com/voxnote/voxnote/internal/pkg/codes"
	"github.com/voxnote/voxnote/internal/pkg/mail"
)

type emailRequest struct {
	Email string `json:"email"`
}

type pinRequest struct {
	Email string `json:"email"`
	Pin   string `json:"pin"`
}

type resetConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// HandleResendCode issues a fresh verification code, invalidating any
// previous one for the address.
func HandleResendCode(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		log.Printf("Resend lookup failed for %s: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "lookup failed"})
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}
	if user.EmailVerified {
		return c.JSON(fiber.Map{"detail": "Already verified"})
	}

	ttl := codes.DefaultTTL(codes.PurposeVerify)
	code, err := codeIssuer.Issue(user.Email, user.ID, codes.PurposeVerify, ttl)
	if err != nil {
		log.Printf("Failed to issue verification code for %s: %v", user.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue verification code"})
	}
	mail.SendVerificationEmail(user.Email, code, ttl)

	return c.JSON(fiber.Map{"detail": "Verification code resent"})
}

// HandleCheckPin redeems a verification PIN. All failure causes collapse
// into one generic answer so the endpoint cannot be used as an oracle.
func HandleCheckPin(c *fiber.Ctx) error {
	var req pinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	if !redeemVerification(req.Email, req.Pin) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_code", "message": "Invalid or expired code"})
	}

	return c.JSON(fiber.Map{"detail": "verified"})
}

// HandleVerifyLink is the deep-link target from the verification mail.
// Responds with a small HTML page instead of JSON.
func HandleVerifyLink(c *fiber.Ctx) error {
	email := c.Query("email")
	pin := c.Query("pin")

	if !redeemVerification(email, pin) {
		return c.Render("verify", fiber.Map{
			"Heading": "Verification failed",
			"Message": "The link is invalid or has expired. Request a new code from the app.",
		})
	}
	return c.Render("verify", fiber.Map{
		"Heading": "Email verified",
		"Message": "Your account is active. You can close this tab.",
	})
}

// redeemVerification consumes a verification code and fires the admin alert
// on success. Alert failures are logged, never surfaced.
func redeemVerification(email, pin string) bool {
	if email == "" || pin == "" {
		return false
	}

	_, ok, err := codeIssuer.Redeem(email, pin, codes.PurposeVerify)
	if err != nil {
		log.Printf("Verification redeem failed for %s: %v", email, err)
		return false
	}
	if !ok {
		return false
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(email)
	if err != nil || user == nil {
		log.Printf("Verified user lookup failed for %s: %v", email, err)
		return true
	}
	total, err := repo.CountVerified()
	if err != nil {
		log.Printf("Verified count failed: %v", err)
		return true
	}
	mail.SendUserVerifiedAlert(user.Email, user.FullName, total)

	return true
}

// HandleCancelSignup deletes an unverified user and everything created at
// signup, freeing the email for a fresh registration.
func HandleCancelSignup(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		log.Printf("Cancel lookup failed for %s: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "lookup failed"})
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}
	if user.EmailVerified {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Account is already verified"})
	}

	if err := repo.DeletePendingSignup(user.ID); err != nil {
		log.Printf("Failed to cancel signup for %s: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to cancel signup"})
	}

	return c.JSON(fiber.Map{"detail": "Signup canceled; you may sign up again"})
}

// HandlePasswordResetRequest issues a reset code. The response is identical
// whether or not the email is registered.
func HandlePasswordResetRequest(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		log.Printf("Reset lookup failed for %s: %v", req.Email, err)
	}
	if user != nil {
		ttl := codes.DefaultTTL(codes.PurposeReset)
		code, err := codeIssuer.Issue(user.Email, user.ID, codes.PurposeReset, ttl)
		if err != nil {
			log.Printf("Failed to issue reset code for %s: %v", user.Email, err)
		} else {
			mail.SendPasswordResetEmail(user.Email, code, ttl)
		}
	}

	// Always succeed: no user-existence leak.
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"detail": "If that email exists, a code has been sent."})
}

// HandlePasswordResetVerify redeems a reset code and updates the password.
func HandlePasswordResetVerify(c *fiber.Ctx) error {
	var req resetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	userID, ok, err := codeIssuer.Redeem(req.Email, req.Code, codes.PurposeReset)
	if err != nil {
		log.Printf("Reset redeem failed for %s: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "reset failed"})
	}
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_code", "message": "Invalid or expired code"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.UpdatePassword(userID, req.NewPassword); err != nil {
		log.Printf("Password update failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "reset failed"})
	}

	return c.JSON(fiber.Map{"detail": "Password has been reset."})
}
