package mail

import (
	"fmt"
	"log"
	"time"

	"github.com/voxnote/voxnote/internal/pkg/env"
)

// Message builders for the transactional mails VoxNote sends. Every send on
// a request path goes through SendAsync: delivery failures are logged and
// must never fail the action that triggered the mail.

// SendAsync delivers the mail in the background.
func SendAsync(to string, subject string, body string) {
	go func() {
		if err := SendMail(to, subject, body); err != nil {
			log.Printf("Background mail to %s failed: %v", to, err)
		}
	}()
}

// SendVerificationEmail mails a 6-digit verification PIN with a deep link.
func SendVerificationEmail(recipient string, code string, ttl time.Duration) {
	baseURL := env.GetEnv("PUBLIC_BASE_URL", "http://localhost:4000")
	link := fmt.Sprintf("%s/verify?pin=%s&email=%s", baseURL, code, recipient)
	expires := time.Now().Add(ttl).Format("January 2 2006")

	body := fmt.Sprintf(`<!doctype html><html><body>
<div style="border:1px solid #ccc;padding:20px;border-radius:6px;max-width:500px;margin:auto;font-family:Helvetica,Arial,sans-serif">
  <h1 style="text-align:center;margin:0 0 18px">Verify your email</h1>
  <p style="text-align:center">Use this 6-digit code:</p>
  <div style="font-size:32px;text-align:center;margin:18px 0">%s</div>
  <p style="text-align:center"><a href="%s" style="display:inline-block;background:#1a73e8;color:#fff;text-decoration:none;padding:12px 24px;border-radius:4px">Verify now</a></p>
  <p style="text-align:center;font-size:13px;color:#d40000">Expires %s. After that you'll need a new code.</p>
</div></body></html>`, code, link, expires)

	SendAsync(recipient, "Verify your VoxNote email", body)
}

// SendPasswordResetEmail mails a reset PIN.
func SendPasswordResetEmail(recipient string, code string, ttl time.Duration) {
	expires := time.Now().Add(ttl).Format("15:04 MST")

	body := fmt.Sprintf(`<!doctype html><html><body>
<div style="border:1px solid #ccc;padding:20px;border-radius:6px;max-width:500px;margin:auto;font-family:Helvetica,Arial,sans-serif">
  <h1 style="text-align:center;margin:0 0 18px">Password reset</h1>
  <p style="text-align:center">Use this code to reset your password:</p>
  <div style="font-size:32px;text-align:center;margin:18px 0">%s</div>
  <p style="text-align:center;font-size:13px;color:#d40000">Expires at %s. If you did not request this, ignore this mail.</p>
</div></body></html>`, code, expires)

	SendAsync(recipient, "Reset your VoxNote password", body)
}

// SendFeedbackAlert forwards user feedback to the moderators.
func SendFeedbackAlert(feedback string, userEmail string) {
	admin := env.GetEnv("ADMIN_EMAIL", "")
	if admin == "" {
		log.Printf("ADMIN_EMAIL not set, dropping feedback alert from %s", userEmail)
		return
	}
	body := fmt.Sprintf("<p><strong>From</strong>: %s</p><pre>%s</pre>", userEmail, feedback)
	SendAsync(admin, fmt.Sprintf("New VoxNote feedback from %s", userEmail), body)
}

// SendUserVerifiedAlert notifies the admin that a signup completed.
func SendUserVerifiedAlert(userEmail string, fullName string, totalVerified int64) {
	admin := env.GetEnv("ADMIN_EMAIL", "")
	if admin == "" {
		return
	}
	body := fmt.Sprintf("<p>%s (%s) just verified their email.</p><p>Verified users total: %d</p>",
		userEmail, fullName, totalVerified)
	SendAsync(admin, "VoxNote signup verified", body)
}
