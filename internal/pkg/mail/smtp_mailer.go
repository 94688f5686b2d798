package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/voxnote/voxnote/internal/pkg/env"
)

// SendMail delivers a single HTML mail over SMTP. Credentials are optional
// so a local debug relay (e.g. mailpit) works without auth.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "localhost")
	port := env.GetEnv("SMTP_PORT", "1025")
	sender := env.GetEnv("SMTP_SENDER", "no-reply@voxnote.app")

	var auth smtp.Auth
	if user := env.GetEnv("SMTP_USERNAME", ""); user != "" {
		auth = smtp.PlainAuth("", user, env.GetEnv("SMTP_PASSWORD", ""), host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: VoxNote <%s>\r\n", sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := host + ":" + port
	if err := smtp.SendMail(addr, auth, sender, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send via %s: %w", addr, err)
	}
	return nil
}
