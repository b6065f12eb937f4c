package services

import (
	"fmt"
	"html"
	"time"
)

// WelcomeEmail renders the registration confirmation mail. Stored usernames
// are already escaped, so the name is unescaped once before escaping.
func WelcomeEmail(username string) (subject, body string) {
	name := username
	if name == "" {
		name = "there"
	}
	subject = "Welcome to Movie Mania!"
	body = fmt.Sprintf(`
		<html>
		<body>
			<p>Dear %s,</p>
			<p>Thank you for registering with Movie Mania.</p>
			<p>Enjoy using our services!</p>
		</body>
		</html>
	`, html.EscapeString(html.UnescapeString(name)))
	return subject, body
}

// PasswordResetEmail renders the mail carrying a reset code
func PasswordResetEmail(code string, ttl time.Duration) (subject, body string) {
	subject = "Password Reset OTP"
	body = fmt.Sprintf(`
		<html>
		<body>
			<h2>Reset Your Password</h2>
			<p>Your OTP for password reset is:</p>
			<h3 style="background-color: #f0f0f0; padding: 10px; font-size: 24px; letter-spacing: 5px; text-align: center;">%s</h3>
			<p>This OTP is valid for %s.</p>
			<p>If you did not request a password reset, please ignore this email.</p>
		</body>
		</html>
	`, html.EscapeString(code), humanDuration(ttl))
	return subject, body
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
