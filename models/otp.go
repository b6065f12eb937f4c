package models

import (
	"time"
)

// OTPEntry is the one-time passcode held for a password reset, keyed by email
type OTPEntry struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	Attempts  int       `json:"attempts"`
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e OTPEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
