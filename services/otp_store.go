package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/HSouheill/movie_mania_backend/models"
)

// expiredRetention is how long an expired entry is kept so that a late
// verification reports ErrOTPExpired rather than ErrOTPNotFound.
const expiredRetention = 24 * time.Hour

// OTPStore holds at most one OTP entry per email.
//
// Consume must be atomic per email: it is the only place an entry is
// compared and removed, so two concurrent correct codes cannot both succeed.
type OTPStore interface {
	Put(ctx context.Context, entry models.OTPEntry) error
	Consume(ctx context.Context, email, code string, now time.Time, maxAttempts int) error
	Delete(ctx context.Context, email string) error
}

func otpKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryOTPStore is a process-local OTPStore. Entries do not survive a restart
// and are not shared between instances; use RedisOTPStore for that.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]models.OTPEntry
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]models.OTPEntry)}
}

func (s *MemoryOTPStore) Put(_ context.Context, entry models.OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Attempts = 0
	s.entries[otpKey(entry.Email)] = entry
	return nil
}

func (s *MemoryOTPStore) Consume(_ context.Context, email, code string, now time.Time, maxAttempts int) error {
	key := otpKey(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return models.ErrOTPNotFound
	}
	if entry.Expired(now) {
		delete(s.entries, key)
		return models.ErrOTPExpired
	}
	if entry.Code != code {
		entry.Attempts++
		if maxAttempts > 0 && entry.Attempts >= maxAttempts {
			delete(s.entries, key)
		} else {
			s.entries[key] = entry
		}
		return models.ErrOTPMismatch
	}

	delete(s.entries, key)
	return nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, otpKey(email))
	return nil
}

// Sweep drops entries that expired more than expiredRetention ago and
// returns how many were removed.
func (s *MemoryOTPStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.ExpiresAt.Add(expiredRetention)) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len is the number of entries currently held
func (s *MemoryOTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
