package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/models"
)

const (
	DefaultOTPTTL         = time.Hour
	DefaultOTPMaxAttempts = 5

	otpMin = 100000
	otpMax = 999999
)

// OTPManager issues and verifies six-digit password reset codes
type OTPManager struct {
	store       OTPStore
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	generate    func() (string, error)
}

// NewOTPManager wires a manager over store. A zero ttl falls back to one hour;
// maxAttempts <= 0 disables the mismatch limit.
func NewOTPManager(store OTPStore, ttl time.Duration, maxAttempts int) *OTPManager {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPManager{
		store:       store,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
		generate:    GenerateNumericOTP,
	}
}

// TTL is how long an issued code stays valid
func (m *OTPManager) TTL() time.Duration {
	return m.ttl
}

// Issue generates a new code for email, replacing any previous one.
func (m *OTPManager) Issue(ctx context.Context, email string) (string, error) {
	code, err := m.generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	entry := models.OTPEntry{
		Email:     email,
		Code:      code,
		ExpiresAt: m.now().Add(m.ttl),
	}
	if err := m.store.Put(ctx, entry); err != nil {
		return "", err
	}
	return code, nil
}

// Verify returns nil when code matches the active entry for email and consumes it.
// Otherwise it returns models.ErrOTPNotFound, models.ErrOTPExpired or models.ErrOTPMismatch.
func (m *OTPManager) Verify(ctx context.Context, email, code string) error {
	return m.store.Consume(ctx, email, code, m.now(), m.maxAttempts)
}

// Invalidate drops any entry held for email
func (m *OTPManager) Invalidate(ctx context.Context, email string) error {
	return m.store.Delete(ctx, email)
}

// StartJanitor periodically sweeps stale entries from a memory store until ctx is done.
// Stores that expire keys on their own are left alone.
func (m *OTPManager) StartJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	mem, ok := m.store.(*MemoryOTPStore)
	if !ok {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := mem.Sweep(m.now()); n > 0 {
					logger.Debug("swept expired OTP entries", zap.Int("count", n))
				}
			}
		}
	}()
}

// GenerateNumericOTP returns a uniformly random code in [100000, 999999].
func GenerateNumericOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}
