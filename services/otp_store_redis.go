package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/HSouheill/movie_mania_backend/models"
)

const otpPrefix = "otp:"

// Result codes returned by consumeScript
const (
	consumeNotFound = 0
	consumeOK       = 1
	consumeMismatch = 2
	consumeExpired  = 3
)

// consumeScript does the read, compare and delete of an OTP hash in one step.
// ARGV: code, now (unix ms), max attempts (0 = unlimited).
var consumeScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'code', 'exp')
if not v[1] then
  return 0
end
if tonumber(ARGV[2]) > tonumber(v[2]) then
  redis.call('DEL', KEYS[1])
  return 3
end
if v[1] ~= ARGV[1] then
  local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
  local max = tonumber(ARGV[3])
  if max > 0 and n >= max then
    redis.call('DEL', KEYS[1])
  end
  return 2
end
redis.call('DEL', KEYS[1])
return 1
`)

// RedisOTPStore keeps OTP entries in Redis hashes so every server instance
// sees the same codes. Keys expire on their own after expiredRetention.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Put(ctx context.Context, entry models.OTPEntry) error {
	key := otpPrefix + otpKey(entry.Email)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"code", entry.Code,
			"exp", entry.ExpiresAt.UnixMilli(),
			"attempts", 0,
		)
		pipe.PExpireAt(ctx, key, entry.ExpiresAt.Add(expiredRetention))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Consume(ctx context.Context, email, code string, now time.Time, maxAttempts int) error {
	key := otpPrefix + otpKey(email)

	res, err := consumeScript.Run(ctx, s.client, []string{key}, code, now.UnixMilli(), maxAttempts).Int()
	if err != nil {
		return fmt.Errorf("failed to verify OTP: %w", err)
	}

	switch res {
	case consumeOK:
		return nil
	case consumeNotFound:
		return models.ErrOTPNotFound
	case consumeMismatch:
		return models.ErrOTPMismatch
	case consumeExpired:
		return models.ErrOTPExpired
	default:
		return fmt.Errorf("unexpected OTP script result %d", res)
	}
}

func (s *RedisOTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, otpPrefix+otpKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	return nil
}
