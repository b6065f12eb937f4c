package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/HSouheill/movie_mania_backend/models"
)

// Claims is the payload of a session token
type Claims struct {
	UserID string `json:"userId"`
	jwt.StandardClaims
}

// TokenIssuer mints and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. The secret must not be empty.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl: %s", ttl)
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token bound to userID
func (ti *TokenIssuer) Issue(userID string) (string, error) {
	now := ti.now()
	claims := &Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ti.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issue time and expiry and returns the
// claims. Every failure is reported as models.ErrInvalidToken.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	// time claims are checked below against ti.now, not the parser's clock
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, models.ErrInvalidToken
	}

	now := ti.now().Unix()
	// a zero exp would mean "never expires"
	if claims.ExpiresAt == 0 || now > claims.ExpiresAt {
		return nil, fmt.Errorf("%w: token is expired", models.ErrInvalidToken)
	}
	if claims.IssuedAt > now {
		return nil, fmt.Errorf("%w: token used before issued", models.ErrInvalidToken)
	}
	return claims, nil
}
