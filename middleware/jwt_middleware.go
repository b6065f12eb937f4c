// middleware/jwt_middleware.go
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/security"
)

const (
	claimsContextKey = "user"
	userIDContextKey = "userId"
)

// JWTMiddleware returns a configured JWT middleware. Tokens are checked by the
// issuer so signature, algorithm and expiry rules live in one place.
func JWTMiddleware(issuer *security.TokenIssuer, logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(auth string, c echo.Context) (interface{}, error) {
			return issuer.Verify(auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims := c.Get(claimsContextKey).(*security.Claims)
			c.Set(userIDContextKey, claims.UserID)
		},
		ErrorHandler: func(err error) error {
			logger.Debug("jwt rejected", zap.Error(err))
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Invalid or expired token")
		},
	})
}

// GetUserFromToken returns the verified claims, or nil on unauthenticated routes
func GetUserFromToken(c echo.Context) *security.Claims {
	claims, ok := c.Get(claimsContextKey).(*security.Claims)
	if !ok {
		return nil
	}
	return claims
}

func GetUserIDFromToken(c echo.Context) string {
	if userID, ok := c.Get(userIDContextKey).(string); ok && userID != "" {
		return userID
	}

	claims := GetUserFromToken(c)
	if claims != nil {
		return claims.UserID
	}
	return ""
}
