// middleware/auth_middleware.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/models"
)

const sessionUserContextKey = "sessionUser"

// UserFinder loads the account behind a verified token
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// LoadSessionUser must run after JWTMiddleware. It rejects tokens whose
// account no longer exists and stores the user for handlers.
func LoadSessionUser(users UserFinder, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserIDFromToken(c)
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication required",
				})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				if errors.Is(err, models.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, models.Response{
						Status:  http.StatusUnauthorized,
						Message: "User account no longer exists",
					})
				}
				logger.Error("failed to load session user", zap.String("userId", userID), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, models.Response{
					Status:  http.StatusInternalServerError,
					Message: "Internal server error",
				})
			}

			user.Password = ""
			c.Set(sessionUserContextKey, user)
			return next(c)
		}
	}
}

// SessionUser returns the user stored by LoadSessionUser
func SessionUser(c echo.Context) *models.User {
	user, _ := c.Get(sessionUserContextKey).(*models.User)
	return user
}

// RequireSelf only lets callers act on the account named by the path parameter
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetUserIDFromToken(c) != c.Param(param) {
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "You can only modify your own account",
				})
			}
			return next(c)
		}
	}
}
