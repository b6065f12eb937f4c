package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/movie_mania_backend/controllers"
)

// Pinger reports whether a backing service is reachable
type Pinger func(ctx context.Context) error

// Handlers bundles everything SetupRoutes mounts
type Handlers struct {
	Auth        *controllers.AuthController
	Users       *controllers.UserController
	Movies      *controllers.MovieController
	RequireAuth []echo.MiddlewareFunc
	// UploadDir is served at /uploads when posters are stored on local disk
	UploadDir string
	// Checks are reported by /health, keyed by service name
	Checks map[string]Pinger
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, h Handlers) {
	RegisterHealthRoutes(e, h.Checks)
	RegisterAuthRoutes(e, h.Auth, h.Users, h.RequireAuth)
	RegisterMovieRoutes(e, h.Movies, h.RequireAuth)
	if h.UploadDir != "" {
		RegisterFileRoutes(e, h.UploadDir)
	}
}

func RegisterHealthRoutes(e *echo.Echo, checks map[string]Pinger) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "Movie Mania backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		status := map[string]string{"status": "healthy"}
		code := http.StatusOK
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				status[name] = "unreachable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "connected"
		}
		return c.JSON(code, status)
	})
}
