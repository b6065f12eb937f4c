package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/movie_mania_backend/controllers"
)

// RegisterMovieRoutes mounts the catalog. Reads are public, writes need a session.
func RegisterMovieRoutes(e *echo.Echo, movieController *controllers.MovieController, requireAuth []echo.MiddlewareFunc) {
	m := e.Group("/api/movies")

	m.GET("", movieController.GetMovies)
	m.GET("/:id", movieController.GetMovie)

	m.POST("", movieController.CreateMovie, requireAuth...)
	m.PUT("/:id", movieController.UpdateMovie, requireAuth...)
	m.DELETE("/:id", movieController.DeleteMovie, requireAuth...)
}
