package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/movie_mania_backend/controllers"
	"github.com/HSouheill/movie_mania_backend/middleware"
)

// RegisterAuthRoutes mounts the account endpoints under /api/auth.
// requireAuth is the session chain: token check then user lookup.
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController, userController *controllers.UserController, requireAuth []echo.MiddlewareFunc) {
	a := e.Group("/api/auth")

	a.POST("/register", authController.Register)
	a.POST("/login", authController.Login)
	a.POST("/forgot-password", authController.ForgotPassword)
	a.POST("/reset-password", authController.ResetPassword)

	a.GET("/user", authController.GetUser, requireAuth...)
	a.GET("/users", userController.GetUsers, requireAuth...)

	self := append(append([]echo.MiddlewareFunc{}, requireAuth...), middleware.RequireSelf("id"))
	a.PUT("/:id/update", userController.UpdateUser, self...)
	a.DELETE("/:id/delete", userController.DeleteUser, self...)
}
