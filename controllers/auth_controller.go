package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/middleware"
	"github.com/HSouheill/movie_mania_backend/models"
	"github.com/HSouheill/movie_mania_backend/security"
	"github.com/HSouheill/movie_mania_backend/services"
	"github.com/HSouheill/movie_mania_backend/utils"
)

const (
	requestTimeout  = 10 * time.Second
	passwordTooLong = "Password must be at most 72 bytes"
)

// UserStore is the credential store used by the auth and user handlers
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, username, email, phone, password string) (*models.User, error)
	UpdatePassword(ctx context.Context, user *models.User, newPassword string) error
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.User, error)
}

// OTPService issues and checks password reset codes
type OTPService interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
	Invalidate(ctx context.Context, email string) error
	TTL() time.Duration
}

// TokenService mints session tokens
type TokenService interface {
	Issue(userID string) (string, error)
}

// AuthController contains authentication logic
type AuthController struct {
	users     UserStore
	otps      OTPService
	tokens    TokenService
	notifier  services.Notifier
	fromEmail string
	logger    *zap.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(users UserStore, otps OTPService, tokens TokenService, notifier services.Notifier, fromEmail string, logger *zap.Logger) *AuthController {
	return &AuthController{
		users:     users,
		otps:      otps,
		tokens:    tokens,
		notifier:  notifier,
		fromEmail: fromEmail,
		logger:    logger.Named("auth"),
	}
}

// Register creates an account, returns a session token and sends a welcome mail
func (ac *AuthController) Register(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, utils.ValidationMessage(err))
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return badRequest(c, "Invalid phone number format")
	}
	username := utils.SanitizeInput(req.Username)

	user, err := ac.users.Create(ctx, username, email, phone, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return badRequest(c, "Email already exists")
		}
		if errors.Is(err, security.ErrPasswordTooLong) {
			return badRequest(c, passwordTooLong)
		}
		ac.logger.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return internalError(c)
	}

	userID := user.ID.Hex()
	token, err := ac.tokens.Issue(userID)
	if err != nil {
		ac.logger.Error("failed to issue token", zap.String("userId", userID), zap.Error(err))
		return internalError(c)
	}

	// The account stays even when the welcome mail bounces
	greeting := user.Username
	if greeting == "" {
		greeting = user.Email
	}
	subject, body := services.WelcomeEmail(greeting)
	if err := ac.notifier.Send(ctx, subject, body, user.Email, ac.fromEmail); err != nil {
		ac.logger.Warn("welcome email not delivered", zap.String("userId", userID), zap.Error(err))
	}

	ac.logger.Info("user registered", zap.String("userId", userID))
	return c.JSON(http.StatusCreated, models.AuthResponse{
		Msg:    "User registered successfully",
		Token:  token,
		UserID: userID,
	})
}

// Login exchanges email and password for a session token
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, utils.ValidationMessage(err))
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return badRequest(c, "Invalid email format")
	}

	user, err := ac.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			ac.logger.Info("login failed: unknown email", zap.String("email", email))
			_ = security.CheckPasswordNoUser(req.Password)
			return invalidCredentials(c)
		}
		ac.logger.Error("failed to look up user", zap.String("email", email), zap.Error(err))
		return internalError(c)
	}

	if err := security.CheckPassword(req.Password, user.Password); err != nil {
		ac.logger.Info("login failed: wrong password", zap.String("userId", user.ID.Hex()))
		return invalidCredentials(c)
	}

	userID := user.ID.Hex()
	token, err := ac.tokens.Issue(userID)
	if err != nil {
		ac.logger.Error("failed to issue token", zap.String("userId", userID), zap.Error(err))
		return internalError(c)
	}

	return c.JSON(http.StatusOK, models.AuthResponse{
		Msg:    "Login successful",
		Token:  token,
		UserID: userID,
	})
}

// GetUser returns the account behind the session token
func (ac *AuthController) GetUser(c echo.Context) error {
	user := middleware.SessionUser(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"userData": user})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.Response{
		Status:  http.StatusBadRequest,
		Message: message,
	})
}

func invalidCredentials(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.Response{
		Status:  http.StatusUnauthorized,
		Message: "Invalid credentials",
	})
}

func internalError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	})
}
