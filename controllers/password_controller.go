package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/models"
	"github.com/HSouheill/movie_mania_backend/security"
	"github.com/HSouheill/movie_mania_backend/services"
	"github.com/HSouheill/movie_mania_backend/utils"
)

// ForgotPassword mails a one-time code to a registered email
func (ac *AuthController) ForgotPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.ForgotPasswordRequest
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

	if _, err := ac.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User with this email does not exist.",
			})
		}
		ac.logger.Error("failed to look up user", zap.String("email", email), zap.Error(err))
		return internalError(c)
	}

	code, err := ac.otps.Issue(ctx, email)
	if err != nil {
		ac.logger.Error("failed to issue otp", zap.String("email", email), zap.Error(err))
		return internalError(c)
	}

	subject, body := services.PasswordResetEmail(code, ac.otps.TTL())
	if err := ac.notifier.Send(ctx, subject, body, email, ac.fromEmail); err != nil {
		// a code the user never received must not stay valid
		if ierr := ac.otps.Invalidate(context.WithoutCancel(ctx), email); ierr != nil {
			ac.logger.Error("failed to invalidate undelivered otp", zap.String("email", email), zap.Error(ierr))
		}
		ac.logger.Error("failed to send otp email", zap.String("email", email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send OTP email",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "OTP sent to your email.",
	})
}

// ResetPassword checks the one-time code and stores the new password
func (ac *AuthController) ResetPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.ResetPasswordRequest
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

	// checked before Verify consumes the code
	if len(req.NewPassword) > security.MaxPasswordBytes {
		return badRequest(c, passwordTooLong)
	}

	if err := ac.otps.Verify(ctx, email, req.OTP); err != nil {
		switch {
		case errors.Is(err, models.ErrOTPNotFound):
			return badRequest(c, "OTP not found or expired.")
		case errors.Is(err, models.ErrOTPMismatch):
			return badRequest(c, "Invalid OTP.")
		case errors.Is(err, models.ErrOTPExpired):
			return badRequest(c, "OTP has expired.")
		}
		ac.logger.Error("failed to verify otp", zap.String("email", email), zap.Error(err))
		return internalError(c)
	}

	user, err := ac.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		ac.logger.Error("failed to look up user", zap.String("email", email), zap.Error(err))
		return internalError(c)
	}

	if err := ac.users.UpdatePassword(ctx, user, req.NewPassword); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		if errors.Is(err, security.ErrPasswordTooLong) {
			return badRequest(c, passwordTooLong)
		}
		ac.logger.Error("failed to update password", zap.String("userId", user.ID.Hex()), zap.Error(err))
		return internalError(c)
	}

	ac.logger.Info("password reset", zap.String("userId", user.ID.Hex()))
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password has been reset successfully.",
	})
}
