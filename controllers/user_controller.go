package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/models"
	"github.com/HSouheill/movie_mania_backend/utils"
)

// OwnedMovieRemover drops the catalog entries of a deleted account
type OwnedMovieRemover interface {
	DeleteByOwner(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// UserController manages user accounts
type UserController struct {
	users  UserStore
	movies OwnedMovieRemover
	logger *zap.Logger
}

func NewUserController(users UserStore, movies OwnedMovieRemover, logger *zap.Logger) *UserController {
	return &UserController{
		users:  users,
		movies: movies,
		logger: logger.Named("users"),
	}
}

// GetUsers lists every account
func (uc *UserController) GetUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	users, err := uc.users.List(ctx)
	if err != nil {
		uc.logger.Error("failed to list users", zap.Error(err))
		return internalError(c)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data:    users,
	})
}

// UpdateUser changes the caller's own profile
func (uc *UserController) UpdateUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, utils.ValidationMessage(err))
	}

	upd := models.ProfileUpdate{Username: utils.SanitizeInput(req.Username)}
	if req.Email != "" {
		email, err := utils.SanitizeEmail(req.Email)
		if err != nil {
			return badRequest(c, "Invalid email format")
		}
		upd.Email = email
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return badRequest(c, "Invalid phone number format")
	}
	upd.Phone = phone

	if upd == (models.ProfileUpdate{}) {
		return badRequest(c, "No fields to update")
	}

	user, err := uc.users.UpdateProfile(ctx, c.Param("id"), upd)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateEmail):
			return badRequest(c, "Email already exists")
		case errors.Is(err, models.ErrUserNotFound):
			return userNotFound(c)
		}
		uc.logger.Error("failed to update user", zap.String("userId", c.Param("id")), zap.Error(err))
		return internalError(c)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User updated successfully",
		Data:    user,
	})
}

// DeleteUser removes the caller's account and the movies it owns
func (uc *UserController) DeleteUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := c.Param("id")
	if err := uc.users.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return userNotFound(c)
		}
		uc.logger.Error("failed to delete user", zap.String("userId", id), zap.Error(err))
		return internalError(c)
	}

	if objID, err := primitive.ObjectIDFromHex(id); err == nil && uc.movies != nil {
		n, err := uc.movies.DeleteByOwner(ctx, objID)
		if err != nil {
			uc.logger.Warn("failed to remove movies of deleted user", zap.String("userId", id), zap.Error(err))
		} else if n > 0 {
			uc.logger.Info("removed movies of deleted user", zap.String("userId", id), zap.Int64("count", n))
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User deleted successfully",
	})
}

func userNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, models.Response{
		Status:  http.StatusNotFound,
		Message: "User not found",
	})
}
