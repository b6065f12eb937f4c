package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/HSouheill/movie_mania_backend/middleware"
	"github.com/HSouheill/movie_mania_backend/models"
	"github.com/HSouheill/movie_mania_backend/services"
	"github.com/HSouheill/movie_mania_backend/utils"
)

const movieImageField = "imagePath"

type MovieStore interface {
	Create(ctx context.Context, movie *models.Movie) error
	FindByID(ctx context.Context, id string) (*models.Movie, error)
	List(ctx context.Context) ([]models.Movie, error)
	Update(ctx context.Context, movie *models.Movie) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ImageUploader stores poster images
type ImageUploader interface {
	Upload(ctx context.Context, ownerID string, fh *multipart.FileHeader) (*services.UploadedImage, error)
	Discard(ctx context.Context, objects []string)
}

// MovieController handles the movie catalog
type MovieController struct {
	movies MovieStore
	images ImageUploader
	logger *zap.Logger
}

func NewMovieController(movies MovieStore, images ImageUploader, logger *zap.Logger) *MovieController {
	return &MovieController{
		movies: movies,
		images: images,
		logger: logger.Named("movies"),
	}
}

// CreateMovie adds a movie owned by the caller, with an optional poster
func (mc *MovieController) CreateMovie(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	userID := middleware.GetUserIDFromToken(c)
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	req, err := bindMovieRequest(c)
	if err != nil {
		return badRequest(c, "Invalid movie data: "+err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, utils.ValidationMessage(err))
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return badRequest(c, "Title is required")
	}

	movie := &models.Movie{UserID: ownerID}
	req.Apply(movie)

	uploaded, err := mc.uploadImage(ctx, c, userID)
	if err != nil {
		return mc.uploadError(c, err)
	}
	if uploaded != nil {
		movie.ImagePath = uploaded.URL
		movie.ThumbnailPath = uploaded.ThumbnailURL
		movie.ImageObjects = uploaded.Objects
	}

	if err := mc.movies.Create(ctx, movie); err != nil {
		if uploaded != nil {
			mc.images.Discard(context.WithoutCancel(ctx), uploaded.Objects)
		}
		mc.logger.Error("failed to create movie", zap.String("userId", userID), zap.Error(err))
		return internalError(c)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Movie created successfully",
		Data:    movie,
	})
}

func (mc *MovieController) GetMovies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	movies, err := mc.movies.List(ctx)
	if err != nil {
		mc.logger.Error("failed to list movies", zap.Error(err))
		return internalError(c)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Movies retrieved successfully",
		Data:    movies,
	})
}

func (mc *MovieController) GetMovie(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	movie, err := mc.movies.FindByID(ctx, c.Param("id"))
	if err != nil {
		return mc.lookupError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Movie retrieved successfully",
		Data:    movie,
	})
}

// UpdateMovie applies the sent fields and optionally replaces the poster
func (mc *MovieController) UpdateMovie(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	userID := middleware.GetUserIDFromToken(c)
	movie, err := mc.movies.FindByID(ctx, c.Param("id"))
	if err != nil {
		return mc.lookupError(c, err)
	}
	if movie.UserID.Hex() != userID {
		return forbidden(c)
	}

	req, err := bindMovieRequest(c)
	if err != nil {
		return badRequest(c, "Invalid movie data: "+err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, utils.ValidationMessage(err))
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return badRequest(c, "Title cannot be empty")
	}
	req.Apply(movie)

	uploaded, err := mc.uploadImage(ctx, c, userID)
	if err != nil {
		return mc.uploadError(c, err)
	}
	var replaced []string
	if uploaded != nil {
		replaced = movie.ImageObjects
		movie.ImagePath = uploaded.URL
		movie.ThumbnailPath = uploaded.ThumbnailURL
		movie.ImageObjects = uploaded.Objects
	}

	if err := mc.movies.Update(ctx, movie); err != nil {
		if uploaded != nil {
			mc.images.Discard(context.WithoutCancel(ctx), uploaded.Objects)
		}
		if errors.Is(err, models.ErrMovieNotFound) {
			return movieNotFound(c)
		}
		mc.logger.Error("failed to update movie", zap.String("movieId", movie.ID.Hex()), zap.Error(err))
		return internalError(c)
	}
	if len(replaced) > 0 {
		mc.images.Discard(ctx, replaced)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Movie updated successfully",
		Data:    movie,
	})
}

func (mc *MovieController) DeleteMovie(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	movie, err := mc.movies.FindByID(ctx, c.Param("id"))
	if err != nil {
		return mc.lookupError(c, err)
	}
	if movie.UserID.Hex() != middleware.GetUserIDFromToken(c) {
		return forbidden(c)
	}

	if err := mc.movies.Delete(ctx, movie.ID); err != nil {
		if errors.Is(err, models.ErrMovieNotFound) {
			return movieNotFound(c)
		}
		mc.logger.Error("failed to delete movie", zap.String("movieId", movie.ID.Hex()), zap.Error(err))
		return internalError(c)
	}
	mc.images.Discard(ctx, movie.ImageObjects)

	return c.NoContent(http.StatusNoContent)
}

// uploadImage returns nil when the request carries no poster
func (mc *MovieController) uploadImage(ctx context.Context, c echo.Context, ownerID string) (*services.UploadedImage, error) {
	if !isFormRequest(c) {
		return nil, nil
	}
	fh, err := c.FormFile(movieImageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: invalid image upload", models.ErrValidation)
	}
	return mc.images.Upload(ctx, ownerID, fh)
}

func (mc *MovieController) uploadError(c echo.Context, err error) error {
	if errors.Is(err, models.ErrValidation) {
		return badRequest(c, strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": "))
	}
	mc.logger.Error("failed to store image", zap.Error(err))
	return internalError(c)
}

func (mc *MovieController) lookupError(c echo.Context, err error) error {
	if errors.Is(err, models.ErrMovieNotFound) {
		return movieNotFound(c)
	}
	mc.logger.Error("failed to find movie", zap.String("movieId", c.Param("id")), zap.Error(err))
	return internalError(c)
}

func isFormRequest(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEMultipartForm) || strings.HasPrefix(ct, echo.MIMEApplicationForm)
}

// bindMovieRequest reads JSON bodies with the default binder and form bodies
// field by field, so fields that were not sent stay nil.
func bindMovieRequest(c echo.Context) (models.MovieRequest, error) {
	var req models.MovieRequest
	if !isFormRequest(c) {
		if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
			return req, errors.New("invalid request body")
		}
		return req, nil
	}

	form, err := c.FormParams()
	if err != nil {
		return req, errors.New("invalid form data")
	}

	req.Title = formString(form, "title")
	req.Description = formString(form, "description")
	req.Genre = formString(form, "genre")
	req.Language = formString(form, "language")
	req.Country = formString(form, "country")

	if req.ReleaseYear, err = utils.ParseOptionalInt("releaseYear", form.Get("releaseYear")); err != nil {
		return req, err
	}
	if req.Duration, err = utils.ParseOptionalInt("duration", form.Get("duration")); err != nil {
		return req, err
	}
	if req.Rating, err = utils.ParseOptionalFloat("rating", form.Get("rating")); err != nil {
		return req, err
	}
	return req, nil
}

func formString(form url.Values, key string) *string {
	v, ok := form[key]
	if !ok || len(v) == 0 {
		return nil
	}
	s := strings.TrimSpace(v[0])
	return &s
}

func movieNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, models.Response{
		Status:  http.StatusNotFound,
		Message: "Movie not found",
	})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, models.Response{
		Status:  http.StatusForbidden,
		Message: "You can only modify your own movies",
	})
}
