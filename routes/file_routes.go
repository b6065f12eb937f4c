package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/movie_mania_backend/models"
)

// RegisterFileRoutes serves locally stored posters under /uploads
func RegisterFileRoutes(e *echo.Echo, uploadDir string) {
	e.GET("/uploads/*", ServeFile(uploadDir))
}

// ServeFile serves files from baseDir with traversal and directory checks
func ServeFile(baseDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Param("*")
		if path == "" {
			return fileNotFound(c)
		}

		cleanPath := filepath.Clean(path)
		if cleanPath == ".." || strings.HasPrefix(cleanPath, "../") || filepath.IsAbs(cleanPath) {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied - invalid path",
			})
		}

		fullPath := filepath.Join(baseDir, cleanPath)
		info, err := os.Stat(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				return fileNotFound(c)
			}
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Error accessing file",
			})
		}

		if info.IsDir() {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied - directory listing not allowed",
			})
		}

		// object names carry a uuid, so content never changes under a URL
		c.Response().Header().Set("Cache-Control", "public, max-age=31536000")
		c.Response().Header().Set("Expires", time.Now().AddDate(1, 0, 0).Format(time.RFC1123))
		return c.File(fullPath)
	}
}

func fileNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, models.Response{
		Status:  http.StatusNotFound,
		Message: "File not found",
	})
}
