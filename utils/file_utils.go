package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxImageSize caps uploaded movie images (10MB)
	MaxImageSize = 10 * 1024 * 1024
)

var (
	allowedImageExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}

	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedFileExt = errors.New("unsupported image format. Allowed formats: jpg, jpeg, png, gif")
)

// CleanFilename removes path components and any potentially dangerous characters
func CleanFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	cleaned := unsafeFilenameChars.ReplaceAllString(filename, "")
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "file"
	}
	return cleaned
}

// ValidateImageFile checks size and extension of an uploaded image
func ValidateImageFile(filename string, size int64) error {
	if size > MaxImageSize {
		return fmt.Errorf("%w: maximum size is %d bytes", ErrFileTooLarge, MaxImageSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return ErrUnsupportedFileExt
	}
	return nil
}

// SaveFile writes data under baseDir/relPath, creating directories as needed,
// and returns the URL under baseURL. relPath must not escape baseDir.
func SaveFile(baseDir, baseURL, relPath string, data []byte) (string, error) {
	clean := filepath.Clean("/" + filepath.ToSlash(relPath))
	fullPath := filepath.Join(baseDir, clean)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %v", filepath.Dir(fullPath), err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %v", fullPath, err)
	}

	return strings.TrimRight(baseURL, "/") + filepath.ToSlash(clean), nil
}

// RemoveFile deletes a file previously written by SaveFile. Missing files are ignored.
func RemoveFile(baseDir, relPath string) error {
	fullPath := filepath.Join(baseDir, filepath.Clean("/"+filepath.ToSlash(relPath)))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
