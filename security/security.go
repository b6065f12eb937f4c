package security

import (
	"net/http"
	"strings"
)

// ValidateContentType ensures the request has an accepted content type
func ValidateContentType(contentType string) bool {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	validTypes := map[string]bool{
		"application/json":                  true,
		"application/x-www-form-urlencoded": true,
		"multipart/form-data":               true,
	}
	return validTypes[strings.TrimSpace(strings.ToLower(contentType))]
}

// SanitizeHeaders removes sensitive headers, used before headers are logged
func SanitizeHeaders(headers http.Header) http.Header {
	clean := headers.Clone()
	sensitiveHeaders := []string{
		"Authorization",
		"Cookie",
		"Set-Cookie",
		"X-CSRF-Token",
	}

	for _, header := range sensitiveHeaders {
		clean.Del(header)
	}
	return clean
}
