package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseOptionalFloat parses a form value. Blank input yields nil.
func ParseOptionalFloat(name, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &value, nil
}

// ParseOptionalInt parses a form value. Blank input yields nil.
func ParseOptionalInt(name, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	value, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a whole number", name)
	}
	return &value, nil
}
