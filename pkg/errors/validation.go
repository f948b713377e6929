package errors

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ValidateColumnName validates a user-supplied column name.
// Names may contain spaces and punctuation (spreadsheet headers do), but not
// control characters, and must be shorter than 256 characters.
func ValidateColumnName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidConfig, "column name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidConfig, "column name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "column name contains invalid control characters")
		}
	}
	return nil
}

// ParseList splits a ", "-separated option string such as "ctrl, drug A, drug B".
// The literal "None" and the empty string both mean no list.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateOrder checks that an explicit group order has no duplicates.
func ValidateOrder(order []string) error {
	seen := make(map[string]bool, len(order))
	for _, g := range order {
		if seen[g] {
			return New(ErrCodeInvalidConfig, "group %q appears twice in order", g)
		}
		seen[g] = true
	}
	return nil
}

// ParseLimits parses a "lower, upper" axis range.
// It returns ok=false for "None" or an empty string.
func ParseLimits(s string) (lo, hi float64, ok bool, err error) {
	parts := ParseList(s)
	if len(parts) == 0 {
		return 0, 0, false, nil
	}
	if len(parts) != 2 {
		return 0, 0, false, New(ErrCodeInvalidConfig, "y limits must be \"lower, upper\", got %q", s)
	}
	if lo, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return 0, 0, false, Wrap(ErrCodeInvalidConfig, err, "invalid lower y limit")
	}
	if hi, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return 0, 0, false, Wrap(ErrCodeInvalidConfig, err, "invalid upper y limit")
	}
	if !(hi > lo) {
		return 0, 0, false, New(ErrCodeInvalidConfig, "upper y limit must exceed lower (%g, %g)", lo, hi)
	}
	return lo, hi, true, nil
}

// ValidateBandwidth checks a bandwidth factor override. Zero means automatic.
func ValidateBandwidth(bw float64) error {
	if math.IsNaN(bw) || math.IsInf(bw, 0) || bw < 0 {
		return New(ErrCodeInvalidConfig, "bandwidth must be a positive number, got %v", bw)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
