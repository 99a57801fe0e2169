package util

import (
	"strconv"
	"strings"
)

// ParseOptionalFloat reads a numeric form input. Blank or non-numeric
// input yields nil.
func ParseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// FloatOr returns the parsed input, or def when it is blank, non-numeric
// or zero.
func FloatOr(s string, def float64) float64 {
	if f := ParseOptionalFloat(s); f != nil && *f != 0 {
		return *f
	}
	return def
}

// FormatOptionalFloat is the inverse of ParseOptionalFloat.
func FormatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
