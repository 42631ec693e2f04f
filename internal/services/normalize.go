package services

import "strings"

func NormalizeCartID(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeProductName trims and collapses inner whitespace.
func NormalizeProductName(s string) string {
	return withTrimCollapse(s)
}

func withTrimCollapse(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	parts := strings.Fields(s)
	return strings.Join(parts, " ")
}
