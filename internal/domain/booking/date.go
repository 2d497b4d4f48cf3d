package booking

import "strings"

// placeholderDate is what API explorers send for an unfilled string field.
const placeholderDate = "string"

// NormalizeDate renders a date in the backend's YYYYMMDD form.
// Empty input and the placeholder literal (any case) become "".
// Hyphens are stripped; anything else passes through untouched.
func NormalizeDate(date string) string {
	if date == "" || strings.EqualFold(date, placeholderDate) {
		return ""
	}
	return strings.ReplaceAll(date, "-", "")
}
