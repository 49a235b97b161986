package utils

import "github.com/microcosm-cc/bluemonday"

var (
	textPolicy = bluemonday.StrictPolicy()
	richPolicy = bluemonday.UGCPolicy()
)

// Sanitize strips all markup from short plain-text fields such as
// profile names, activity names and goal titles.
func Sanitize(input string) string {
	return textPolicy.Sanitize(input)
}

// SanitizeRich keeps harmless formatting in longer free-text fields
// (goal descriptions) while removing anything executable.
func SanitizeRich(input string) string {
	return richPolicy.Sanitize(input)
}
