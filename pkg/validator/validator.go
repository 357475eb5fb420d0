package validator

import "strings"

const (
	maxCaptionLen  = 500
	maxTitleLen    = 120
	maxActivityLen = 80
)

// ValidationError represents a request validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var msgs []string
	for _, e := range v {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any errors
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Add adds a validation error
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// ValidateCoordinates checks a WGS84 lat/lng pair.
func ValidateCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidateCaption bounds story captions and free text.
func ValidateCaption(caption string) bool {
	return len(caption) <= maxCaptionLen
}

// ValidateTitle checks event/achievement titles.
func ValidateTitle(title string) bool {
	title = strings.TrimSpace(title)
	return title != "" && len(title) <= maxTitleLen
}

// ValidateActivity checks playdate activity labels.
func ValidateActivity(activity string) bool {
	activity = strings.TrimSpace(activity)
	return activity != "" && len(activity) <= maxActivityLen
}

// SanitizeString trims whitespace and limits length
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
