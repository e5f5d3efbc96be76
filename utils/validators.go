// File: /utils/validators.go
package utils

import (
	"regexp"
)

func IsValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func IsValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// IsValidNights rejects negative night counts before they reach the
// itinerary engine. A nil value ("duration unknown") is valid.
func IsValidNights(nights *int) bool {
	return nights == nil || *nights >= 0
}
