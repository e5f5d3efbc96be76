// File: /utils/validators_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("user@example.com"))
	assert.True(t, IsValidEmail("first.last+tag@sub.example.co"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("user@"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidCoordinates(t *testing.T) {
	assert.True(t, IsValidLatitude(48.8566))
	assert.True(t, IsValidLatitude(-90))
	assert.False(t, IsValidLatitude(90.1))

	assert.True(t, IsValidLongitude(-180))
	assert.True(t, IsValidLongitude(2.3522))
	assert.False(t, IsValidLongitude(181))
}

func TestIsValidNights(t *testing.T) {
	assert.True(t, IsValidNights(nil))

	zero := 0
	assert.True(t, IsValidNights(&zero))

	negative := -1
	assert.False(t, IsValidNights(&negative))
}
