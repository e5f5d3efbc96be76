// File: /models/user.go
package models

import (
	"time"
)

const (
	FreeTripLimit    = 3
	PremiumTripLimit = 25
)

type User struct {
	ID            string    `json:"id" gorm:"primaryKey;size:191"`
	Name          string    `json:"name" gorm:"not null;size:255"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password      string    `json:"-" gorm:"not null;size:255"`
	EmailVerified bool      `json:"email_verified" gorm:"default:false"`
	IsPremium     bool      `json:"is_premium" gorm:"default:false"`
	Avatar        *string   `json:"avatar" gorm:"size:500"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Trips []Trip `json:"trips,omitempty" gorm:"foreignKey:UserID"`
}

// TripLimit returns how many trips the user may own.
// Billing is handled elsewhere; only the resulting quota matters here.
func (u *User) TripLimit() int {
	if u.IsPremium {
		return PremiumTripLimit
	}
	return FreeTripLimit
}
