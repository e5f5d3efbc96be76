// File: /models/trip.go
package models

import (
	"time"
)

type Trip struct {
	ID          string   `json:"id" gorm:"primaryKey;size:191"`
	UserID      string   `json:"user_id" gorm:"not null;size:191;index"`
	Title       string   `json:"title" gorm:"not null;size:255"`
	Description string   `json:"description"`
	Image       *string  `json:"image" gorm:"size:500"`
	IsPublic    bool     `json:"is_public" gorm:"default:false"`
	Budget      *float64 `json:"budget"`
	Currency    string   `json:"currency" gorm:"size:3;default:'EUR'"`

	// StartDate and EndDate are derived from the steps (min start / max end).
	// They are recomputed after every step mutation and never edited directly.
	StartDate *Date `json:"start_date" gorm:"type:date"`
	EndDate   *Date `json:"end_date" gorm:"type:date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User  User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Steps []Step `json:"steps,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
}

// TotalNights is the trip length in nights, nil while the trip is undated.
func (t *Trip) TotalNights() *int {
	if t.StartDate == nil || t.EndDate == nil {
		return nil
	}
	n := t.StartDate.DaysUntil(*t.EndDate)
	return &n
}

// DaysCount is TotalNights+1, nil while the trip is undated.
func (t *Trip) DaysCount() *int {
	nights := t.TotalNights()
	if nights == nil {
		return nil
	}
	d := *nights + 1
	return &d
}

// ScheduleDay is one entry of the derived day-by-day itinerary.
type ScheduleDay struct {
	Date     Date    `json:"date"`
	StepID   *string `json:"step_id"`
	Location *string `json:"location"`
}
