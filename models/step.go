// File: /models/step.go
package models

import (
	"time"
)

// TransportMode is how the traveller leaves a step towards the next one.
type TransportMode string

const (
	TransportCar   TransportMode = "car"
	TransportPlane TransportMode = "plane"
	TransportTrain TransportMode = "train"
	TransportBus   TransportMode = "bus"
	TransportBike  TransportMode = "bike"
	TransportWalk  TransportMode = "walk"
	TransportBoat  TransportMode = "boat"
)

// Valid reports whether the mode is one of the supported values.
func (m TransportMode) Valid() bool {
	switch m {
	case TransportCar, TransportPlane, TransportTrain, TransportBus,
		TransportBike, TransportWalk, TransportBoat:
		return true
	}
	return false
}

type Step struct {
	ID     string `json:"id" gorm:"primaryKey;size:191"`
	TripID string `json:"trip_id" gorm:"not null;size:191;index:idx_steps_trip_order"`

	// Order values of a trip's steps always form a dense 1..N sequence.
	// Renumbering happens inside a single transaction per mutation.
	Order int `json:"order" gorm:"not null;index:idx_steps_trip_order"`

	Title       string   `json:"title" gorm:"size:255"`
	Description string   `json:"description"`
	Location    string   `json:"location" gorm:"not null;size:255"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Country     *string  `json:"country" gorm:"size:100"`
	CountryCode *string  `json:"country_code" gorm:"size:2"`

	StartDate *Date `json:"start_date" gorm:"type:date"`
	// EndDate is always start_date + nights when both are known, else null.
	// It is recomputed by the itinerary engine, never hand-set.
	EndDate *Date `json:"end_date" gorm:"type:date"`
	Nights  *int  `json:"nights"`

	// Exactly one step per trip carries this flag; it cannot be deleted.
	IsDestination bool          `json:"is_destination" gorm:"default:false"`
	TransportMode TransportMode `json:"transport_mode" gorm:"size:10;default:'car'"`

	// Travel to the step's successor. DistanceToNext is kilometers and
	// DurationToNext is minutes; both null for the last step or when the
	// routing collaborator has no answer.
	DistanceToNext *float64 `json:"distance_to_next"`
	DurationToNext *int     `json:"duration_to_next"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Trip           Trip            `json:"-" gorm:"foreignKey:TripID"`
	Activities     []Activity      `json:"activities,omitempty" gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE"`
	Accommodations []Accommodation `json:"accommodations,omitempty" gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE"`
}

// HasCoordinates reports whether the step can be routed from.
func (s *Step) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}
