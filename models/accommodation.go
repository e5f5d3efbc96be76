// File: /models/accommodation.go
package models

import (
	"time"
)

type Accommodation struct {
	ID           string    `json:"id" gorm:"primaryKey;size:191"`
	StepID       string    `json:"step_id" gorm:"not null;size:191;index"`
	Title        string    `json:"title" gorm:"not null;size:255"`
	Location     string    `json:"location" gorm:"size:255"`
	StartDate    *Date     `json:"start_date" gorm:"type:date"`
	EndDate      *Date     `json:"end_date" gorm:"type:date"`
	ExternalLink *string   `json:"external_link" gorm:"size:500"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Step Step `json:"-" gorm:"foreignKey:StepID"`
}
