// File: /models/activity.go
package models

import (
	"time"
)

type Activity struct {
	ID           string     `json:"id" gorm:"primaryKey;size:191"`
	StepID       string     `json:"step_id" gorm:"not null;size:191;index"`
	Title        string     `json:"title" gorm:"not null;size:255"`
	Description  string     `json:"description"`
	Location     string     `json:"location" gorm:"size:255"`
	StartAt      *time.Time `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	ExternalLink *string    `json:"external_link" gorm:"size:500"`
	Cost         *float64   `json:"cost"`
	Currency     string     `json:"currency" gorm:"size:3;default:'EUR'"`
	Category     string     `json:"category" gorm:"size:50"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Step Step `json:"-" gorm:"foreignKey:StepID"`
}
