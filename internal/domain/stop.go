package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stop represents a single location visited during a trip.
// DepartedAt is nil when the traveller is still at this stop.
type Stop struct {
	ID         uuid.UUID  `json:"id"`
	TripID     uuid.UUID  `json:"trip_id"`
	Name       string     `json:"name" form:"name" validate:"required,max=200"`
	Location   Location   `json:"location" form:"location"`
	ArrivedAt  time.Time  `json:"arrived_at" form:"arrived_at" label:"Arrived at" validate:"required"`
	DepartedAt *time.Time `json:"departed_at,omitempty" form:"departed_at" label:"Departed at" validate:"omitempty,gtefield=ArrivedAt"`
	Notes      string     `json:"notes,omitempty" form:"notes,sanitize" validate:"max=2000"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Identity implements Entity.
func (s *Stop) Identity() (string, bool) {
	if s.ID == uuid.Nil {
		return "", false
	}
	return s.ID.String(), true
}

// Location is where a stop happened. It is edited as a nested sub-form of the
// stop form, so its validation errors are reported under "location".
type Location struct {
	City      string   `json:"city" form:"city" validate:"required,max=120"`
	Region    string   `json:"region,omitempty" form:"region" validate:"max=120"`
	Latitude  *float64 `json:"latitude,omitempty" form:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" form:"longitude" validate:"omitempty,gte=-180,lte=180"`
}
