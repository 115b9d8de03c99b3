package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip represents a single RV trip from start to finish.
// A trip is the top-level aggregate; stops belong to a trip.
//
// The form and validate tags describe how the admin form binds and checks it.
type Trip struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name" form:"name" validate:"required,max=200"`
	StartDate time.Time  `json:"start_date" form:"start_date,date" label:"Start date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty" form:"end_date,date" label:"End date" validate:"omitempty,gtefield=StartDate"` // nil when trip is still in progress
	Notes     string     `json:"notes,omitempty" form:"notes,sanitize" validate:"max=2000"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Identity implements Entity. A zero ID means the trip has not been stored yet.
func (t *Trip) Identity() (string, bool) {
	if t.ID == uuid.Nil {
		return "", false
	}
	return t.ID.String(), true
}
