package models

import (
	"time"

	"github.com/google/uuid"
)

// Center is a physical academy location.
type Center struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	City      string    `json:"city" db:"city"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Batch is a scheduled recurring training session group with a capacity.
// Capacity is enforced when students are assigned, not when trial leads
// are pointed at the batch.
type Batch struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	CenterID    string     `json:"center_id" db:"center_id"`
	AgeCategory string     `json:"age_category" db:"age_category"`
	Schedule    string     `json:"schedule" db:"schedule"` // e.g. "Tue/Thu 17:00-18:30"
	Capacity    int        `json:"capacity" db:"capacity"`
	CoachID     NullString `json:"coach_id,omitempty" db:"coach_id"`
	Active      bool       `json:"active" db:"active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
