package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance statuses.
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceExcused = "Excused"
	AttendanceLate    = "Late"
)

// IsValidAttendanceStatus reports whether s is a recognized mark.
func IsValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused, AttendanceLate:
		return true
	}
	return false
}

// Participant types eligible for a batch session.
const (
	ParticipantTrial   = "trial"
	ParticipantStudent = "student"
)

// AttendanceRecord is one mark for one participant in one batch on one day.
// Re-marking the same day overwrites the previous mark; history is otherwise
// immutable.
type AttendanceRecord struct {
	ID              uuid.UUID `json:"id" db:"id"`
	BatchID         uuid.UUID `json:"batch_id" db:"batch_id"`
	ParticipantID   uuid.UUID `json:"participant_id" db:"participant_id"`
	ParticipantType string    `json:"participant_type" db:"participant_type"`
	Date            time.Time `json:"date" db:"date"`
	Status          string    `json:"status" db:"status"`
	MarkedBy        uuid.UUID `json:"marked_by" db:"marked_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Participant is one row of a batch's eligible roster: either a trial lead
// pointed at the batch or an enrolled student assigned to it.
type Participant struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"` // trial | student
	AgeCategory NullString `json:"age_category,omitempty"`
	// Streak is the count of consecutive Present marks ending at the most
	// recent session. Display-only.
	Streak     int      `json:"streak"`
	LastSeenAt NullTime `json:"last_seen_at,omitempty"`
}
