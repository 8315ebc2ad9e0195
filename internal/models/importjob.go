package models

import (
	"time"

	"github.com/google/uuid"
)

// Import job lifecycle. Preview jobs that are never committed get swept by
// the maintenance cron.
const (
	ImportPreview   = "preview"
	ImportCommitted = "committed"
	ImportExpired   = "expired"
)

// ImportJob holds a previewed CSV upload between the preview call and the
// commit call. Raw rows are stored as JSON until commit or expiry.
type ImportJob struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UploadedBy   uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	FileName     string    `json:"file_name" db:"file_name"`
	Mapping      string    `json:"-" db:"mapping"`  // JSON: csv header -> lead field
	RawRows      string    `json:"-" db:"raw_rows"` // JSON array of row arrays
	RowCount     int       `json:"row_count" db:"row_count"`
	ValidCount   int       `json:"valid_count" db:"valid_count"`
	InvalidCount int       `json:"invalid_count" db:"invalid_count"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ImportRowResult is the per-row outcome of an import preview.
type ImportRowResult struct {
	RowNumber int      `json:"row_number"`
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors,omitempty"` // names the missing/invalid fields
	Lead      *Lead    `json:"lead,omitempty"`   // the draft that would be created
}
