package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// AttendanceRepository handles database operations for attendance_records
type AttendanceRepository struct {
	db DB
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, batch_id, participant_id, participant_type,
	   date, status, marked_by, created_at, updated_at`

// Upsert records a mark for one participant on one day. Re-marking the same
// (batch, participant, date) overwrites the earlier mark.
func (r *AttendanceRepository) Upsert(rec *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (
			id, batch_id, participant_id, participant_type, date, status, marked_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (batch_id, participant_id, date)
		DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		id, rec.BatchID, rec.ParticipantID, rec.ParticipantType,
		rec.Date, rec.Status, rec.MarkedBy,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to record attendance: %w", err)
	}
	return nil
}

// HistoryByParticipant retrieves a participant's marks, newest first.
func (r *AttendanceRepository) HistoryByParticipant(participantID uuid.UUID) ([]models.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE participant_id = $1
		ORDER BY date DESC
	`

	rows, err := r.db.Query(query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance history: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// ListByBatchDate retrieves every mark for a batch on a given day.
func (r *AttendanceRepository) ListByBatchDate(batchID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE batch_id = $1 AND date = $2
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, batchID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch attendance: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// CountPresent counts a participant's Present marks (milestones).
func (r *AttendanceRepository) CountPresent(participantID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM attendance_records WHERE participant_id = $1 AND status = $2`,
		participantID, models.AttendancePresent,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count present marks: %w", err)
	}
	return n, nil
}

func (r *AttendanceRepository) scanRecords(rows *sql.Rows) ([]models.AttendanceRecord, error) {
	records := []models.AttendanceRecord{}
	for rows.Next() {
		var rec models.AttendanceRecord
		err := rows.Scan(
			&rec.ID, &rec.BatchID, &rec.ParticipantID, &rec.ParticipantType,
			&rec.Date, &rec.Status, &rec.MarkedBy, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
