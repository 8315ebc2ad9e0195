package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// ImportRepository handles database operations for import_jobs
type ImportRepository struct {
	db DB
}

// NewImportRepository creates a new ImportRepository
func NewImportRepository(db DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create persists a previewed import job, raw rows included.
func (r *ImportRepository) Create(job *models.ImportJob) error {
	query := `
		INSERT INTO import_jobs (
			id, uploaded_by, file_name, mapping, raw_rows,
			row_count, valid_count, invalid_count, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.Status = models.ImportPreview

	err := r.db.QueryRow(
		query,
		job.ID, job.UploadedBy, job.FileName, job.Mapping, job.RawRows,
		job.RowCount, job.ValidCount, job.InvalidCount, job.Status,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// GetByID retrieves an import job by ID.
func (r *ImportRepository) GetByID(id uuid.UUID) (*models.ImportJob, error) {
	query := `
		SELECT id, uploaded_by, file_name, mapping, raw_rows,
		       row_count, valid_count, invalid_count, status, created_at
		FROM import_jobs
		WHERE id = $1
	`

	var job models.ImportJob
	err := r.db.QueryRow(query, id).Scan(
		&job.ID, &job.UploadedBy, &job.FileName, &job.Mapping, &job.RawRows,
		&job.RowCount, &job.ValidCount, &job.InvalidCount, &job.Status, &job.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}
	return &job, nil
}

// MarkCommitted flips a preview job to committed. The status guard makes the
// commit single-shot.
func (r *ImportRepository) MarkCommitted(id uuid.UUID) (bool, error) {
	res, err := r.db.Exec(
		`UPDATE import_jobs SET status = $2, raw_rows = '[]' WHERE id = $1 AND status = $3`,
		id, models.ImportCommitted, models.ImportPreview,
	)
	if err != nil {
		return false, fmt.Errorf("failed to commit import job: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ExpireOlderThan marks stale preview jobs expired and drops their raw rows.
func (r *ImportRepository) ExpireOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(
		`UPDATE import_jobs SET status = $1, raw_rows = '[]' WHERE status = $2 AND created_at < $3`,
		models.ImportExpired, models.ImportPreview, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire import jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
