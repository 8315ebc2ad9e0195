package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// BatchRepository handles database operations for the batches table
type BatchRepository struct {
	db DB
}

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(db DB) *BatchRepository {
	return &BatchRepository{db: db}
}

const batchColumns = `id, name, center_id, age_category, schedule, capacity,
	   coach_id, active, created_at, updated_at`

// Create inserts a new batch.
func (r *BatchRepository) Create(batch *models.Batch) error {
	query := `
		INSERT INTO batches (id, name, center_id, age_category, schedule, capacity, coach_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING created_at, updated_at
	`

	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	batch.Active = true

	err := r.db.QueryRow(
		query,
		batch.ID, batch.Name, batch.CenterID, batch.AgeCategory,
		batch.Schedule, batch.Capacity, batch.CoachID,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// GetByID retrieves a batch by ID.
func (r *BatchRepository) GetByID(id uuid.UUID) (*models.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`
	return r.scanBatch(r.db.QueryRow(query, id))
}

// List retrieves batches, optionally narrowed to a center and active only.
func (r *BatchRepository) List(centerID string, activeOnly bool) ([]models.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE ($1 = '' OR center_id = $1)
		  AND ($2 = false OR active = true)
		ORDER BY name
	`

	rows, err := r.db.Query(query, centerID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	batches := []models.Batch{}
	for rows.Next() {
		var b models.Batch
		err := rows.Scan(
			&b.ID, &b.Name, &b.CenterID, &b.AgeCategory, &b.Schedule, &b.Capacity,
			&b.CoachID, &b.Active, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// Update updates batch details.
func (r *BatchRepository) Update(batch *models.Batch) error {
	query := `
		UPDATE batches
		SET name = $2, age_category = $3, schedule = $4, capacity = $5,
			active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		batch.ID, batch.Name, batch.AgeCategory, batch.Schedule,
		batch.Capacity, batch.Active,
	).Scan(&batch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}
	return nil
}

// AssignCoach sets the coach responsible for the batch.
func (r *BatchRepository) AssignCoach(batchID, coachID uuid.UUID) error {
	_, err := r.db.Exec(
		`UPDATE batches SET coach_id = $2, updated_at = NOW() WHERE id = $1`,
		batchID, coachID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to assign coach: %w", err)
	}
	return nil
}

func (r *BatchRepository) scanBatch(row *sql.Row) (*models.Batch, error) {
	var b models.Batch
	err := row.Scan(
		&b.ID, &b.Name, &b.CenterID, &b.AgeCategory, &b.Schedule, &b.Capacity,
		&b.CoachID, &b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan batch: %w", err)
	}
	return &b, nil
}
