package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// CenterRepository handles database operations for the centers table
type CenterRepository struct {
	db DB
}

// NewCenterRepository creates a new CenterRepository
func NewCenterRepository(db DB) *CenterRepository {
	return &CenterRepository{db: db}
}

// Create inserts a new center.
func (r *CenterRepository) Create(center *models.Center) error {
	query := `
		INSERT INTO centers (id, name, city, active)
		VALUES ($1, $2, $3, true)
		RETURNING created_at, updated_at
	`

	if center.ID == uuid.Nil {
		center.ID = uuid.New()
	}
	center.Active = true

	err := r.db.QueryRow(query, center.ID, center.Name, center.City).
		Scan(&center.CreatedAt, &center.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create center: %w", err)
	}
	return nil
}

// GetByID retrieves a center by ID.
func (r *CenterRepository) GetByID(id uuid.UUID) (*models.Center, error) {
	query := `SELECT id, name, city, active, created_at, updated_at FROM centers WHERE id = $1`

	var c models.Center
	err := r.db.QueryRow(query, id).Scan(
		&c.ID, &c.Name, &c.City, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan center: %w", err)
	}
	return &c, nil
}

// List retrieves all active centers.
func (r *CenterRepository) List() ([]models.Center, error) {
	query := `SELECT id, name, city, active, created_at, updated_at FROM centers WHERE active = true ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list centers: %w", err)
	}
	defer rows.Close()

	centers := []models.Center{}
	for rows.Next() {
		var c models.Center
		if err := rows.Scan(&c.ID, &c.Name, &c.City, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan center row: %w", err)
		}
		centers = append(centers, c)
	}
	return centers, rows.Err()
}
