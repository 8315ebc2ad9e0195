package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// UserRepository handles database operations for the users table
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, center_ids,
	   active, last_login_at, created_at, updated_at`

// CreateUser inserts a new CRM user.
func (r *UserRepository) CreateUser(email, passwordHash, fullName, role string, centerIDs []string) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, role, center_ids, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING created_at, updated_at
	`

	user := &models.User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  fullName,
		Role:      role,
		CenterIDs: models.UUIDArray(centerIDs),
		Active:    true,
	}
	user.PasswordHash = passwordHash

	err := r.db.QueryRow(
		query,
		user.ID, user.Email, passwordHash, user.FullName, user.Role, user.CenterIDs,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(query, email))
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(query, id))
}

// ListByRole retrieves active users holding the given role. When centerID is
// non-empty, only users scoped to that center (or to all centers) match.
func (r *UserRepository) ListByRole(role, centerID string) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND active = true
		  AND ($2 = '' OR center_ids = '{}' OR $2 = ANY(center_ids))
		ORDER BY full_name
	`

	rows, err := r.db.Query(query, role, centerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// UpdateLastLogin stamps the user's last successful login.
func (r *UserRepository) UpdateLastLogin(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CenterIDs,
		&u.Active, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) scanUsers(rows *sql.Rows) ([]models.User, error) {
	users := []models.User{}
	for rows.Next() {
		var u models.User
		err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CenterIDs,
			&u.Active, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
