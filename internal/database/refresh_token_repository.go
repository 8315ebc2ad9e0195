package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// RefreshTokenRepository handles database operations for refresh_tokens
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Store persists the hash of a newly issued refresh token.
func (r *RefreshTokenRepository) Store(userID uuid.UUID, tokenHash, ipAddress, userAgent string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, ip_address, user_agent, expires_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`

	_, err := r.db.Exec(query, uuid.New(), userID, tokenHash, ipAddress, userAgent, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// GetByHash retrieves an unrevoked, unexpired refresh token by its hash.
func (r *RefreshTokenRepository) GetByHash(tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, ip_address, user_agent,
		       created_at, expires_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked = false AND expires_at > NOW()
	`

	var t models.RefreshToken
	err := r.db.QueryRow(query, tokenHash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.IPAddress, &t.UserAgent,
		&t.CreatedAt, &t.ExpiresAt, &t.Revoked, &t.RevokedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &t, nil
}

// Revoke marks a single token revoked.
func (r *RefreshTokenRepository) Revoke(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE refresh_tokens SET revoked = true, revoked_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live token a user holds (logout everywhere).
func (r *RefreshTokenRepository) RevokeAllForUser(userID uuid.UUID) error {
	_, err := r.db.Exec(
		`UPDATE refresh_tokens SET revoked = true, revoked_at = NOW() WHERE user_id = $1 AND revoked = false`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens past their expiry (maintenance cron).
func (r *RefreshTokenRepository) DeleteExpired() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
