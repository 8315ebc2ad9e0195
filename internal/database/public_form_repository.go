package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// PublicFormRepository handles the token-addressed parent-facing forms.
type PublicFormRepository struct {
	db DB
}

// NewPublicFormRepository creates a new PublicFormRepository
func NewPublicFormRepository(db DB) *PublicFormRepository {
	return &PublicFormRepository{db: db}
}

// CreateToken issues a form token for a lead.
func (r *PublicFormRepository) CreateToken(leadID uuid.UUID, kind, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO public_form_tokens (token, lead_id, kind, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(query, token, leadID, kind, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create form token: %w", err)
	}
	return nil
}

// GetToken retrieves a live token of the given kind, nil when unknown or
// expired.
func (r *PublicFormRepository) GetToken(token, kind string) (*models.PublicFormToken, error) {
	query := `
		SELECT token, lead_id, kind, created_at, expires_at
		FROM public_form_tokens
		WHERE token = $1 AND kind = $2 AND expires_at > NOW()
	`

	var t models.PublicFormToken
	err := r.db.QueryRow(query, token, kind).Scan(
		&t.Token, &t.LeadID, &t.Kind, &t.CreatedAt, &t.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get form token: %w", err)
	}
	return &t, nil
}

// GetPreferences retrieves a lead's stored preferences, nil when never set.
func (r *PublicFormRepository) GetPreferences(leadID uuid.UUID) (*models.LeadPreferences, error) {
	query := `
		SELECT lead_id, preferred_days, preferred_time, notes, updated_at
		FROM lead_preferences
		WHERE lead_id = $1
	`

	var p models.LeadPreferences
	err := r.db.QueryRow(query, leadID).Scan(
		&p.LeadID, &p.PreferredDays, &p.PreferredTime, &p.Notes, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead preferences: %w", err)
	}
	return &p, nil
}

// UpsertPreferences stores the parent's scheduling preferences.
func (r *PublicFormRepository) UpsertPreferences(p *models.LeadPreferences) error {
	query := `
		INSERT INTO lead_preferences (lead_id, preferred_days, preferred_time, notes, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (lead_id)
		DO UPDATE SET preferred_days = EXCLUDED.preferred_days,
			preferred_time = EXCLUDED.preferred_time,
			notes = EXCLUDED.notes, updated_at = NOW()
		RETURNING updated_at
	`

	err := r.db.QueryRow(query, p.LeadID, p.PreferredDays, p.PreferredTime, p.Notes).
		Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save lead preferences: %w", err)
	}
	return nil
}

// GetFeedback retrieves a lead's trial feedback, nil when never submitted.
func (r *PublicFormRepository) GetFeedback(leadID uuid.UUID) (*models.LeadFeedback, error) {
	query := `
		SELECT lead_id, rating, comments, updated_at
		FROM lead_feedback
		WHERE lead_id = $1
	`

	var f models.LeadFeedback
	err := r.db.QueryRow(query, leadID).Scan(&f.LeadID, &f.Rating, &f.Comments, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead feedback: %w", err)
	}
	return &f, nil
}

// UpsertFeedback stores the parent's post-trial feedback.
func (r *PublicFormRepository) UpsertFeedback(f *models.LeadFeedback) error {
	query := `
		INSERT INTO lead_feedback (lead_id, rating, comments, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (lead_id)
		DO UPDATE SET rating = EXCLUDED.rating, comments = EXCLUDED.comments, updated_at = NOW()
		RETURNING updated_at
	`

	err := r.db.QueryRow(query, f.LeadID, f.Rating, f.Comments).Scan(&f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save lead feedback: %w", err)
	}
	return nil
}
