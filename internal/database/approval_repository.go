package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// ApprovalRepository handles database operations for approval_requests
type ApprovalRepository struct {
	db DB
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

const approvalColumns = `id, request_type, lead_id, student_id, current_value,
	   requested_value, reason, requested_by, status, resolved_by,
	   resolved_at, resolution_note, created_at`

// Create inserts a new pending approval request.
func (r *ApprovalRepository) Create(req *models.ApprovalRequest) error {
	query := `
		INSERT INTO approval_requests (
			id, request_type, lead_id, student_id, current_value,
			requested_value, reason, requested_by, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = models.ApprovalPending

	err := r.db.QueryRow(
		query,
		req.ID, req.RequestType, req.LeadID, req.StudentID, req.CurrentValue,
		req.RequestedValue, req.Reason, req.RequestedBy, req.Status,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	return nil
}

// GetByID retrieves an approval request by ID.
func (r *ApprovalRepository) GetByID(id uuid.UUID) (*models.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`
	return r.scanApproval(r.db.QueryRow(query, id))
}

// List retrieves approval requests, optionally narrowed by status.
func (r *ApprovalRepository) List(status string) ([]models.ApprovalRequest, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval requests: %w", err)
	}
	defer rows.Close()

	requests := []models.ApprovalRequest{}
	for rows.Next() {
		var req models.ApprovalRequest
		err := rows.Scan(
			&req.ID, &req.RequestType, &req.LeadID, &req.StudentID, &req.CurrentValue,
			&req.RequestedValue, &req.Reason, &req.RequestedBy, &req.Status,
			&req.ResolvedBy, &req.ResolvedAt, &req.ResolutionNote, &req.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval row: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// HasPendingForTarget reports whether a pending request of the same type
// already exists for the lead/student, to avoid duplicate submissions.
func (r *ApprovalRepository) HasPendingForTarget(requestType string, leadID, studentID uuid.NullUUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM approval_requests
			WHERE request_type = $1 AND status = $2
			  AND (lead_id = $3 OR ($3 IS NULL AND lead_id IS NULL))
			  AND (student_id = $4 OR ($4 IS NULL AND student_id IS NULL))
		)
	`

	var exists bool
	err := r.db.QueryRow(query, requestType, models.ApprovalPending, leadID, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending requests: %w", err)
	}
	return exists, nil
}

// MarkResolved flips a pending request to its final state. The status guard
// in the WHERE clause makes resolution single-shot: a second attempt affects
// zero rows and the caller reports the conflict.
func (r *ApprovalRepository) MarkResolved(id uuid.UUID, status string, resolvedBy uuid.UUID, note string) (bool, error) {
	query := `
		UPDATE approval_requests
		SET status = $2, resolved_by = $3, resolved_at = NOW(),
			resolution_note = NULLIF($4, '')
		WHERE id = $1 AND status = $5
	`

	res, err := r.db.Exec(query, id, status, resolvedBy, note, models.ApprovalPending)
	if err != nil {
		return false, fmt.Errorf("failed to resolve approval request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read resolve result: %w", err)
	}
	return n == 1, nil
}

func (r *ApprovalRepository) scanApproval(row *sql.Row) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := row.Scan(
		&req.ID, &req.RequestType, &req.LeadID, &req.StudentID, &req.CurrentValue,
		&req.RequestedValue, &req.Reason, &req.RequestedBy, &req.Status,
		&req.ResolvedBy, &req.ResolvedAt, &req.ResolutionNote, &req.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan approval request: %w", err)
	}
	return &req, nil
}
