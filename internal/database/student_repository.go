package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
)

// StudentRepository handles database operations for the students table
type StudentRepository struct {
	db DB
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, lead_id, player_name, center_id, batch_ids, active,
	   date_of_birth, age_category, subscription_plan, subscription_start,
	   utr_number, payment_proof_url, payment_amount, payment_verified,
	   payment_verified_at, payment_verified_by, welcome_email_sent,
	   created_at, updated_at`

// Create inserts a new student (spawned when a lead reaches Joined).
func (r *StudentRepository) Create(student *models.Student) error {
	query := `
		INSERT INTO students (
			id, lead_id, player_name, center_id, batch_ids, active,
			date_of_birth, age_category, subscription_plan, subscription_start
		) VALUES ($1, $2, $3, $4, $5, true, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	student.Active = true

	err := r.db.QueryRow(
		query,
		student.ID, student.LeadID, student.PlayerName, student.CenterID, student.BatchIDs,
		student.DateOfBirth, student.AgeCategory, student.SubscriptionPlan, student.SubscriptionStart,
	).Scan(&student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(id uuid.UUID) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return r.scanStudent(r.db.QueryRow(query, id))
}

// GetByLeadID retrieves the student spawned by a lead, if any.
func (r *StudentRepository) GetByLeadID(leadID uuid.UUID) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE lead_id = $1`
	return r.scanStudent(r.db.QueryRow(query, leadID))
}

// List retrieves students, optionally narrowed to a center and/or active only.
func (r *StudentRepository) List(centerID string, activeOnly bool) ([]models.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE ($1 = '' OR center_id = $1)
		  AND ($2 = false OR active = true)
		ORDER BY player_name
	`

	rows, err := r.db.Query(query, centerID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	return r.scanStudents(rows)
}

// ListActiveByBatch retrieves the enrolled half of a batch's roster.
func (r *StudentRepository) ListActiveByBatch(batchID string) ([]models.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE active = true AND $1 = ANY(batch_ids)
		ORDER BY player_name
	`

	rows, err := r.db.Query(query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students by batch: %w", err)
	}
	defer rows.Close()

	return r.scanStudents(rows)
}

// CountActiveInBatch counts enrolled students assigned to a batch, for
// capacity enforcement.
func (r *StudentRepository) CountActiveInBatch(batchID string) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM students WHERE active = true AND $1 = ANY(batch_ids)`,
		batchID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count students in batch: %w", err)
	}
	return n, nil
}

// UpdateBatches replaces a student's batch assignments (approved BATCH_UPDATE).
func (r *StudentRepository) UpdateBatches(id uuid.UUID, batchIDs []string) error {
	_, err := r.db.Exec(
		`UPDATE students SET batch_ids = $2, updated_at = NOW() WHERE id = $1`,
		id, models.UUIDArray(batchIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to update student batches: %w", err)
	}
	return nil
}

// UpdateName edits the player's display name.
func (r *StudentRepository) UpdateName(id uuid.UUID, playerName string) error {
	_, err := r.db.Exec(
		`UPDATE students SET player_name = $2, updated_at = NOW() WHERE id = $1`,
		id, playerName,
	)
	if err != nil {
		return fmt.Errorf("failed to update student name: %w", err)
	}
	return nil
}

// UpdateCenter moves a student to another center and clears batch
// assignments, which belong to the old center (approved CENTER_TRANSFER).
func (r *StudentRepository) UpdateCenter(id uuid.UUID, centerID string) error {
	_, err := r.db.Exec(
		`UPDATE students SET center_id = $2, batch_ids = '{}', updated_at = NOW() WHERE id = $1`,
		id, centerID,
	)
	if err != nil {
		return fmt.Errorf("failed to transfer student: %w", err)
	}
	return nil
}

// UpdateSubscription applies an approved SUBSCRIPTION_UPDATE.
func (r *StudentRepository) UpdateSubscription(id uuid.UUID, plan string, start models.NullTime) error {
	_, err := r.db.Exec(
		`UPDATE students SET subscription_plan = $2, subscription_start = $3, updated_at = NOW() WHERE id = $1`,
		id, plan, start,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// UpdateDateOfBirth applies an approved DOB correction to the student record.
func (r *StudentRepository) UpdateDateOfBirth(id uuid.UUID, dob models.NullTime, ageCategory string) error {
	_, err := r.db.Exec(
		`UPDATE students SET date_of_birth = $2, age_category = $3, updated_at = NOW() WHERE id = $1`,
		id, dob, ageCategory,
	)
	if err != nil {
		return fmt.Errorf("failed to update student date of birth: %w", err)
	}
	return nil
}

// Deactivate soft-disables a student (approved DEACTIVATE).
func (r *StudentRepository) Deactivate(id uuid.UUID) error {
	_, err := r.db.Exec(
		`UPDATE students SET active = false, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate student: %w", err)
	}
	return nil
}

// VerifyPayment records payment details and marks them verified.
func (r *StudentRepository) VerifyPayment(id uuid.UUID, utr, proofURL, amount string, verifiedBy uuid.UUID) error {
	query := `
		UPDATE students
		SET utr_number = NULLIF($2, ''), payment_proof_url = NULLIF($3, ''),
			payment_amount = NULLIF($4, ''), payment_verified = true,
			payment_verified_at = NOW(), payment_verified_by = $5, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, id, utr, proofURL, amount, verifiedBy.String())
	if err != nil {
		return fmt.Errorf("failed to verify payment: %w", err)
	}
	return nil
}

// MarkWelcomeEmailSent flags the one-shot welcome email as delivered.
func (r *StudentRepository) MarkWelcomeEmailSent(id uuid.UUID) error {
	_, err := r.db.Exec(
		`UPDATE students SET welcome_email_sent = true, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark welcome email sent: %w", err)
	}
	return nil
}

func (r *StudentRepository) scanStudent(row *sql.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(
		&s.ID, &s.LeadID, &s.PlayerName, &s.CenterID, &s.BatchIDs, &s.Active,
		&s.DateOfBirth, &s.AgeCategory, &s.SubscriptionPlan, &s.SubscriptionStart,
		&s.UTRNumber, &s.PaymentProofURL, &s.PaymentAmount, &s.PaymentVerified,
		&s.PaymentVerifiedAt, &s.PaymentVerifiedBy, &s.WelcomeEmailSent,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}
	return &s, nil
}

func (r *StudentRepository) scanStudents(rows *sql.Rows) ([]models.Student, error) {
	students := []models.Student{}
	for rows.Next() {
		var s models.Student
		err := rows.Scan(
			&s.ID, &s.LeadID, &s.PlayerName, &s.CenterID, &s.BatchIDs, &s.Active,
			&s.DateOfBirth, &s.AgeCategory, &s.SubscriptionPlan, &s.SubscriptionStart,
			&s.UTRNumber, &s.PaymentProofURL, &s.PaymentAmount, &s.PaymentVerified,
			&s.PaymentVerifiedAt, &s.PaymentVerifiedBy, &s.WelcomeEmailSent,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
