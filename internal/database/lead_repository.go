package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/pkg/funnel"
)

// LeadRepository handles database operations for the leads table
type LeadRepository struct {
	db DB
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(db DB) *LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = `id, player_name, parent_name, phone, email, status,
	   player_age_category, date_of_birth, next_followup_date, center_id,
	   trial_batch_id, permanent_batch_id, subscription_plan,
	   subscription_start, subscription_end, loss_reason, score,
	   reschedule_count, do_not_contact, source, first_contacted_at,
	   created_at, updated_at`

// LeadFilter narrows List results.
type LeadFilter struct {
	Status   string
	CenterID string
	Search   string // matches player name or phone
	Limit    int
	Offset   int
}

// Create inserts a new lead.
func (r *LeadRepository) Create(lead *models.Lead) error {
	query := `
		INSERT INTO leads (
			id, player_name, parent_name, phone, email, status,
			player_age_category, date_of_birth, next_followup_date, center_id,
			trial_batch_id, score, do_not_contact, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Status == "" {
		lead.Status = funnel.StatusNew
	}

	err := r.db.QueryRow(
		query,
		lead.ID, lead.PlayerName, lead.ParentName, lead.Phone, lead.Email, lead.Status,
		lead.PlayerAgeCategory, lead.DateOfBirth, lead.NextFollowupDate, lead.CenterID,
		lead.TrialBatchID, lead.Score, lead.DoNotContact, lead.Source,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetByID retrieves a lead by ID.
func (r *LeadRepository) GetByID(id uuid.UUID) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return r.scanLead(r.db.QueryRow(query, id))
}

// GetByPhone retrieves a lead by exact phone match (import dedup).
func (r *LeadRepository) GetByPhone(phone string) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone = $1`
	return r.scanLead(r.db.QueryRow(query, phone))
}

// List retrieves leads matching the filter, newest first.
func (r *LeadRepository) List(f LeadFilter) ([]models.Lead, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 1000
	}

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR center_id = $2)
		  AND ($3 = '' OR player_name ILIKE '%' || $3 || '%' OR phone LIKE '%' || $3 || '%')
		ORDER BY updated_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Query(query, f.Status, f.CenterID, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	return r.scanLeads(rows)
}

// ListTrialByBatch retrieves leads whose trial points at the batch and whose
// status is Trial Scheduled — the trial half of a batch's roster.
func (r *LeadRepository) ListTrialByBatch(batchID string) ([]models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE trial_batch_id = $1 AND status = $2
		ORDER BY player_name
	`

	rows, err := r.db.Query(query, batchID, funnel.StatusTrialScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to list trial leads: %w", err)
	}
	defer rows.Close()

	return r.scanLeads(rows)
}

// UpdateDetails updates the editable lead fields (not status).
func (r *LeadRepository) UpdateDetails(lead *models.Lead) error {
	query := `
		UPDATE leads
		SET player_name = $2, parent_name = $3, phone = $4, email = $5,
			player_age_category = $6, date_of_birth = $7, center_id = $8,
			score = $9, do_not_contact = $10, source = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		lead.ID, lead.PlayerName, lead.ParentName, lead.Phone, lead.Email,
		lead.PlayerAgeCategory, lead.DateOfBirth, lead.CenterID,
		lead.Score, lead.DoNotContact, lead.Source,
	).Scan(&lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return nil
}

// UpdateStatus writes the funnel fields after a validated transition.
func (r *LeadRepository) UpdateStatus(lead *models.Lead) error {
	query := `
		UPDATE leads
		SET status = $2, next_followup_date = $3, trial_batch_id = $4,
			permanent_batch_id = $5, loss_reason = $6, reschedule_count = $7,
			first_contacted_at = $8, subscription_plan = $9,
			subscription_start = $10, subscription_end = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		lead.ID, lead.Status, lead.NextFollowupDate, lead.TrialBatchID,
		lead.PermanentBatchID, lead.LossReason, lead.RescheduleCount,
		lead.FirstContactedAt, lead.SubscriptionPlan,
		lead.SubscriptionStart, lead.SubscriptionEnd,
	).Scan(&lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	return nil
}

// UpdateDateOfBirth applies an approved DOB correction together with the
// recomputed age category.
func (r *LeadRepository) UpdateDateOfBirth(id uuid.UUID, dob time.Time, ageCategory string) error {
	_, err := r.db.Exec(
		`UPDATE leads SET date_of_birth = $2, player_age_category = $3, updated_at = NOW() WHERE id = $1`,
		id, dob, ageCategory,
	)
	if err != nil {
		return fmt.Errorf("failed to update date of birth: %w", err)
	}
	return nil
}

// Snapshots loads the lightweight views the bucketing predicates consume.
// Empty centerID means all centers.
func (r *LeadRepository) Snapshots(centerID string) ([]funnel.LeadSnapshot, error) {
	query := `
		SELECT status, next_followup_date, updated_at, reschedule_count, do_not_contact
		FROM leads
		WHERE ($1 = '' OR center_id = $1)
	`

	rows, err := r.db.Query(query, centerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lead snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []funnel.LeadSnapshot{}
	for rows.Next() {
		var s funnel.LeadSnapshot
		var followup sql.NullTime
		if err := rows.Scan(&s.Status, &followup, &s.UpdatedAt, &s.RescheduleCount, &s.DoNotContact); err != nil {
			return nil, fmt.Errorf("failed to scan lead snapshot: %w", err)
		}
		if followup.Valid {
			t := followup.Time
			s.NextFollowupDate = &t
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// CountByStatus returns lead counts per funnel status.
func (r *LeadRepository) CountByStatus(centerID string) (map[funnel.Status]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM leads
		WHERE ($1 = '' OR center_id = $1)
		GROUP BY status
	`

	rows, err := r.db.Query(query, centerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads by status: %w", err)
	}
	defer rows.Close()

	counts := map[funnel.Status]int{}
	for rows.Next() {
		var status funnel.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// AverageTimeToContactHours computes the mean hours between lead creation and
// first contact, over leads that have been contacted.
func (r *LeadRepository) AverageTimeToContactHours(centerID string) (float64, error) {
	query := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (first_contacted_at - created_at)) / 3600.0), 0)
		FROM leads
		WHERE first_contacted_at IS NOT NULL
		  AND ($1 = '' OR center_id = $1)
	`

	var hours float64
	if err := r.db.QueryRow(query, centerID).Scan(&hours); err != nil {
		return 0, fmt.Errorf("failed to compute time to contact: %w", err)
	}
	return hours, nil
}

// ListOverdue retrieves active leads whose followup date has passed, for the
// nightly sweep.
func (r *LeadRepository) ListOverdue(asOf time.Time) ([]models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE next_followup_date < $1
		  AND status NOT IN ($2, $3)
		ORDER BY next_followup_date
	`

	rows, err := r.db.Query(query, asOf, funnel.StatusJoined, funnel.StatusDead)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue leads: %w", err)
	}
	defer rows.Close()

	return r.scanLeads(rows)
}

func (r *LeadRepository) scanLead(row *sql.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(
		&l.ID, &l.PlayerName, &l.ParentName, &l.Phone, &l.Email, &l.Status,
		&l.PlayerAgeCategory, &l.DateOfBirth, &l.NextFollowupDate, &l.CenterID,
		&l.TrialBatchID, &l.PermanentBatchID, &l.SubscriptionPlan,
		&l.SubscriptionStart, &l.SubscriptionEnd, &l.LossReason, &l.Score,
		&l.RescheduleCount, &l.DoNotContact, &l.Source, &l.FirstContactedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}
	return &l, nil
}

func (r *LeadRepository) scanLeads(rows *sql.Rows) ([]models.Lead, error) {
	leads := []models.Lead{}
	for rows.Next() {
		var l models.Lead
		err := rows.Scan(
			&l.ID, &l.PlayerName, &l.ParentName, &l.Phone, &l.Email, &l.Status,
			&l.PlayerAgeCategory, &l.DateOfBirth, &l.NextFollowupDate, &l.CenterID,
			&l.TrialBatchID, &l.PermanentBatchID, &l.SubscriptionPlan,
			&l.SubscriptionStart, &l.SubscriptionEnd, &l.LossReason, &l.Score,
			&l.RescheduleCount, &l.DoNotContact, &l.Source, &l.FirstContactedAt,
			&l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
