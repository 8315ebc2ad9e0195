package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tofa/academy-backend/pkg/funnel"
)

// Lead represents a prospective (or former) player in the sales funnel.
// Leads are never hard-deleted; lost ones move to the Dead status.
type Lead struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	PlayerName        string        `json:"player_name" db:"player_name"`
	ParentName        NullString    `json:"parent_name,omitempty" db:"parent_name"`
	Phone             NullString    `json:"phone,omitempty" db:"phone"`
	Email             NullString    `json:"email,omitempty" db:"email"`
	Status            funnel.Status `json:"status" db:"status"`
	PlayerAgeCategory NullString    `json:"player_age_category,omitempty" db:"player_age_category"`
	DateOfBirth       NullTime      `json:"date_of_birth,omitempty" db:"date_of_birth"`
	NextFollowupDate  NullTime      `json:"next_followup_date,omitempty" db:"next_followup_date"`
	CenterID          NullString    `json:"center_id,omitempty" db:"center_id"`
	TrialBatchID      NullString    `json:"trial_batch_id,omitempty" db:"trial_batch_id"`
	PermanentBatchID  NullString    `json:"permanent_batch_id,omitempty" db:"permanent_batch_id"`
	SubscriptionPlan  NullString    `json:"subscription_plan,omitempty" db:"subscription_plan"`
	SubscriptionStart NullTime      `json:"subscription_start,omitempty" db:"subscription_start"`
	SubscriptionEnd   NullTime      `json:"subscription_end,omitempty" db:"subscription_end"`
	LossReason        NullString    `json:"loss_reason,omitempty" db:"loss_reason"`
	Score             int           `json:"score" db:"score"` // 0-5
	RescheduleCount   int           `json:"reschedule_count" db:"reschedule_count"`
	DoNotContact      bool          `json:"do_not_contact" db:"do_not_contact"`
	Source            NullString    `json:"source,omitempty" db:"source"`
	FirstContactedAt  NullTime      `json:"first_contacted_at,omitempty" db:"first_contacted_at"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// Snapshot converts the lead into the pure bucketing view.
func (l *Lead) Snapshot() funnel.LeadSnapshot {
	return funnel.LeadSnapshot{
		Status:           l.Status,
		NextFollowupDate: l.NextFollowupDate.TimePtr(),
		UpdatedAt:        l.UpdatedAt,
		RescheduleCount:  l.RescheduleCount,
		DoNotContact:     l.DoNotContact,
	}
}

// MaskContact clears contact details for roles that must not see them
// (coach, observer).
func (l *Lead) MaskContact() {
	l.Phone = NullString{}
	l.Email = NullString{}
}

// LeadPreferences holds the parent-facing preference form data, addressed
// by a public token rather than an authenticated session.
type LeadPreferences struct {
	LeadID        uuid.UUID      `json:"lead_id" db:"lead_id"`
	PreferredDays pq.StringArray `json:"preferred_days" db:"preferred_days"`
	PreferredTime NullString     `json:"preferred_time,omitempty" db:"preferred_time"`
	Notes         NullString     `json:"notes,omitempty" db:"notes"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// LeadFeedback holds the parent-facing post-trial feedback form data.
type LeadFeedback struct {
	LeadID    uuid.UUID  `json:"lead_id" db:"lead_id"`
	Rating    int        `json:"rating" db:"rating"` // 1-5
	Comments  NullString `json:"comments,omitempty" db:"comments"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// PublicFormToken addresses the unauthenticated parent forms.
type PublicFormToken struct {
	Token     string    `json:"token" db:"token"`
	LeadID    uuid.UUID `json:"lead_id" db:"lead_id"`
	Kind      string    `json:"kind" db:"kind"` // preferences | feedback
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Public form kinds.
const (
	FormKindPreferences = "preferences"
	FormKindFeedback    = "feedback"
)
