package models

import (
	"time"

	"github.com/google/uuid"
)

// Student represents an enrolled player, created when its lead reaches
// Joined. Linked 1:1 to the originating lead.
type Student struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	LeadID            uuid.UUID  `json:"lead_id" db:"lead_id"`
	PlayerName        string     `json:"player_name" db:"player_name"`
	CenterID          string     `json:"center_id" db:"center_id"`
	BatchIDs          UUIDArray  `json:"batch_ids" db:"batch_ids"`
	Active            bool       `json:"active" db:"active"`
	DateOfBirth       NullTime   `json:"date_of_birth,omitempty" db:"date_of_birth"`
	AgeCategory       NullString `json:"age_category,omitempty" db:"age_category"`
	SubscriptionPlan  NullString `json:"subscription_plan,omitempty" db:"subscription_plan"`
	SubscriptionStart NullTime   `json:"subscription_start,omitempty" db:"subscription_start"`
	UTRNumber         NullString `json:"utr_number,omitempty" db:"utr_number"`
	PaymentProofURL   NullString `json:"payment_proof_url,omitempty" db:"payment_proof_url"`
	PaymentAmount     NullString `json:"payment_amount,omitempty" db:"payment_amount"` // DECIMAL as string
	PaymentVerified   bool       `json:"payment_verified" db:"payment_verified"`
	PaymentVerifiedAt NullTime   `json:"payment_verified_at,omitempty" db:"payment_verified_at"`
	PaymentVerifiedBy NullString `json:"payment_verified_by,omitempty" db:"payment_verified_by"`
	WelcomeEmailSent  bool       `json:"welcome_email_sent" db:"welcome_email_sent"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Milestone is an attendance-derived marker shown on the student profile.
type Milestone struct {
	Code       string    `json:"code"`  // first_session, sessions_10, ...
	Label      string    `json:"label"` // human-readable
	AchievedAt time.Time `json:"achieved_at"`
}
