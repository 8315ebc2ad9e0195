package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognized by the CRM. Observers get read-only access; coaches
// additionally see lead contact details masked.
const (
	RoleTeamLead   = "team_lead"
	RoleTeamMember = "team_member"
	RoleCoach      = "coach"
	RoleObserver   = "observer"
)

// IsValidRole reports whether role is one of the recognized roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleTeamLead, RoleTeamMember, RoleCoach, RoleObserver:
		return true
	}
	return false
}

// User represents a console or mobile user of the academy CRM.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	CenterIDs    UUIDArray `json:"center_ids" db:"center_ids"`
	Active       bool      `json:"active" db:"active"`
	LastLoginAt  NullTime  `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RefreshToken represents a stored refresh token (hash only).
type RefreshToken struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"-" db:"token_hash"` // Never expose
	IPAddress NullString `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent NullString `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	Revoked   bool       `json:"revoked" db:"revoked"`
	RevokedAt NullTime   `json:"revoked_at,omitempty" db:"revoked_at"`
}

// AuditLog records who changed what. Lead status updates, approval
// resolutions and payment verifications all write an entry.
type AuditLog struct {
	ID         int64         `json:"id" db:"id"`
	UserID     uuid.NullUUID `json:"user_id,omitempty" db:"user_id"`
	Action     string        `json:"action" db:"action"`
	EntityType NullString    `json:"entity_type,omitempty" db:"entity_type"`
	EntityID   NullString    `json:"entity_id,omitempty" db:"entity_id"`
	IPAddress  NullString    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  NullString    `json:"user_agent,omitempty" db:"user_agent"`
	Details    NullString    `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}
