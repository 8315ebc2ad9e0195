package models

import (
	"time"

	"github.com/google/uuid"
)

// Approval request types. Each encodes current/requested values as opaque
// strings: BATCH_UPDATE is a comma-joined batch id list, SUBSCRIPTION_UPDATE
// is "plan|start_date".
const (
	RequestStatusReversal     = "STATUS_REVERSAL"
	RequestDateOfBirth        = "DATE_OF_BIRTH"
	RequestCenterTransfer     = "CENTER_TRANSFER"
	RequestDeactivate         = "DEACTIVATE"
	RequestBatchUpdate        = "BATCH_UPDATE"
	RequestSubscriptionUpdate = "SUBSCRIPTION_UPDATE"
)

// IsValidRequestType reports whether t is a recognized approval request type.
func IsValidRequestType(t string) bool {
	switch t {
	case RequestStatusReversal, RequestDateOfBirth, RequestCenterTransfer,
		RequestDeactivate, RequestBatchUpdate, RequestSubscriptionUpdate:
		return true
	}
	return false
}

// Approval request lifecycle states. A request is created pending and
// resolved exactly once; it is immutable afterwards.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// ApprovalRequest is a proposed correction to lead or student data that
// needs team-lead sign-off before it touches the underlying record.
type ApprovalRequest struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	RequestType    string        `json:"request_type" db:"request_type"`
	LeadID         uuid.NullUUID `json:"lead_id,omitempty" db:"lead_id"`
	StudentID      uuid.NullUUID `json:"student_id,omitempty" db:"student_id"`
	CurrentValue   NullString    `json:"current_value,omitempty" db:"current_value"`
	RequestedValue string        `json:"requested_value" db:"requested_value"`
	Reason         string        `json:"reason" db:"reason"`
	RequestedBy    uuid.UUID     `json:"requested_by" db:"requested_by"`
	Status         string        `json:"status" db:"status"`
	ResolvedBy     uuid.NullUUID `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt     NullTime      `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolutionNote NullString    `json:"resolution_note,omitempty" db:"resolution_note"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// IsResolved reports whether the request has already been decided.
func (r *ApprovalRequest) IsResolved() bool {
	return r.Status != ApprovalPending
}
