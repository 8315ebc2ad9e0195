package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification type classes. They map onto the icon families the clients
// render (trending/activity/payment/shield/bell).
const (
	NotificationEnrollment = "enrollment"
	NotificationActivity   = "activity"
	NotificationPayment    = "payment"
	NotificationApproval   = "approval"
	NotificationSystem     = "system"
)

// Notification is a system-generated message for one user.
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Type      string     `json:"type" db:"type"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	Link      NullString `json:"link,omitempty" db:"link"`
	Read      bool       `json:"read" db:"read"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
