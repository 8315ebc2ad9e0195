package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/internal/utils"
)

// AuditService records who changed what. Audit writes are best effort: a
// failed insert is logged and swallowed so it never fails the operation it
// describes.
type AuditService struct {
	auditRepo *database.AuditRepository
	enabled   bool
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *database.AuditRepository, enabled bool) *AuditService {
	return &AuditService{auditRepo: auditRepo, enabled: enabled}
}

// AuditEvent represents one recordable action.
type AuditEvent struct {
	UserID     *uuid.UUID // nil for pre-authentication events
	Action     string     // e.g. "login", "lead_status_change", "approval_resolved"
	EntityType string     // e.g. "lead", "student", "approval_request"
	EntityID   string
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// Log records one event.
func (s *AuditService) Log(event AuditEvent) {
	if !s.enabled {
		return
	}

	entry := &models.AuditLog{Action: event.Action}
	if event.UserID != nil {
		entry.UserID = uuid.NullUUID{UUID: *event.UserID, Valid: true}
	}
	if event.EntityType != "" {
		entry.EntityType = models.NewNullString(event.EntityType)
	}
	if event.EntityID != "" {
		entry.EntityID = models.NewNullString(event.EntityID)
	}
	if event.IPAddress != "" {
		entry.IPAddress = models.NewNullString(event.IPAddress)
	}
	if event.UserAgent != "" {
		entry.UserAgent = models.NewNullString(event.UserAgent)
	}
	if len(event.Details) > 0 {
		if data, err := json.Marshal(event.Details); err == nil {
			entry.Details = models.NewNullString(string(data))
		}
	}

	if err := s.auditRepo.Insert(entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"action": event.Action,
			"error":  err.Error(),
		}).Error("failed to write audit log")
	}
}

// LogLogin records a successful login with a parsed device label.
func (s *AuditService) LogLogin(userID uuid.UUID, email, ipAddress, userAgent string) {
	s.Log(AuditEvent{
		UserID:     &userID,
		Action:     "login",
		EntityType: "user",
		EntityID:   userID.String(),
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":  email,
			"device": utils.DescribeDevice(userAgent),
		},
	})
}

// LogLoginFailed records a failed login attempt.
func (s *AuditService) LogLoginFailed(email, ipAddress, userAgent string) {
	s.Log(AuditEvent{
		Action:     "login_failed",
		EntityType: "user",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":  email,
			"device": utils.DescribeDevice(userAgent),
		},
	})
}

// LogLeadStatusChange records a funnel move.
func (s *AuditService) LogLeadStatusChange(userID, leadID uuid.UUID, from, to, ipAddress string) {
	s.Log(AuditEvent{
		UserID:     &userID,
		Action:     "lead_status_change",
		EntityType: "lead",
		EntityID:   leadID.String(),
		IPAddress:  ipAddress,
		Details: map[string]interface{}{
			"from": from,
			"to":   to,
		},
	})
}

// LogApprovalResolved records an approval decision.
func (s *AuditService) LogApprovalResolved(userID, requestID uuid.UUID, requestType, outcome, ipAddress string) {
	s.Log(AuditEvent{
		UserID:     &userID,
		Action:     "approval_resolved",
		EntityType: "approval_request",
		EntityID:   requestID.String(),
		IPAddress:  ipAddress,
		Details: map[string]interface{}{
			"request_type": requestType,
			"outcome":      outcome,
		},
	})
}

// LogPaymentVerified records a payment verification.
func (s *AuditService) LogPaymentVerified(userID, studentID uuid.UUID, ipAddress string) {
	s.Log(AuditEvent{
		UserID:     &userID,
		Action:     "payment_verified",
		EntityType: "student",
		EntityID:   studentID.String(),
		IPAddress:  ipAddress,
	})
}

// Recent retrieves the latest audit entries.
func (s *AuditService) Recent(limit int) ([]models.AuditLog, error) {
	return s.auditRepo.ListRecent(limit)
}
