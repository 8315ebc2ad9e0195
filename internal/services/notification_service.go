package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
)

// NotificationService creates and serves in-app notifications.
type NotificationService struct {
	notificationRepo *database.NotificationRepository
	userRepo         *database.UserRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo *database.NotificationRepository,
	userRepo *database.UserRepository,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// Notify creates a notification for one user. Failures are logged, not
// propagated: a lost notification must never fail the triggering operation.
func (s *NotificationService) Notify(userID uuid.UUID, nType, title, body, link string) {
	n := &models.Notification{
		UserID: userID,
		Type:   nType,
		Title:  title,
		Body:   body,
	}
	if link != "" {
		n.Link = models.NewNullString(link)
	}

	if err := s.notificationRepo.Create(n); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    nType,
			"error":   err.Error(),
		}).Error("failed to create notification")
	}
}

// NotifyTeamLeads fans a notification out to every team lead who can see the
// center. Empty centerID notifies all team leads.
func (s *NotificationService) NotifyTeamLeads(nType, title, body, link, centerID string) {
	leads, err := s.userRepo.ListByRole(models.RoleTeamLead, centerID)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("failed to list team leads for notification")
		return
	}

	for _, lead := range leads {
		s.Notify(lead.ID, nType, title, body, link)
	}
}

// List retrieves a user's notifications, newest first.
func (s *NotificationService) List(userID uuid.UUID, limit int) ([]models.Notification, error) {
	return s.notificationRepo.ListByUser(userID, limit)
}

// UnreadCount counts a user's unread notifications.
func (s *NotificationService) UnreadCount(userID uuid.UUID) (int, error) {
	return s.notificationRepo.UnreadCount(userID)
}

// MarkRead marks one of the user's notifications read.
func (s *NotificationService) MarkRead(id, userID uuid.UUID) error {
	return s.notificationRepo.MarkRead(id, userID)
}

// MarkAllRead marks all of the user's notifications read.
func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(userID)
}
