package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/pkg/mailer"
)

// StudentService owns enrolled-student reads, payment verification and the
// one-shot welcome email. Mutations to student records otherwise go through
// the approval workflow.
type StudentService struct {
	studentRepo  *database.StudentRepository
	leadRepo     *database.LeadRepository
	mail         mailer.Mailer
	notification *NotificationService
}

// NewStudentService creates a new student service
func NewStudentService(
	studentRepo *database.StudentRepository,
	leadRepo *database.LeadRepository,
	mail mailer.Mailer,
	notification *NotificationService,
) *StudentService {
	return &StudentService{
		studentRepo:  studentRepo,
		leadRepo:     leadRepo,
		mail:         mail,
		notification: notification,
	}
}

// Get retrieves one student.
func (s *StudentService) Get(id uuid.UUID) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrNotFound
	}
	return student, nil
}

// List retrieves students, optionally narrowed to a center and active only.
func (s *StudentService) List(centerID string, activeOnly bool) ([]models.Student, error) {
	return s.studentRepo.List(centerID, activeOnly)
}

// UpdateDetails edits the student fields that need no approval. Everything
// sensitive (center, batches, subscription, DOB, deactivation) goes through
// the approval workflow instead.
func (s *StudentService) UpdateDetails(id uuid.UUID, playerName string) (*models.Student, error) {
	student, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if playerName == "" || playerName == student.PlayerName {
		return student, nil
	}

	if err := s.studentRepo.UpdateName(id, playerName); err != nil {
		return nil, err
	}
	student.PlayerName = playerName
	return student, nil
}

// VerifyPaymentInput carries the payment evidence a team lead confirms.
type VerifyPaymentInput struct {
	UTRNumber       string
	PaymentProofURL string
	Amount          string
}

// VerifyPayment records the payment evidence and marks it verified.
func (s *StudentService) VerifyPayment(id uuid.UUID, verifiedBy uuid.UUID, in VerifyPaymentInput) (*models.Student, error) {
	student, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if student.PaymentVerified {
		return nil, fmt.Errorf("payment is already verified")
	}

	if err := s.studentRepo.VerifyPayment(id, in.UTRNumber, in.PaymentProofURL, in.Amount, verifiedBy); err != nil {
		return nil, err
	}

	s.notification.NotifyTeamLeads(
		models.NotificationPayment,
		"Payment verified",
		fmt.Sprintf("Payment for %s has been verified", student.PlayerName),
		"/students/"+id.String(),
		student.CenterID,
	)

	return s.Get(id)
}

// SendWelcomeEmail sends the enrollment welcome email once. The email address
// comes from the originating lead.
func (s *StudentService) SendWelcomeEmail(id uuid.UUID) error {
	student, err := s.Get(id)
	if err != nil {
		return err
	}
	if student.WelcomeEmailSent {
		return fmt.Errorf("welcome email was already sent")
	}

	lead, err := s.leadRepo.GetByID(student.LeadID)
	if err != nil {
		return err
	}
	if lead == nil || !lead.Email.Valid {
		return fmt.Errorf("no email address on file for this student")
	}

	subject := fmt.Sprintf("Welcome to the academy, %s!", student.PlayerName)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>%s is now enrolled. We are excited to see them on the field!</p>",
		lead.ParentName.String, student.PlayerName,
	)
	if err := s.mail.Send(lead.Email.String, subject, body); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	if err := s.studentRepo.MarkWelcomeEmailSent(id); err != nil {
		logrus.WithFields(logrus.Fields{
			"student_id": id,
			"error":      err.Error(),
		}).Error("welcome email sent but flag update failed")
	}
	return nil
}
