package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/pkg/funnel"
	"github.com/tofa/academy-backend/pkg/validator"
)

// LeadService owns the lead funnel: creation, edits, and every status move.
type LeadService struct {
	leadRepo     *database.LeadRepository
	studentRepo  *database.StudentRepository
	batchRepo    *database.BatchRepository
	notification *NotificationService
	phone        *validator.PhoneValidator
}

// NewLeadService creates a new lead service
func NewLeadService(
	leadRepo *database.LeadRepository,
	studentRepo *database.StudentRepository,
	batchRepo *database.BatchRepository,
	notification *NotificationService,
) *LeadService {
	return &LeadService{
		leadRepo:     leadRepo,
		studentRepo:  studentRepo,
		batchRepo:    batchRepo,
		notification: notification,
		phone:        validator.NewPhoneValidator(),
	}
}

// CreateLeadInput carries the fields a team member supplies for a new lead.
type CreateLeadInput struct {
	PlayerName   string
	ParentName   string
	Phone        string
	Email        string
	DateOfBirth  *time.Time
	CenterID     string
	Score        int
	Source       string
	DoNotContact bool
}

// Create validates and inserts a new lead in the New status. The phone is
// normalized and deduplicated: a second lead with the same number is
// rejected.
func (s *LeadService) Create(in CreateLeadInput) (*models.Lead, error) {
	if in.PlayerName == "" {
		return nil, fmt.Errorf("player name is required")
	}

	lead := &models.Lead{
		PlayerName:   in.PlayerName,
		Score:        in.Score,
		DoNotContact: in.DoNotContact,
	}
	if in.ParentName != "" {
		lead.ParentName = models.NewNullString(in.ParentName)
	}
	if in.Email != "" {
		lead.Email = models.NewNullString(in.Email)
	}
	if in.CenterID != "" {
		lead.CenterID = models.NewNullString(in.CenterID)
	}
	if in.Source != "" {
		lead.Source = models.NewNullString(in.Source)
	}

	if in.Phone != "" {
		normalized, err := s.phone.Validate(in.Phone)
		if err != nil {
			return nil, fmt.Errorf("invalid phone: %w", err)
		}
		existing, err := s.leadRepo.GetByPhone(normalized)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrLeadExists
		}
		lead.Phone = models.NewNullString(normalized)
	}

	if in.DateOfBirth != nil {
		lead.DateOfBirth = models.NewNullTime(*in.DateOfBirth)
		lead.PlayerAgeCategory = models.NewNullString(funnel.AgeCategory(*in.DateOfBirth, time.Now()))
	}

	if err := s.leadRepo.Create(lead); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"player":  lead.PlayerName,
	}).Info("lead created")

	return lead, nil
}

// Get retrieves a single lead.
func (s *LeadService) Get(id uuid.UUID) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrNotFound
	}
	return lead, nil
}

// List retrieves leads matching the filter.
func (s *LeadService) List(f database.LeadFilter) ([]models.Lead, error) {
	return s.leadRepo.List(f)
}

// UpdateDetailsInput carries the editable non-funnel fields.
type UpdateDetailsInput struct {
	PlayerName   string
	ParentName   string
	Phone        string
	Email        string
	DateOfBirth  *time.Time
	CenterID     string
	Score        int
	Source       string
	DoNotContact bool
}

// UpdateDetails edits lead fields outside the funnel. Date of birth edits on
// existing leads go through the approval flow instead, so a non-nil DOB here
// is only honored when the lead had none.
func (s *LeadService) UpdateDetails(id uuid.UUID, in UpdateDetailsInput) (*models.Lead, error) {
	lead, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if in.PlayerName != "" {
		lead.PlayerName = in.PlayerName
	}
	if in.ParentName != "" {
		lead.ParentName = models.NewNullString(in.ParentName)
	}
	if in.Email != "" {
		lead.Email = models.NewNullString(in.Email)
	}
	if in.CenterID != "" {
		lead.CenterID = models.NewNullString(in.CenterID)
	}
	if in.Source != "" {
		lead.Source = models.NewNullString(in.Source)
	}
	lead.Score = in.Score
	lead.DoNotContact = in.DoNotContact

	if in.Phone != "" {
		normalized, err := s.phone.Validate(in.Phone)
		if err != nil {
			return nil, fmt.Errorf("invalid phone: %w", err)
		}
		if !lead.Phone.Valid || lead.Phone.String != normalized {
			existing, err := s.leadRepo.GetByPhone(normalized)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != lead.ID {
				return nil, ErrLeadExists
			}
		}
		lead.Phone = models.NewNullString(normalized)
	}

	if in.DateOfBirth != nil && !lead.DateOfBirth.Valid {
		lead.DateOfBirth = models.NewNullTime(*in.DateOfBirth)
		lead.PlayerAgeCategory = models.NewNullString(funnel.AgeCategory(*in.DateOfBirth, time.Now()))
	}

	if err := s.leadRepo.UpdateDetails(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// StatusChangeInput carries the side data a status move may require.
type StatusChangeInput struct {
	NewStatus        funnel.Status
	NextFollowupDate *time.Time
	TrialBatchID     string
	PermanentBatchID string
	LossReason       string
	SubscriptionPlan string
	// Reschedule marks a Trial Scheduled -> Trial Scheduled date move.
	Reschedule bool
}

// UpdateStatus applies a funnel move. Joining requires a permanent batch
// with free capacity and spawns the student record. Moving Trial Scheduled
// with Reschedule set bumps the reschedule counter instead of transitioning.
func (s *LeadService) UpdateStatus(id uuid.UUID, actorID uuid.UUID, in StatusChangeInput) (*models.Lead, error) {
	lead, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	// A date move within Trial Scheduled is not a transition.
	if in.Reschedule && lead.Status == funnel.StatusTrialScheduled && in.NewStatus == funnel.StatusTrialScheduled {
		if in.NextFollowupDate == nil {
			return nil, fmt.Errorf("a new trial date is required to reschedule")
		}
		lead.NextFollowupDate = models.NewNullTime(*in.NextFollowupDate)
		lead.RescheduleCount++
		if err := s.leadRepo.UpdateStatus(lead); err != nil {
			return nil, err
		}
		return lead, nil
	}

	if err := funnel.ValidateTransition(lead.Status, in.NewStatus); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	from := lead.Status
	lead.Status = in.NewStatus

	switch in.NewStatus {
	case funnel.StatusCalled:
		if !lead.FirstContactedAt.Valid {
			lead.FirstContactedAt = models.NewNullTime(time.Now())
		}
		if in.NextFollowupDate != nil {
			lead.NextFollowupDate = models.NewNullTime(*in.NextFollowupDate)
		}

	case funnel.StatusTrialScheduled:
		if in.TrialBatchID == "" {
			return nil, fmt.Errorf("a trial batch is required to schedule a trial")
		}
		if in.NextFollowupDate == nil {
			return nil, fmt.Errorf("a trial date is required to schedule a trial")
		}
		lead.TrialBatchID = models.NewNullString(in.TrialBatchID)
		lead.NextFollowupDate = models.NewNullTime(*in.NextFollowupDate)

	case funnel.StatusTrialAttended:
		if in.NextFollowupDate != nil {
			lead.NextFollowupDate = models.NewNullTime(*in.NextFollowupDate)
		}

	case funnel.StatusJoined:
		if err := s.join(lead, in); err != nil {
			return nil, err
		}

	case funnel.StatusDead:
		if in.LossReason == "" {
			return nil, fmt.Errorf("a loss reason is required to mark a lead lost")
		}
		lead.LossReason = models.NewNullString(in.LossReason)

	case funnel.StatusNurture:
		if in.NextFollowupDate != nil {
			lead.NextFollowupDate = models.NewNullTime(*in.NextFollowupDate)
		}
	}

	if err := s.leadRepo.UpdateStatus(lead); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"from":    from,
		"to":      lead.Status,
		"by":      actorID,
	}).Info("lead status changed")

	if lead.Status == funnel.StatusJoined {
		s.notification.NotifyTeamLeads(
			models.NotificationEnrollment,
			"New enrollment",
			fmt.Sprintf("%s has joined the academy", lead.PlayerName),
			"/students",
			lead.CenterID.String,
		)
	}

	return lead, nil
}

// join enforces the enrollment gate and spawns the student record.
func (s *LeadService) join(lead *models.Lead, in StatusChangeInput) error {
	if in.PermanentBatchID == "" {
		return ErrBatchRequired
	}

	batchID, err := uuid.Parse(in.PermanentBatchID)
	if err != nil {
		return fmt.Errorf("invalid batch id: %w", err)
	}
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return fmt.Errorf("batch not found")
	}

	enrolled, err := s.studentRepo.CountActiveInBatch(in.PermanentBatchID)
	if err != nil {
		return err
	}
	if enrolled >= batch.Capacity {
		return ErrCapacityReached
	}

	lead.PermanentBatchID = models.NewNullString(in.PermanentBatchID)
	if in.SubscriptionPlan != "" {
		lead.SubscriptionPlan = models.NewNullString(in.SubscriptionPlan)
		lead.SubscriptionStart = models.NewNullTime(time.Now())
	}

	// 1:1 lead -> student; a revert-and-rejoin reuses the existing record.
	existing, err := s.studentRepo.GetByLeadID(lead.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	student := &models.Student{
		LeadID:            lead.ID,
		PlayerName:        lead.PlayerName,
		CenterID:          lead.CenterID.String,
		BatchIDs:          models.UUIDArray{in.PermanentBatchID},
		DateOfBirth:       lead.DateOfBirth,
		AgeCategory:       lead.PlayerAgeCategory,
		SubscriptionPlan:  lead.SubscriptionPlan,
		SubscriptionStart: lead.SubscriptionStart,
	}
	return s.studentRepo.Create(student)
}

// Freshness reports how recently the lead was touched.
func (s *LeadService) Freshness(lead *models.Lead) funnel.Freshness {
	return funnel.Classify(lead.UpdatedAt, time.Now())
}
