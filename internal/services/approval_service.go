package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/pkg/funnel"
)

// ApprovalService owns the request-and-sign-off workflow for sensitive
// corrections. Requests are created pending by any team member and resolved
// exactly once by a team lead; approval applies the change atomically from
// the resolver's side.
type ApprovalService struct {
	approvalRepo *database.ApprovalRepository
	leadRepo     *database.LeadRepository
	studentRepo  *database.StudentRepository
	batchRepo    *database.BatchRepository
	notification *NotificationService
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	approvalRepo *database.ApprovalRepository,
	leadRepo *database.LeadRepository,
	studentRepo *database.StudentRepository,
	batchRepo *database.BatchRepository,
	notification *NotificationService,
) *ApprovalService {
	return &ApprovalService{
		approvalRepo: approvalRepo,
		leadRepo:     leadRepo,
		studentRepo:  studentRepo,
		batchRepo:    batchRepo,
		notification: notification,
	}
}

// CreateRequestInput carries a new approval request.
type CreateRequestInput struct {
	RequestType    string
	LeadID         *uuid.UUID
	StudentID      *uuid.UUID
	RequestedValue string
	Reason         string
}

// Create validates eligibility and files a pending request. A second pending
// request of the same type for the same record is rejected.
func (s *ApprovalService) Create(requesterID uuid.UUID, in CreateRequestInput) (*models.ApprovalRequest, error) {
	if !models.IsValidRequestType(in.RequestType) {
		return nil, fmt.Errorf("unknown request type %q", in.RequestType)
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("a reason is required")
	}
	if in.RequestedValue == "" && in.RequestType != models.RequestDeactivate {
		return nil, fmt.Errorf("a requested value is required")
	}

	req := &models.ApprovalRequest{
		RequestType:    in.RequestType,
		RequestedValue: in.RequestedValue,
		Reason:         in.Reason,
		RequestedBy:    requesterID,
	}
	if in.LeadID != nil {
		req.LeadID = uuid.NullUUID{UUID: *in.LeadID, Valid: true}
	}
	if in.StudentID != nil {
		req.StudentID = uuid.NullUUID{UUID: *in.StudentID, Valid: true}
	}

	current, err := s.validateTarget(req)
	if err != nil {
		return nil, err
	}
	if current != "" {
		req.CurrentValue = models.NewNullString(current)
	}

	pending, err := s.approvalRepo.HasPendingForTarget(req.RequestType, req.LeadID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicatePending
	}

	if err := s.approvalRepo.Create(req); err != nil {
		return nil, err
	}

	s.notification.NotifyTeamLeads(
		models.NotificationApproval,
		"Approval needed",
		fmt.Sprintf("A %s request is waiting for your decision", strings.ToLower(strings.ReplaceAll(req.RequestType, "_", " "))),
		"/approvals",
		"",
	)

	return req, nil
}

// validateTarget checks that the addressed record exists and the request
// makes sense against it, and captures the current value for the audit trail.
func (s *ApprovalService) validateTarget(req *models.ApprovalRequest) (string, error) {
	switch req.RequestType {
	case models.RequestStatusReversal:
		if !req.LeadID.Valid {
			return "", fmt.Errorf("a lead is required for a status reversal")
		}
		lead, err := s.leadRepo.GetByID(req.LeadID.UUID)
		if err != nil {
			return "", err
		}
		if lead == nil {
			return "", ErrNotFound
		}
		student, err := s.studentRepo.GetByLeadID(lead.ID)
		if err != nil {
			return "", err
		}
		if !funnel.CanRevert(lead.Status, student != nil) {
			return "", fmt.Errorf("status %s cannot be reverted", lead.Status)
		}
		prev, _ := funnel.PreviousStatus(lead.Status)
		if req.RequestedValue != string(prev) {
			return "", fmt.Errorf("a reversal from %s can only target %s", lead.Status, prev)
		}
		return string(lead.Status), nil

	case models.RequestDateOfBirth:
		if _, err := time.Parse("2006-01-02", req.RequestedValue); err != nil {
			return "", fmt.Errorf("requested date of birth must be YYYY-MM-DD")
		}
		if req.LeadID.Valid {
			lead, err := s.leadRepo.GetByID(req.LeadID.UUID)
			if err != nil {
				return "", err
			}
			if lead == nil {
				return "", ErrNotFound
			}
			if lead.DateOfBirth.Valid {
				return lead.DateOfBirth.Time.Format("2006-01-02"), nil
			}
			return "", nil
		}
		if req.StudentID.Valid {
			student, err := s.studentRepo.GetByID(req.StudentID.UUID)
			if err != nil {
				return "", err
			}
			if student == nil {
				return "", ErrNotFound
			}
			if student.DateOfBirth.Valid {
				return student.DateOfBirth.Time.Format("2006-01-02"), nil
			}
			return "", nil
		}
		return "", fmt.Errorf("a lead or student is required for a date of birth correction")

	case models.RequestCenterTransfer:
		student, err := s.requireStudent(req)
		if err != nil {
			return "", err
		}
		if student.CenterID == req.RequestedValue {
			return "", fmt.Errorf("student is already at this center")
		}
		return student.CenterID, nil

	case models.RequestBatchUpdate:
		student, err := s.requireStudent(req)
		if err != nil {
			return "", err
		}
		for _, id := range splitBatchIDs(req.RequestedValue) {
			if _, err := uuid.Parse(id); err != nil {
				return "", fmt.Errorf("invalid batch id %q", id)
			}
		}
		return strings.Join(student.BatchIDs, ","), nil

	case models.RequestSubscriptionUpdate:
		student, err := s.requireStudent(req)
		if err != nil {
			return "", err
		}
		plan, start := splitSubscription(req.RequestedValue)
		if plan == "" {
			return "", fmt.Errorf("a subscription plan is required")
		}
		if start != "" {
			if _, err := time.Parse("2006-01-02", start); err != nil {
				return "", fmt.Errorf("subscription start must be YYYY-MM-DD")
			}
		}
		return student.SubscriptionPlan.String, nil

	case models.RequestDeactivate:
		student, err := s.requireStudent(req)
		if err != nil {
			return "", err
		}
		if !student.Active {
			return "", fmt.Errorf("student is already inactive")
		}
		return "active", nil
	}

	return "", fmt.Errorf("unknown request type %q", req.RequestType)
}

func (s *ApprovalService) requireStudent(req *models.ApprovalRequest) (*models.Student, error) {
	if !req.StudentID.Valid {
		return nil, fmt.Errorf("a student is required for a %s request", req.RequestType)
	}
	student, err := s.studentRepo.GetByID(req.StudentID.UUID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrNotFound
	}
	return student, nil
}

// Get retrieves one approval request.
func (s *ApprovalService) Get(id uuid.UUID) (*models.ApprovalRequest, error) {
	req, err := s.approvalRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

// List retrieves requests, optionally narrowed by status.
func (s *ApprovalService) List(status string) ([]models.ApprovalRequest, error) {
	return s.approvalRepo.List(status)
}

// Resolve decides a pending request. Approval applies the requested change;
// rejection leaves the record untouched. Either way the request becomes
// immutable: a concurrent second resolution loses and gets
// ErrAlreadyResolved.
func (s *ApprovalService) Resolve(id uuid.UUID, resolverID uuid.UUID, approve bool, note string) (*models.ApprovalRequest, error) {
	req, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.IsResolved() {
		return nil, ErrAlreadyResolved
	}

	status := models.ApprovalRejected
	if approve {
		status = models.ApprovalApproved
	}

	// Single-shot: the repository only flips rows still pending, so the
	// loser of a race lands here with ok == false.
	ok, err := s.approvalRepo.MarkResolved(id, status, resolverID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyResolved
	}

	if approve {
		if err := s.apply(req); err != nil {
			// The decision stands; the failed mutation needs manual followup.
			logrus.WithFields(logrus.Fields{
				"request_id": req.ID,
				"type":       req.RequestType,
				"error":      err.Error(),
			}).Error("approved request could not be applied")
			return nil, fmt.Errorf("request approved but applying it failed: %w", err)
		}
	}

	outcome := "rejected"
	if approve {
		outcome = "approved"
	}
	s.notification.Notify(
		req.RequestedBy,
		models.NotificationApproval,
		fmt.Sprintf("Request %s", outcome),
		fmt.Sprintf("Your %s request was %s", strings.ToLower(strings.ReplaceAll(req.RequestType, "_", " ")), outcome),
		"/approvals",
	)

	return s.Get(id)
}

// apply performs the approved mutation.
func (s *ApprovalService) apply(req *models.ApprovalRequest) error {
	switch req.RequestType {
	case models.RequestStatusReversal:
		lead, err := s.leadRepo.GetByID(req.LeadID.UUID)
		if err != nil {
			return err
		}
		if lead == nil {
			return ErrNotFound
		}
		prev, ok := funnel.PreviousStatus(lead.Status)
		if !ok || string(prev) != req.RequestedValue {
			return fmt.Errorf("lead moved since the request was filed; reversal no longer valid")
		}
		lead.Status = prev
		return s.leadRepo.UpdateStatus(lead)

	case models.RequestDateOfBirth:
		dob, err := time.Parse("2006-01-02", req.RequestedValue)
		if err != nil {
			return err
		}
		category := funnel.AgeCategory(dob, time.Now())
		if req.LeadID.Valid {
			return s.leadRepo.UpdateDateOfBirth(req.LeadID.UUID, dob, category)
		}
		return s.studentRepo.UpdateDateOfBirth(req.StudentID.UUID, models.NewNullTime(dob), category)

	case models.RequestCenterTransfer:
		return s.studentRepo.UpdateCenter(req.StudentID.UUID, req.RequestedValue)

	case models.RequestBatchUpdate:
		batchIDs := splitBatchIDs(req.RequestedValue)
		for _, id := range batchIDs {
			if err := s.checkBatchCapacity(id, req.StudentID.UUID); err != nil {
				return err
			}
		}
		return s.studentRepo.UpdateBatches(req.StudentID.UUID, batchIDs)

	case models.RequestSubscriptionUpdate:
		plan, startStr := splitSubscription(req.RequestedValue)
		var start models.NullTime
		if startStr != "" {
			t, err := time.Parse("2006-01-02", startStr)
			if err != nil {
				return err
			}
			start = models.NewNullTime(t)
		}
		return s.studentRepo.UpdateSubscription(req.StudentID.UUID, plan, start)

	case models.RequestDeactivate:
		return s.studentRepo.Deactivate(req.StudentID.UUID)
	}

	return fmt.Errorf("unknown request type %q", req.RequestType)
}

// checkBatchCapacity rejects assignments into a full batch, not counting the
// student being moved.
func (s *ApprovalService) checkBatchCapacity(batchID string, studentID uuid.UUID) error {
	id, err := uuid.Parse(batchID)
	if err != nil {
		return fmt.Errorf("invalid batch id %q", batchID)
	}
	batch, err := s.batchRepo.GetByID(id)
	if err != nil {
		return err
	}
	if batch == nil {
		return fmt.Errorf("batch %s not found", batchID)
	}

	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return err
	}
	if student != nil && student.BatchIDs.Contains(batchID) {
		return nil
	}

	enrolled, err := s.studentRepo.CountActiveInBatch(batchID)
	if err != nil {
		return err
	}
	if enrolled >= batch.Capacity {
		return ErrCapacityReached
	}
	return nil
}

// splitBatchIDs parses the comma-joined batch id list a BATCH_UPDATE carries.
func splitBatchIDs(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSubscription parses the "plan|start_date" form a SUBSCRIPTION_UPDATE
// carries. The date part is optional.
func splitSubscription(value string) (plan, start string) {
	parts := strings.SplitN(value, "|", 2)
	plan = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		start = strings.TrimSpace(parts[1])
	}
	return plan, start
}
