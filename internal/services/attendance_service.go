package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/pkg/funnel"
)

// AttendanceService owns session check-ins and the attendance-derived
// milestones.
type AttendanceService struct {
	attendanceRepo *database.AttendanceRepository
	leadRepo       *database.LeadRepository
	studentRepo    *database.StudentRepository
	batchRepo      *database.BatchRepository
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	attendanceRepo *database.AttendanceRepository,
	leadRepo *database.LeadRepository,
	studentRepo *database.StudentRepository,
	batchRepo *database.BatchRepository,
) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		leadRepo:       leadRepo,
		studentRepo:    studentRepo,
		batchRepo:      batchRepo,
	}
}

// Participants builds a batch's eligible roster: trial leads pointed at the
// batch plus enrolled students assigned to it.
func (s *AttendanceService) Participants(batchID uuid.UUID) ([]models.Participant, error) {
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrNotFound
	}

	trialLeads, err := s.leadRepo.ListTrialByBatch(batchID.String())
	if err != nil {
		return nil, err
	}
	students, err := s.studentRepo.ListActiveByBatch(batchID.String())
	if err != nil {
		return nil, err
	}

	participants := make([]models.Participant, 0, len(trialLeads)+len(students))
	for _, lead := range trialLeads {
		p := models.Participant{
			ID:          lead.ID,
			Name:        lead.PlayerName,
			Type:        models.ParticipantTrial,
			AgeCategory: lead.PlayerAgeCategory,
		}
		s.fillHistoryFields(&p)
		participants = append(participants, p)
	}
	for _, student := range students {
		p := models.Participant{
			ID:          student.ID,
			Name:        student.PlayerName,
			Type:        models.ParticipantStudent,
			AgeCategory: student.AgeCategory,
		}
		s.fillHistoryFields(&p)
		participants = append(participants, p)
	}
	return participants, nil
}

// fillHistoryFields derives streak and last-seen from the participant's mark
// history. Best effort: a failed lookup leaves the display fields zeroed.
func (s *AttendanceService) fillHistoryFields(p *models.Participant) {
	history, err := s.attendanceRepo.HistoryByParticipant(p.ID)
	if err != nil || len(history) == 0 {
		return
	}

	for _, rec := range history {
		if rec.Status == models.AttendancePresent {
			p.LastSeenAt = models.NewNullTime(rec.Date)
			break
		}
	}

	// History is newest first; the streak is the run of Present marks at
	// the head.
	for _, rec := range history {
		if rec.Status != models.AttendancePresent {
			break
		}
		p.Streak++
	}
}

// CheckInInput is one attendance mark.
type CheckInInput struct {
	BatchID         uuid.UUID
	ParticipantID   uuid.UUID
	ParticipantType string
	Date            time.Time
	Status          string
}

// CheckIn records one mark. The participant must be on the batch's eligible
// roster; re-marking the same day overwrites the earlier mark.
func (s *AttendanceService) CheckIn(markedBy uuid.UUID, in CheckInInput) (*models.AttendanceRecord, error) {
	if !models.IsValidAttendanceStatus(in.Status) {
		return nil, fmt.Errorf("unknown attendance status %q", in.Status)
	}
	if in.Date.IsZero() {
		in.Date = time.Now().Truncate(24 * time.Hour)
	}

	eligible, err := s.isEligible(in.BatchID, in.ParticipantID, in.ParticipantType)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrNotEligible
	}

	rec := &models.AttendanceRecord{
		BatchID:         in.BatchID,
		ParticipantID:   in.ParticipantID,
		ParticipantType: in.ParticipantType,
		Date:            in.Date,
		Status:          in.Status,
		MarkedBy:        markedBy,
	}
	if err := s.attendanceRepo.Upsert(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *AttendanceService) isEligible(batchID, participantID uuid.UUID, participantType string) (bool, error) {
	switch participantType {
	case models.ParticipantTrial:
		lead, err := s.leadRepo.GetByID(participantID)
		if err != nil {
			return false, err
		}
		// Only leads still in Trial Scheduled are on the roster; a lead
		// that joined or went dead keeps its trial_batch_id but is no
		// longer markable.
		return lead != nil && lead.Status == funnel.StatusTrialScheduled &&
			lead.TrialBatchID.Valid && lead.TrialBatchID.String == batchID.String(), nil

	case models.ParticipantStudent:
		student, err := s.studentRepo.GetByID(participantID)
		if err != nil {
			return false, err
		}
		return student != nil && student.Active && student.BatchIDs.Contains(batchID.String()), nil
	}
	return false, fmt.Errorf("unknown participant type %q", participantType)
}

// History retrieves a participant's marks, newest first.
func (s *AttendanceService) History(participantID uuid.UUID) ([]models.AttendanceRecord, error) {
	return s.attendanceRepo.HistoryByParticipant(participantID)
}

// SheetForDate retrieves every mark for a batch on one day.
func (s *AttendanceService) SheetForDate(batchID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error) {
	return s.attendanceRepo.ListByBatchDate(batchID, date)
}

// milestoneThresholds maps Present-mark counts to profile milestones, in
// ascending order.
var milestoneThresholds = []struct {
	count int
	code  string
	label string
}{
	{1, "first_session", "First session attended"},
	{10, "sessions_10", "10 sessions attended"},
	{25, "sessions_25", "25 sessions attended"},
	{50, "sessions_50", "50 sessions attended"},
	{100, "sessions_100", "100 sessions attended"},
}

// Milestones derives a student's attendance milestones from their Present
// marks.
func (s *AttendanceService) Milestones(studentID uuid.UUID) ([]models.Milestone, error) {
	history, err := s.attendanceRepo.HistoryByParticipant(studentID)
	if err != nil {
		return nil, err
	}

	// Count Present marks oldest first so each threshold gets the date it
	// was crossed.
	presentDates := []time.Time{}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Status == models.AttendancePresent {
			presentDates = append(presentDates, history[i].Date)
		}
	}

	milestones := []models.Milestone{}
	for _, t := range milestoneThresholds {
		if len(presentDates) >= t.count {
			milestones = append(milestones, models.Milestone{
				Code:       t.code,
				Label:      t.label,
				AchievedAt: presentDates[t.count-1],
			})
		}
	}
	return milestones, nil
}
