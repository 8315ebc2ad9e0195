package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/internal/utils"
)

// formTokenTTL is how long a parent-facing form link stays usable.
const formTokenTTL = 14 * 24 * time.Hour

// PublicFormService owns the unauthenticated parent forms. Forms are
// addressed by unguessable tokens sent to the parent; an unknown or expired
// token is indistinguishable from a missing form.
type PublicFormService struct {
	formRepo *database.PublicFormRepository
	leadRepo *database.LeadRepository
}

// NewPublicFormService creates a new public form service
func NewPublicFormService(formRepo *database.PublicFormRepository, leadRepo *database.LeadRepository) *PublicFormService {
	return &PublicFormService{formRepo: formRepo, leadRepo: leadRepo}
}

// IssueToken creates a form link token for a lead.
func (s *PublicFormService) IssueToken(leadID uuid.UUID, kind string) (*models.PublicFormToken, error) {
	if kind != models.FormKindPreferences && kind != models.FormKindFeedback {
		return nil, fmt.Errorf("unknown form kind %q", kind)
	}

	lead, err := s.leadRepo.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrNotFound
	}

	token, err := utils.GenerateFormToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(formTokenTTL)
	if err := s.formRepo.CreateToken(leadID, kind, token, expiresAt); err != nil {
		return nil, err
	}

	return &models.PublicFormToken{
		Token:     token,
		LeadID:    leadID,
		Kind:      kind,
		ExpiresAt: expiresAt,
	}, nil
}

// resolve maps a token onto its lead, or ErrNotFound.
func (s *PublicFormService) resolve(token, kind string) (uuid.UUID, error) {
	t, err := s.formRepo.GetToken(token, kind)
	if err != nil {
		return uuid.Nil, err
	}
	if t == nil {
		return uuid.Nil, ErrNotFound
	}
	return t.LeadID, nil
}

// GetPreferences loads the preference form state behind a token.
func (s *PublicFormService) GetPreferences(token string) (*models.LeadPreferences, error) {
	leadID, err := s.resolve(token, models.FormKindPreferences)
	if err != nil {
		return nil, err
	}

	prefs, err := s.formRepo.GetPreferences(leadID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = &models.LeadPreferences{LeadID: leadID}
	}
	return prefs, nil
}

// SubmitPreferencesInput is the parent's scheduling preference submission.
type SubmitPreferencesInput struct {
	PreferredDays []string
	PreferredTime string
	Notes         string
}

// SubmitPreferences stores the parent's preferences behind a token.
func (s *PublicFormService) SubmitPreferences(token string, in SubmitPreferencesInput) (*models.LeadPreferences, error) {
	leadID, err := s.resolve(token, models.FormKindPreferences)
	if err != nil {
		return nil, err
	}

	prefs := &models.LeadPreferences{
		LeadID:        leadID,
		PreferredDays: in.PreferredDays,
	}
	if in.PreferredTime != "" {
		prefs.PreferredTime = models.NewNullString(in.PreferredTime)
	}
	if in.Notes != "" {
		prefs.Notes = models.NewNullString(in.Notes)
	}

	if err := s.formRepo.UpsertPreferences(prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// GetFeedback loads the feedback form state behind a token.
func (s *PublicFormService) GetFeedback(token string) (*models.LeadFeedback, error) {
	leadID, err := s.resolve(token, models.FormKindFeedback)
	if err != nil {
		return nil, err
	}

	feedback, err := s.formRepo.GetFeedback(leadID)
	if err != nil {
		return nil, err
	}
	if feedback == nil {
		feedback = &models.LeadFeedback{LeadID: leadID}
	}
	return feedback, nil
}

// SubmitFeedback stores the parent's post-trial feedback behind a token.
func (s *PublicFormService) SubmitFeedback(token string, rating int, comments string) (*models.LeadFeedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	leadID, err := s.resolve(token, models.FormKindFeedback)
	if err != nil {
		return nil, err
	}

	feedback := &models.LeadFeedback{
		LeadID: leadID,
		Rating: rating,
	}
	if comments != "" {
		feedback.Comments = models.NewNullString(comments)
	}

	if err := s.formRepo.UpsertFeedback(feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}
