package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/internal/services"
	"github.com/tofa/academy-backend/internal/utils"
	"github.com/tofa/academy-backend/pkg/funnel"
)

// LeadHandler exposes the lead funnel: CRUD, status moves, CSV import and
// the parent form links.
type LeadHandler struct {
	leadService   *services.LeadService
	importService *services.ImportService
	formService   *services.PublicFormService
	audit         *services.AuditService
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(
	leadService *services.LeadService,
	importService *services.ImportService,
	formService *services.PublicFormService,
	audit *services.AuditService,
) *LeadHandler {
	return &LeadHandler{
		leadService:   leadService,
		importService: importService,
		formService:   formService,
		audit:         audit,
	}
}

// CreateLeadRequest is the new-lead payload.
type CreateLeadRequest struct {
	PlayerName   string `json:"player_name" binding:"required"`
	ParentName   string `json:"parent_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	DateOfBirth  string `json:"date_of_birth"` // YYYY-MM-DD
	CenterID     string `json:"center_id"`
	Score        int    `json:"score" binding:"min=0,max=5"`
	Source       string `json:"source"`
	DoNotContact bool   `json:"do_not_contact"`
}

// UpdateLeadRequest edits the non-funnel lead fields.
type UpdateLeadRequest struct {
	PlayerName   string `json:"player_name"`
	ParentName   string `json:"parent_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	DateOfBirth  string `json:"date_of_birth"`
	CenterID     string `json:"center_id"`
	Score        int    `json:"score" binding:"min=0,max=5"`
	Source       string `json:"source"`
	DoNotContact bool   `json:"do_not_contact"`
}

// StatusChangeRequest is one funnel move.
type StatusChangeRequest struct {
	Status           string `json:"status" binding:"required"`
	NextFollowupDate string `json:"next_followup_date"` // YYYY-MM-DD
	TrialBatchID     string `json:"trial_batch_id"`
	PermanentBatchID string `json:"permanent_batch_id"`
	LossReason       string `json:"loss_reason"`
	SubscriptionPlan string `json:"subscription_plan"`
	Reschedule       bool   `json:"reschedule"`
}

// FormTokenRequest asks for a parent form link.
type FormTokenRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// CommitUploadRequest commits a previewed import job.
type CommitUploadRequest struct {
	JobID string `json:"job_id" binding:"required"`
}

// List handles GET /api/v1/leads
func (h *LeadHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	centerID := c.Query("center_id")
	if centerID != "" && !userCtx.CanAccessCenter(centerID) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "You do not have access to this center",
			Code:    "CENTER_ACCESS_DENIED",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	leads, err := h.leadService.List(database.LeadFilter{
		Status:   c.Query("status"),
		CenterID: centerID,
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		logrus.WithField("error", err.Error()).Error("failed to list leads")
		respondServiceError(c, err)
		return
	}

	maskForRole(leads, userCtx.Role)

	c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
}

// Get handles GET /api/v1/leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	lead, err := h.leadService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	if roleSeesMaskedContact(userCtx.Role) {
		lead.MaskContact()
	}

	c.JSON(http.StatusOK, lead)
}

// Create handles POST /api/v1/leads
func (h *LeadHandler) Create(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	dob, ok := parseOptionalDate(c, req.DateOfBirth, "date_of_birth")
	if !ok {
		return
	}

	lead, err := h.leadService.Create(services.CreateLeadInput{
		PlayerName:   req.PlayerName,
		ParentName:   req.ParentName,
		Phone:        req.Phone,
		Email:        req.Email,
		DateOfBirth:  dob,
		CenterID:     req.CenterID,
		Score:        req.Score,
		Source:       req.Source,
		DoNotContact: req.DoNotContact,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lead)
}

// Update handles PUT /api/v1/leads/:id
func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	dob, ok := parseOptionalDate(c, req.DateOfBirth, "date_of_birth")
	if !ok {
		return
	}

	lead, err := h.leadService.UpdateDetails(id, services.UpdateDetailsInput{
		PlayerName:   req.PlayerName,
		ParentName:   req.ParentName,
		Phone:        req.Phone,
		Email:        req.Email,
		DateOfBirth:  dob,
		CenterID:     req.CenterID,
		Score:        req.Score,
		Source:       req.Source,
		DoNotContact: req.DoNotContact,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lead)
}

// UpdateStatus handles PUT /api/v1/leads/:id/status
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	followup, ok := parseOptionalDate(c, req.NextFollowupDate, "next_followup_date")
	if !ok {
		return
	}

	userCtx := middleware.MustGetUserContext(c)

	before, err := h.leadService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	from := before.Status

	lead, err := h.leadService.UpdateStatus(id, userCtx.UserID, services.StatusChangeInput{
		NewStatus:        funnel.Status(req.Status),
		NextFollowupDate: followup,
		TrialBatchID:     req.TrialBatchID,
		PermanentBatchID: req.PermanentBatchID,
		LossReason:       req.LossReason,
		SubscriptionPlan: req.SubscriptionPlan,
		Reschedule:       req.Reschedule,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.LogLeadStatusChange(userCtx.UserID, lead.ID, string(from), string(lead.Status), utils.GetRealIP(c))

	c.JSON(http.StatusOK, lead)
}

// PreviewUpload handles POST /api/v1/leads/preview-upload (multipart)
func (h *LeadHandler) PreviewUpload(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondValidationError(c, "a CSV file is required")
		return
	}
	defer file.Close()

	// An optional JSON object mapping CSV headers to lead fields.
	var mapping map[string]string
	if raw := c.PostForm("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			respondValidationError(c, "mapping must be a JSON object of header -> field")
			return
		}
	}

	result, err := h.importService.Preview(userCtx.UserID, header.Filename, file, mapping)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// CommitUpload handles POST /api/v1/leads/upload
func (h *LeadHandler) CommitUpload(c *gin.Context) {
	var req CommitUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "job_id is required")
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		respondValidationError(c, "job_id must be a UUID")
		return
	}

	result, err := h.importService.Commit(jobID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// IssueFormToken handles POST /api/v1/leads/:id/form-token
func (h *LeadHandler) IssueFormToken(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FormTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "kind is required")
		return
	}

	token, err := h.formService.IssueToken(id, req.Kind)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, token)
}

// roleSeesMaskedContact reports whether the role must not see parent contact
// details.
func roleSeesMaskedContact(role string) bool {
	return role == models.RoleCoach || role == models.RoleObserver
}

func maskForRole(leads []models.Lead, role string) {
	if !roleSeesMaskedContact(role) {
		return
	}
	for i := range leads {
		leads[i].MaskContact()
	}
}

// parseIDParam parses a UUID path parameter, responding 400 on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondValidationError(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalDate parses an optional YYYY-MM-DD field, responding 400 on a
// malformed value.
func parseOptionalDate(c *gin.Context, value, name string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		respondValidationError(c, name+" must be YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}
