package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/services"
	"github.com/tofa/academy-backend/internal/utils"
)

// ApprovalHandler exposes the request-and-sign-off workflow.
type ApprovalHandler struct {
	approvalService *services.ApprovalService
	audit           *services.AuditService
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvalService *services.ApprovalService, audit *services.AuditService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService, audit: audit}
}

// CreateApprovalRequest files a new pending request.
type CreateApprovalRequest struct {
	RequestType    string `json:"request_type" binding:"required"`
	LeadID         string `json:"lead_id"`
	StudentID      string `json:"student_id"`
	RequestedValue string `json:"requested_value"`
	Reason         string `json:"reason" binding:"required"`
}

// ResolveApprovalRequest decides a pending request.
type ResolveApprovalRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Note    string `json:"note"`
}

// List handles GET /api/v1/approvals
func (h *ApprovalHandler) List(c *gin.Context) {
	requests, err := h.approvalService.List(c.Query("status"))
	if err != nil {
		logrus.WithField("error", err.Error()).Error("failed to list approval requests")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// Get handles GET /api/v1/approvals/:id
func (h *ApprovalHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	req, err := h.approvalService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Create handles POST /api/v1/approvals
func (h *ApprovalHandler) Create(c *gin.Context) {
	var req CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	input := services.CreateRequestInput{
		RequestType:    req.RequestType,
		RequestedValue: req.RequestedValue,
		Reason:         req.Reason,
	}
	if req.LeadID != "" {
		leadID, err := uuid.Parse(req.LeadID)
		if err != nil {
			respondValidationError(c, "lead_id must be a UUID")
			return
		}
		input.LeadID = &leadID
	}
	if req.StudentID != "" {
		studentID, err := uuid.Parse(req.StudentID)
		if err != nil {
			respondValidationError(c, "student_id must be a UUID")
			return
		}
		input.StudentID = &studentID
	}

	userCtx := middleware.MustGetUserContext(c)

	created, err := h.approvalService.Create(userCtx.UserID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Resolve handles POST /api/v1/approvals/:id/resolve
func (h *ApprovalHandler) Resolve(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "approve is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)

	resolved, err := h.approvalService.Resolve(id, userCtx.UserID, *req.Approve, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.LogApprovalResolved(
		userCtx.UserID, resolved.ID, resolved.RequestType, resolved.Status, utils.GetRealIP(c),
	)

	c.JSON(http.StatusOK, resolved)
}
