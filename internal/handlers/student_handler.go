package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/services"
	"github.com/tofa/academy-backend/internal/utils"
)

// StudentHandler exposes enrolled-student reads, milestones, payment
// verification and the welcome email.
type StudentHandler struct {
	studentService    *services.StudentService
	attendanceService *services.AttendanceService
	audit             *services.AuditService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(
	studentService *services.StudentService,
	attendanceService *services.AttendanceService,
	audit *services.AuditService,
) *StudentHandler {
	return &StudentHandler{
		studentService:    studentService,
		attendanceService: attendanceService,
		audit:             audit,
	}
}

// UpdateStudentRequest edits the non-sensitive student fields. Center, batch,
// subscription and deactivation changes go through the approval workflow.
type UpdateStudentRequest struct {
	PlayerName string `json:"player_name" binding:"required"`
}

// VerifyPaymentRequest carries the payment evidence.
type VerifyPaymentRequest struct {
	UTRNumber       string `json:"utr_number" binding:"required"`
	PaymentProofURL string `json:"payment_proof_url"`
	Amount          string `json:"amount"`
}

// List handles GET /api/v1/students
func (h *StudentHandler) List(c *gin.Context) {
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

	activeOnly := c.DefaultQuery("active", "true") != "false"

	students, err := h.studentService.List(centerID, activeOnly)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("failed to list students")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"students": students, "count": len(students)})
}

// Get handles GET /api/v1/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// Update handles PUT /api/v1/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "player_name is required")
		return
	}

	student, err := h.studentService.UpdateDetails(id, req.PlayerName)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// Milestones handles GET /api/v1/students/:id/milestones
func (h *StudentHandler) Milestones(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Existence check first so an unknown id is a 404, not an empty list.
	if _, err := h.studentService.Get(id); err != nil {
		respondServiceError(c, err)
		return
	}

	milestones, err := h.attendanceService.Milestones(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// VerifyPayment handles POST /api/v1/students/:id/verify-payment
func (h *StudentHandler) VerifyPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "utr_number is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)

	student, err := h.studentService.VerifyPayment(id, userCtx.UserID, services.VerifyPaymentInput{
		UTRNumber:       req.UTRNumber,
		PaymentProofURL: req.PaymentProofURL,
		Amount:          req.Amount,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.LogPaymentVerified(userCtx.UserID, student.ID, utils.GetRealIP(c))

	c.JSON(http.StatusOK, student)
}

// SendWelcomeEmail handles POST /api/v1/students/:id/send-welcome-email
func (h *StudentHandler) SendWelcomeEmail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.SendWelcomeEmail(id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Welcome email sent"})
}
