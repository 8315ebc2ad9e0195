package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/services"
)

// AttendanceHandler exposes session check-ins and mark history.
type AttendanceHandler struct {
	attendanceService *services.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// CheckInRequest is one attendance mark.
type CheckInRequest struct {
	BatchID         string `json:"batch_id" binding:"required,uuid"`
	ParticipantID   string `json:"participant_id" binding:"required,uuid"`
	ParticipantType string `json:"participant_type" binding:"required"`
	Date            string `json:"date"` // YYYY-MM-DD, today when omitted
	Status          string `json:"status" binding:"required"`
}

// CheckIn handles POST /api/v1/attendance/check-in
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	batchID, _ := uuid.Parse(req.BatchID)
	participantID, _ := uuid.Parse(req.ParticipantID)

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondValidationError(c, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	userCtx := middleware.MustGetUserContext(c)

	rec, err := h.attendanceService.CheckIn(userCtx.UserID, services.CheckInInput{
		BatchID:         batchID,
		ParticipantID:   participantID,
		ParticipantType: req.ParticipantType,
		Date:            date,
		Status:          req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// History handles GET /api/v1/attendance/history/:participantId
func (h *AttendanceHandler) History(c *gin.Context) {
	participantID, ok := parseIDParam(c, "participantId")
	if !ok {
		return
	}

	history, err := h.attendanceService.History(participantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": history, "count": len(history)})
}

// Sheet handles GET /api/v1/attendance/batch/:batchId
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	batchID, ok := parseIDParam(c, "batchId")
	if !ok {
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondValidationError(c, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	records, err := h.attendanceService.SheetForDate(batchID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}
