package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/internal/services"
)

// BatchHandler exposes batch and center administration plus the per-batch
// attendance roster.
type BatchHandler struct {
	batchRepo         *database.BatchRepository
	centerRepo        *database.CenterRepository
	attendanceService *services.AttendanceService
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(
	batchRepo *database.BatchRepository,
	centerRepo *database.CenterRepository,
	attendanceService *services.AttendanceService,
) *BatchHandler {
	return &BatchHandler{
		batchRepo:         batchRepo,
		centerRepo:        centerRepo,
		attendanceService: attendanceService,
	}
}

// CreateBatchRequest is the new-batch payload.
type CreateBatchRequest struct {
	Name        string `json:"name" binding:"required"`
	CenterID    string `json:"center_id" binding:"required"`
	AgeCategory string `json:"age_category" binding:"required"`
	Schedule    string `json:"schedule" binding:"required"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
}

// UpdateBatchRequest edits an existing batch.
type UpdateBatchRequest struct {
	Name        string `json:"name" binding:"required"`
	AgeCategory string `json:"age_category" binding:"required"`
	Schedule    string `json:"schedule" binding:"required"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
	Active      *bool  `json:"active" binding:"required"`
}

// AssignCoachRequest points a batch at its coach.
type AssignCoachRequest struct {
	CoachID string `json:"coach_id" binding:"required,uuid"`
}

// CreateCenterRequest is the new-center payload.
type CreateCenterRequest struct {
	Name string `json:"name" binding:"required"`
	City string `json:"city" binding:"required"`
}

// ListBatches handles GET /api/v1/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
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

	batches, err := h.batchRepo.List(centerID, activeOnly)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("failed to list batches")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches, "count": len(batches)})
}

// GetBatch handles GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.batchRepo.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if batch == nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// CreateBatch handles POST /api/v1/batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	batch := &models.Batch{
		Name:        req.Name,
		CenterID:    req.CenterID,
		AgeCategory: req.AgeCategory,
		Schedule:    req.Schedule,
		Capacity:    req.Capacity,
	}
	if err := h.batchRepo.Create(batch); err != nil {
		logrus.WithField("error", err.Error()).Error("failed to create batch")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// UpdateBatch handles PUT /api/v1/batches/:id
func (h *BatchHandler) UpdateBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	batch, err := h.batchRepo.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if batch == nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}

	batch.Name = req.Name
	batch.AgeCategory = req.AgeCategory
	batch.Schedule = req.Schedule
	batch.Capacity = req.Capacity
	batch.Active = *req.Active

	if err := h.batchRepo.Update(batch); err != nil {
		logrus.WithField("error", err.Error()).Error("failed to update batch")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// AssignCoach handles POST /api/v1/batches/:id/assign-coach
func (h *BatchHandler) AssignCoach(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "coach_id must be a UUID")
		return
	}

	batch, err := h.batchRepo.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if batch == nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}

	coachID, err := uuid.Parse(req.CoachID)
	if err != nil {
		respondValidationError(c, "coach_id must be a UUID")
		return
	}
	if err := h.batchRepo.AssignCoach(id, coachID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Coach assigned"})
}

// Participants handles GET /api/v1/batches/:id/participants
func (h *BatchHandler) Participants(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	participants, err := h.attendanceService.Participants(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants, "count": len(participants)})
}

// ListCenters handles GET /api/v1/centers
func (h *BatchHandler) ListCenters(c *gin.Context) {
	centers, err := h.centerRepo.List()
	if err != nil {
		logrus.WithField("error", err.Error()).Error("failed to list centers")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"centers": centers, "count": len(centers)})
}

// CreateCenter handles POST /api/v1/centers
func (h *BatchHandler) CreateCenter(c *gin.Context) {
	var req CreateCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	center := &models.Center{Name: req.Name, City: req.City}
	if err := h.centerRepo.Create(center); err != nil {
		logrus.WithField("error", err.Error()).Error("failed to create center")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, center)
}
