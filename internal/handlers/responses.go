package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tofa/academy-backend/internal/services"
)

// ErrorResponse is the error envelope every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SuccessResponse is the generic acknowledgement envelope.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// respondServiceError maps the service-layer sentinel errors onto HTTP
// statuses and stable machine-readable codes.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "The requested record does not exist",
		})
	case errors.Is(err, services.ErrLeadExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: "A lead with this phone already exists",
			Code:    "LEAD_EXISTS",
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_transition",
			Message: err.Error(),
			Code:    "INVALID_TRANSITION",
		})
	case errors.Is(err, services.ErrBatchRequired):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "batch_required",
			Message: "A permanent batch must be assigned before a lead can join",
			Code:    "BATCH_REQUIRED",
		})
	case errors.Is(err, services.ErrCapacityReached):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "capacity_reached",
			Message: "The batch is full",
			Code:    "CAPACITY_REACHED",
		})
	case errors.Is(err, services.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "already_resolved",
			Message: "This request was already decided",
			Code:    "ALREADY_RESOLVED",
		})
	case errors.Is(err, services.ErrDuplicatePending):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_pending",
			Message: err.Error(),
			Code:    "DUPLICATE_PENDING",
		})
	case errors.Is(err, services.ErrNotEligible):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "not_eligible",
			Message: "The participant is not on this batch's roster",
			Code:    "NOT_ELIGIBLE",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong",
		})
	}
}

// respondValidationError reports a malformed request body or parameter.
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
	})
}
