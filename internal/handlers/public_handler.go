package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tofa/academy-backend/internal/services"
)

// PublicFormHandler serves the unauthenticated parent forms. Everything is
// addressed by an unguessable token; there is no session and no lead id in
// the URL.
type PublicFormHandler struct {
	formService *services.PublicFormService
}

// NewPublicFormHandler creates a new public form handler
func NewPublicFormHandler(formService *services.PublicFormService) *PublicFormHandler {
	return &PublicFormHandler{formService: formService}
}

// SubmitPreferencesRequest is the parent's scheduling preference submission.
type SubmitPreferencesRequest struct {
	PreferredDays []string `json:"preferred_days" binding:"required,min=1"`
	PreferredTime string   `json:"preferred_time"`
	Notes         string   `json:"notes"`
}

// SubmitFeedbackRequest is the parent's post-trial feedback submission.
type SubmitFeedbackRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Comments string `json:"comments"`
}

// GetPreferences handles GET /public/lead-preferences/:token
func (h *PublicFormHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.formService.GetPreferences(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// SubmitPreferences handles PUT /public/lead-preferences/:token
func (h *PublicFormHandler) SubmitPreferences(c *gin.Context) {
	var req SubmitPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "preferred_days is required")
		return
	}

	prefs, err := h.formService.SubmitPreferences(c.Param("token"), services.SubmitPreferencesInput{
		PreferredDays: req.PreferredDays,
		PreferredTime: req.PreferredTime,
		Notes:         req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// GetFeedback handles GET /public/lead-feedback/:token
func (h *PublicFormHandler) GetFeedback(c *gin.Context) {
	feedback, err := h.formService.GetFeedback(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// SubmitFeedback handles PUT /public/lead-feedback/:token
func (h *PublicFormHandler) SubmitFeedback(c *gin.Context) {
	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "rating must be between 1 and 5")
		return
	}

	feedback, err := h.formService.SubmitFeedback(c.Param("token"), req.Rating, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}
