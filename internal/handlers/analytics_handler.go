package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/services"
)

// AnalyticsHandler exposes the command-center dashboard and funnel metrics.
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// scopedCenterID resolves the center filter, rejecting centers outside the
// caller's scope.
func scopedCenterID(c *gin.Context) (string, bool) {
	userCtx := middleware.MustGetUserContext(c)

	centerID := c.Query("center_id")
	if centerID != "" && !userCtx.CanAccessCenter(centerID) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "You do not have access to this center",
			Code:    "CENTER_ACCESS_DENIED",
		})
		return "", false
	}
	return centerID, true
}

// CommandCenter handles GET /api/v1/analytics/command-center
func (h *AnalyticsHandler) CommandCenter(c *gin.Context) {
	centerID, ok := scopedCenterID(c)
	if !ok {
		return
	}

	dashboard, err := h.analyticsService.CommandCenterCounts(centerID)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("failed to build command center")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// ConversionRates handles GET /api/v1/analytics/conversion-rates
func (h *AnalyticsHandler) ConversionRates(c *gin.Context) {
	centerID, ok := scopedCenterID(c)
	if !ok {
		return
	}

	rates, err := h.analyticsService.ConversionRates(centerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stages": rates})
}

// TimeToContact handles GET /api/v1/analytics/time-to-contact
func (h *AnalyticsHandler) TimeToContact(c *gin.Context) {
	centerID, ok := scopedCenterID(c)
	if !ok {
		return
	}

	metric, err := h.analyticsService.AverageTimeToContact(centerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, metric)
}
