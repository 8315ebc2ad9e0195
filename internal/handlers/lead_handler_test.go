package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/middleware"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/internal/services"
)

var leadListColumns = []string{
	"id", "player_name", "parent_name", "phone", "email", "status",
	"player_age_category", "date_of_birth", "next_followup_date", "center_id",
	"trial_batch_id", "permanent_batch_id", "subscription_plan",
	"subscription_start", "subscription_end", "loss_reason", "score",
	"reschedule_count", "do_not_contact", "source", "first_contacted_at",
	"created_at", "updated_at",
}

func setupLeadRouter(mockDB *mockDatabase, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	leadService := services.NewLeadService(
		database.NewLeadRepository(mockDB),
		database.NewStudentRepository(mockDB),
		database.NewBatchRepository(mockDB),
		nil,
	)
	handler := NewLeadHandler(leadService, nil, nil, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserContextKey, middleware.UserContext{
			UserID: uuid.New(),
			Email:  "staff@academy.example",
			Role:   role,
		})
		c.Next()
	})
	router.GET("/api/v1/leads", handler.List)
	return router
}

func listLeads(t *testing.T, router *gin.Engine) []map[string]interface{} {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Leads []map[string]interface{} `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Leads
}

func expectLeadList(mock sqlmock.Sqlmock) {
	now := time.Now()
	rows := sqlmock.NewRows(leadListColumns).AddRow(
		uuid.New(), "Aarav Sharma", "Parent", "9876543210", "parent@example.com", "Called",
		"U11", now.AddDate(-10, 0, 0), nil, "center-1",
		nil, nil, nil,
		nil, nil, nil, 3,
		0, false, "walk-in", nil,
		now, now,
	)
	mock.ExpectQuery(`SELECT (.+) FROM leads`).
		WithArgs("", "", "", 100, 0).
		WillReturnRows(rows)
}

func TestListLeads_CoachSeesMaskedContact(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	router := setupLeadRouter(mockDB, models.RoleCoach)
	expectLeadList(mock)

	leads := listLeads(t, router)
	require.Len(t, leads, 1)
	assert.Equal(t, "Aarav Sharma", leads[0]["player_name"])
	assert.Nil(t, leads[0]["phone"])
	assert.Nil(t, leads[0]["email"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLeads_StaffSeesContact(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	router := setupLeadRouter(mockDB, models.RoleTeamMember)
	expectLeadList(mock)

	leads := listLeads(t, router)
	require.Len(t, leads, 1)
	assert.Equal(t, "9876543210", leads[0]["phone"])

	assert.NoError(t, mock.ExpectationsWereMet())
}
