package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/services"
)

// mockDatabase adapts a sqlmock connection to the database.DB interface.
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Close() error { return m.db.Close() }
func (m *mockDatabase) Ping() error  { return m.db.Ping() }

func newMockDB(t *testing.T) (*mockDatabase, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &mockDatabase{db: db}, mock, func() { db.Close() }
}

func setupPublicFormRouter(mockDB *mockDatabase) *gin.Engine {
	gin.SetMode(gin.TestMode)

	formService := services.NewPublicFormService(
		database.NewPublicFormRepository(mockDB),
		database.NewLeadRepository(mockDB),
	)
	handler := NewPublicFormHandler(formService)

	router := gin.New()
	public := router.Group("/public")
	{
		public.GET("/lead-preferences/:token", handler.GetPreferences)
		public.PUT("/lead-preferences/:token", handler.SubmitPreferences)
		public.GET("/lead-feedback/:token", handler.GetFeedback)
		public.PUT("/lead-feedback/:token", handler.SubmitFeedback)
	}
	return router
}

func TestGetPreferences_UnknownToken(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	router := setupPublicFormRouter(mockDB)

	// Expired and unknown tokens both come back empty.
	mock.ExpectQuery(`SELECT (.+) FROM public_form_tokens`).
		WithArgs("bogus-token", "preferences").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/public/lead-preferences/bogus-token", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitFeedback_RatingOutOfRange(t *testing.T) {
	mockDB, _, closeDB := newMockDB(t)
	defer closeDB()

	router := setupPublicFormRouter(mockDB)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(
		http.MethodPut,
		"/public/lead-feedback/some-token",
		strings.NewReader(`{"rating": 9}`),
	)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitFeedback_StoresRating(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	router := setupPublicFormRouter(mockDB)

	leadID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM public_form_tokens`).
		WithArgs("live-token", "feedback").
		WillReturnRows(sqlmock.NewRows([]string{"token", "lead_id", "kind", "created_at", "expires_at"}).
			AddRow("live-token", leadID, "feedback", now, now.Add(time.Hour)))

	mock.ExpectQuery(`INSERT INTO lead_feedback`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(
		http.MethodPut,
		"/public/lead-feedback/live-token",
		strings.NewReader(`{"rating": 4, "comments": "Great first session"}`),
	)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(4), body["rating"])

	assert.NoError(t, mock.ExpectationsWereMet())
}
