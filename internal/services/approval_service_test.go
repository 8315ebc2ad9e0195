package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
)

var approvalTestColumns = []string{
	"id", "request_type", "lead_id", "student_id", "current_value",
	"requested_value", "reason", "requested_by", "status", "resolved_by",
	"resolved_at", "resolution_note", "created_at",
}

func newApprovalService(mockDB *mockDatabase) *ApprovalService {
	notification := NewNotificationService(
		database.NewNotificationRepository(mockDB),
		database.NewUserRepository(mockDB),
	)
	return NewApprovalService(
		database.NewApprovalRepository(mockDB),
		database.NewLeadRepository(mockDB),
		database.NewStudentRepository(mockDB),
		database.NewBatchRepository(mockDB),
		notification,
	)
}

func TestResolve_AlreadyResolved(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newApprovalService(mockDB)

	reqID := uuid.New()
	resolverID := uuid.New()
	now := time.Now()

	// The request was approved earlier.
	mock.ExpectQuery(`SELECT (.+) FROM approval_requests WHERE id`).
		WithArgs(reqID).
		WillReturnRows(sqlmock.NewRows(approvalTestColumns).AddRow(
			reqID, models.RequestDeactivate, nil, uuid.New(), "active",
			"true", "moved away", uuid.New(), models.ApprovalApproved, uuid.New(),
			now, nil, now,
		))

	_, err := service.Resolve(reqID, resolverID, true, "")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_LosesRace(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newApprovalService(mockDB)

	reqID := uuid.New()
	resolverID := uuid.New()
	now := time.Now()

	// Still pending when loaded...
	mock.ExpectQuery(`SELECT (.+) FROM approval_requests WHERE id`).
		WithArgs(reqID).
		WillReturnRows(sqlmock.NewRows(approvalTestColumns).AddRow(
			reqID, models.RequestDeactivate, nil, uuid.New(), "active",
			"true", "moved away", uuid.New(), models.ApprovalPending, nil,
			nil, nil, now,
		))

	// ...but someone else resolved it between load and update.
	mock.ExpectExec(`UPDATE approval_requests`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := service.Resolve(reqID, resolverID, false, "declining")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_RejectTouchesNothing(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newApprovalService(mockDB)

	reqID := uuid.New()
	studentID := uuid.New()
	requesterID := uuid.New()
	resolverID := uuid.New()
	now := time.Now()

	pendingRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(approvalTestColumns).AddRow(
			reqID, models.RequestDeactivate, nil, studentID, "active",
			"true", "moved away", requesterID, models.ApprovalPending, nil,
			nil, nil, now,
		)
	}

	mock.ExpectQuery(`SELECT (.+) FROM approval_requests WHERE id`).
		WithArgs(reqID).
		WillReturnRows(pendingRow())

	mock.ExpectExec(`UPDATE approval_requests`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Requester gets notified; no student mutation happens.
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	// Final reload.
	mock.ExpectQuery(`SELECT (.+) FROM approval_requests WHERE id`).
		WithArgs(reqID).
		WillReturnRows(sqlmock.NewRows(approvalTestColumns).AddRow(
			reqID, models.RequestDeactivate, nil, studentID, "active",
			"true", "moved away", requesterID, models.ApprovalRejected, resolverID,
			now, "declining", now,
		))

	req, err := service.Resolve(reqID, resolverID, false, "declining")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, req.Status)
	assert.True(t, req.IsResolved())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	mockDB, _, closeDB := newMockDB(t)
	defer closeDB()

	service := newApprovalService(mockDB)

	_, err := service.Create(uuid.New(), CreateRequestInput{
		RequestType:    "RENAME_PLAYER",
		RequestedValue: "x",
		Reason:         "y",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown request type")
}

func TestCreate_RejectsBadDateOfBirth(t *testing.T) {
	mockDB, _, closeDB := newMockDB(t)
	defer closeDB()

	service := newApprovalService(mockDB)

	leadID := uuid.New()
	_, err := service.Create(uuid.New(), CreateRequestInput{
		RequestType:    models.RequestDateOfBirth,
		LeadID:         &leadID,
		RequestedValue: "01/06/2015",
		Reason:         "typo on the form",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestSplitSubscription(t *testing.T) {
	plan, start := splitSubscription("quarterly|2026-01-01")
	assert.Equal(t, "quarterly", plan)
	assert.Equal(t, "2026-01-01", start)

	plan, start = splitSubscription("monthly")
	assert.Equal(t, "monthly", plan)
	assert.Equal(t, "", start)
}

func TestSplitBatchIDs(t *testing.T) {
	ids := splitBatchIDs("a, b ,,c")
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
