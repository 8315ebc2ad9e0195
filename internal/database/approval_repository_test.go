package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tofa/academy-backend/internal/models"
)

var approvalTestColumns = []string{
	"id", "request_type", "lead_id", "student_id", "current_value",
	"requested_value", "reason", "requested_by", "status", "resolved_by",
	"resolved_at", "resolution_note", "created_at",
}

func TestCreateApprovalRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewApprovalRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		req := &models.ApprovalRequest{
			RequestType:    models.RequestDateOfBirth,
			LeadID:         uuid.NullUUID{UUID: uuid.New(), Valid: true},
			RequestedValue: "2015-06-01",
			Reason:         "parent corrected the form",
			RequestedBy:    uuid.New(),
		}

		mock.ExpectQuery(`INSERT INTO approval_requests`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

		err := repo.Create(req)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, req.ID)
		assert.Equal(t, models.ApprovalPending, req.Status)
		assert.Equal(t, now, req.CreatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		req := &models.ApprovalRequest{
			RequestType:    models.RequestDeactivate,
			RequestedValue: "true",
			RequestedBy:    uuid.New(),
		}

		mock.ExpectQuery(`INSERT INTO approval_requests`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(req)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create approval request")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetApprovalByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewApprovalRepository(mockDB)

	t.Run("Pending Request", func(t *testing.T) {
		reqID := uuid.New()
		leadID := uuid.New()
		requestedBy := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM approval_requests WHERE id`).
			WithArgs(reqID).
			WillReturnRows(sqlmock.NewRows(approvalTestColumns).AddRow(
				reqID, models.RequestStatusReversal, leadID, nil, "Trial Scheduled",
				"Called", "called by mistake", requestedBy, "pending", nil,
				nil, nil, now,
			))

		req, err := repo.GetByID(reqID)
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, reqID, req.ID)
		assert.Equal(t, models.RequestStatusReversal, req.RequestType)
		assert.False(t, req.IsResolved())
		assert.Equal(t, leadID, req.LeadID.UUID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		reqID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM approval_requests WHERE id`).
			WithArgs(reqID).
			WillReturnError(sql.ErrNoRows)

		req, err := repo.GetByID(reqID)
		require.NoError(t, err)
		assert.Nil(t, req)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkResolved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewApprovalRepository(mockDB)

	t.Run("First Resolution Wins", func(t *testing.T) {
		reqID := uuid.New()
		resolvedBy := uuid.New()

		mock.ExpectExec(`UPDATE approval_requests`).
			WithArgs(reqID, models.ApprovalApproved, resolvedBy, "", models.ApprovalPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.MarkResolved(reqID, models.ApprovalApproved, resolvedBy, "")
		require.NoError(t, err)
		assert.True(t, ok)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second Resolution Affects No Rows", func(t *testing.T) {
		reqID := uuid.New()
		resolvedBy := uuid.New()

		mock.ExpectExec(`UPDATE approval_requests`).
			WithArgs(reqID, models.ApprovalRejected, resolvedBy, "too late", models.ApprovalPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.MarkResolved(reqID, models.ApprovalRejected, resolvedBy, "too late")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		reqID := uuid.New()
		resolvedBy := uuid.New()

		mock.ExpectExec(`UPDATE approval_requests`).
			WithArgs(reqID, models.ApprovalApproved, resolvedBy, "", models.ApprovalPending).
			WillReturnError(fmt.Errorf("database error"))

		ok, err := repo.MarkResolved(reqID, models.ApprovalApproved, resolvedBy, "")
		assert.Error(t, err)
		assert.False(t, ok)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHasPendingForTarget(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewApprovalRepository(mockDB)

	t.Run("Duplicate Pending Exists", func(t *testing.T) {
		leadID := uuid.NullUUID{UUID: uuid.New(), Valid: true}

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(models.RequestDateOfBirth, models.ApprovalPending, leadID, uuid.NullUUID{}).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.HasPendingForTarget(models.RequestDateOfBirth, leadID, uuid.NullUUID{})
		require.NoError(t, err)
		assert.True(t, exists)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Pending", func(t *testing.T) {
		leadID := uuid.NullUUID{UUID: uuid.New(), Valid: true}

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(models.RequestCenterTransfer, models.ApprovalPending, leadID, uuid.NullUUID{}).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.HasPendingForTarget(models.RequestCenterTransfer, leadID, uuid.NullUUID{})
		require.NoError(t, err)
		assert.False(t, exists)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListApprovals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewApprovalRepository(mockDB)

	t.Run("Pending Only", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM approval_requests`).
			WithArgs("pending").
			WillReturnRows(sqlmock.NewRows(approvalTestColumns).
				AddRow(uuid.New(), models.RequestDateOfBirth, uuid.New(), nil, nil,
					"2015-06-01", "typo", uuid.New(), "pending", nil, nil, nil, now).
				AddRow(uuid.New(), models.RequestDeactivate, nil, uuid.New(), nil,
					"true", "moved away", uuid.New(), "pending", nil, nil, nil, now))

		requests, err := repo.List("pending")
		require.NoError(t, err)
		assert.Len(t, requests, 2)
		assert.Equal(t, models.RequestDateOfBirth, requests[0].RequestType)
		assert.True(t, requests[1].StudentID.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Result", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM approval_requests`).
			WithArgs("rejected").
			WillReturnRows(sqlmock.NewRows(approvalTestColumns))

		requests, err := repo.List("rejected")
		require.NoError(t, err)
		assert.Len(t, requests, 0)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
