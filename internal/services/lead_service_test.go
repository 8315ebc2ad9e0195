package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/pkg/funnel"
)

var leadTestColumns = []string{
	"id", "player_name", "parent_name", "phone", "email", "status",
	"player_age_category", "date_of_birth", "next_followup_date", "center_id",
	"trial_batch_id", "permanent_batch_id", "subscription_plan",
	"subscription_start", "subscription_end", "loss_reason", "score",
	"reschedule_count", "do_not_contact", "source", "first_contacted_at",
	"created_at", "updated_at",
}

var batchTestColumns = []string{
	"id", "name", "center_id", "age_category", "schedule", "capacity",
	"coach_id", "active", "created_at", "updated_at",
}

func leadRow(id uuid.UUID, name, phone string, status funnel.Status, trialBatchID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(leadTestColumns).AddRow(
		id, name, "Parent", phone, "parent@example.com", string(status),
		"U11", now.AddDate(-10, 0, 0), nil, "center-1",
		trialBatchID, nil, nil,
		nil, nil, nil, 3,
		0, false, "walk-in", nil,
		now, now,
	)
}

func newLeadService(mockDB *mockDatabase) *LeadService {
	notification := NewNotificationService(
		database.NewNotificationRepository(mockDB),
		database.NewUserRepository(mockDB),
	)
	return NewLeadService(
		database.NewLeadRepository(mockDB),
		database.NewStudentRepository(mockDB),
		database.NewBatchRepository(mockDB),
		notification,
	)
}

func TestCreateLead_DuplicatePhone(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newLeadService(mockDB)

	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE phone`).
		WithArgs("9876543210").
		WillReturnRows(leadRow(uuid.New(), "Existing Player", "9876543210", funnel.StatusCalled, nil))

	_, err := service.Create(CreateLeadInput{
		PlayerName: "Aarav Sharma",
		Phone:      "+91 98765 43210",
	})
	assert.ErrorIs(t, err, ErrLeadExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLead_InvalidPhone(t *testing.T) {
	mockDB, _, closeDB := newMockDB(t)
	defer closeDB()

	service := newLeadService(mockDB)

	_, err := service.Create(CreateLeadInput{
		PlayerName: "Aarav Sharma",
		Phone:      "12345",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid phone")
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newLeadService(mockDB)

	leadID := uuid.New()

	// A New lead cannot jump straight to Joined.
	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id`).
		WithArgs(leadID).
		WillReturnRows(leadRow(leadID, "Aarav Sharma", "9876543210", funnel.StatusNew, nil))

	_, err := service.UpdateStatus(leadID, uuid.New(), StatusChangeInput{
		NewStatus: funnel.StatusJoined,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_DeadIsAbsorbing(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newLeadService(mockDB)

	leadID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id`).
		WithArgs(leadID).
		WillReturnRows(leadRow(leadID, "Aarav Sharma", "9876543210", funnel.StatusDead, nil))

	_, err := service.UpdateStatus(leadID, uuid.New(), StatusChangeInput{
		NewStatus: funnel.StatusCalled,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_JoinRequiresBatch(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newLeadService(mockDB)

	leadID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id`).
		WithArgs(leadID).
		WillReturnRows(leadRow(leadID, "Aarav Sharma", "9876543210", funnel.StatusTrialAttended, nil))

	_, err := service.UpdateStatus(leadID, uuid.New(), StatusChangeInput{
		NewStatus: funnel.StatusJoined,
	})
	assert.ErrorIs(t, err, ErrBatchRequired)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_JoinCapacityReached(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newLeadService(mockDB)

	leadID := uuid.New()
	batchID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id`).
		WithArgs(leadID).
		WillReturnRows(leadRow(leadID, "Aarav Sharma", "9876543210", funnel.StatusTrialAttended, nil))

	// Batch of capacity 15, already full.
	mock.ExpectQuery(`SELECT (.+) FROM batches WHERE id`).
		WithArgs(batchID).
		WillReturnRows(sqlmock.NewRows(batchTestColumns).AddRow(
			batchID, "U11 Evening", "center-1", "U11", "Tue/Thu 17:00-18:30", 15,
			nil, true, now, now,
		))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WithArgs(batchID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))

	_, err := service.UpdateStatus(leadID, uuid.New(), StatusChangeInput{
		NewStatus:        funnel.StatusJoined,
		PermanentBatchID: batchID.String(),
	})
	assert.ErrorIs(t, err, ErrCapacityReached)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_RescheduleBumpsCounter(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newLeadService(mockDB)

	leadID := uuid.New()
	newDate := time.Now().Add(72 * time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id`).
		WithArgs(leadID).
		WillReturnRows(leadRow(leadID, "Aarav Sharma", "9876543210", funnel.StatusTrialScheduled, uuid.New().String()))

	mock.ExpectQuery(`UPDATE leads`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	lead, err := service.UpdateStatus(leadID, uuid.New(), StatusChangeInput{
		NewStatus:        funnel.StatusTrialScheduled,
		NextFollowupDate: &newDate,
		Reschedule:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, lead.RescheduleCount)
	assert.Equal(t, funnel.StatusTrialScheduled, lead.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_FirstContactStampedOnce(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newLeadService(mockDB)

	leadID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id`).
		WithArgs(leadID).
		WillReturnRows(leadRow(leadID, "Aarav Sharma", "9876543210", funnel.StatusNew, nil))

	mock.ExpectQuery(`UPDATE leads`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	lead, err := service.UpdateStatus(leadID, uuid.New(), StatusChangeInput{
		NewStatus: funnel.StatusCalled,
	})
	require.NoError(t, err)
	assert.True(t, lead.FirstContactedAt.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}
