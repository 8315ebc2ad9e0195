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
	"github.com/tofa/academy-backend/pkg/mailer"
)

var userTestColumns = []string{
	"id", "email", "password_hash", "full_name", "role", "center_ids",
	"active", "last_login_at", "created_at", "updated_at",
}

func newStudentService(mockDB *mockDatabase) *StudentService {
	notification := NewNotificationService(
		database.NewNotificationRepository(mockDB),
		database.NewUserRepository(mockDB),
	)
	return NewStudentService(
		database.NewStudentRepository(mockDB),
		database.NewLeadRepository(mockDB),
		mailer.NewLogMailer(),
		notification,
	)
}

func unverifiedStudentRow(id uuid.UUID, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(studentTestColumns).AddRow(
		id, uuid.New(), name, "center-1", []byte("{}"), true,
		now.AddDate(-10, 0, 0), "U11", "quarterly", now,
		nil, nil, nil, false,
		nil, nil, false,
		now, now,
	)
}

func TestVerifyPayment_NotifiesTeamLeads(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newStudentService(mockDB)

	studentID := uuid.New()
	verifierID := uuid.New()
	teamLeadID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM students WHERE id`).
		WithArgs(studentID).
		WillReturnRows(unverifiedStudentRow(studentID, "Kabir Mehta"))

	mock.ExpectExec(`UPDATE students`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE role`).
		WithArgs(models.RoleTeamLead, "center-1").
		WillReturnRows(sqlmock.NewRows(userTestColumns).AddRow(
			teamLeadID, "lead@academy.example", "hash", "Priya Nair", models.RoleTeamLead, []byte("{}"),
			true, nil, now, now,
		))

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(sqlmock.AnyArg(), teamLeadID, models.NotificationPayment,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	mock.ExpectQuery(`SELECT (.+) FROM students WHERE id`).
		WithArgs(studentID).
		WillReturnRows(studentRow(studentID, "Kabir Mehta", "{}"))

	student, err := service.VerifyPayment(studentID, verifierID, VerifyPaymentInput{
		UTRNumber: "UTR123456",
		Amount:    "4500",
	})
	require.NoError(t, err)
	assert.True(t, student.PaymentVerified)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPayment_AlreadyVerified(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newStudentService(mockDB)

	studentID := uuid.New()

	// studentRow marks the payment verified; no update and no
	// notification may follow.
	mock.ExpectQuery(`SELECT (.+) FROM students WHERE id`).
		WithArgs(studentID).
		WillReturnRows(studentRow(studentID, "Kabir Mehta", "{}"))

	_, err := service.VerifyPayment(studentID, uuid.New(), VerifyPaymentInput{
		UTRNumber: "UTR123456",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already verified")

	assert.NoError(t, mock.ExpectationsWereMet())
}
