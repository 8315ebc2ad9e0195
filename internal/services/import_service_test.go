package services

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
)

func newImportService(mockDB *mockDatabase) *ImportService {
	return NewImportService(
		database.NewImportRepository(mockDB),
		database.NewLeadRepository(mockDB),
		1000,
	)
}

func TestPreview_ValidAndInvalidRows(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newImportService(mockDB)

	csv := strings.Join([]string{
		"Player Name,Parent Name,Phone,DOB",
		"Aarav Sharma,Rohit Sharma,9876543210,2015-06-01",
		",Sunita Patel,9812345678,2014-03-12",
		"Kabir Mehta,Anil Mehta,12345,2013-01-20",
	}, "\n")

	mock.ExpectQuery(`INSERT INTO import_jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	result, err := service.Preview(uuid.New(), "leads.csv", strings.NewReader(csv), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Job.RowCount)
	assert.Equal(t, 1, result.Job.ValidCount)
	assert.Equal(t, 2, result.Job.InvalidCount)

	require.Len(t, result.Rows, 3)

	// Row 2: complete and valid.
	assert.True(t, result.Rows[0].Valid)
	require.NotNil(t, result.Rows[0].Lead)
	assert.Equal(t, "Aarav Sharma", result.Rows[0].Lead.PlayerName)
	assert.Equal(t, "9876543210", result.Rows[0].Lead.Phone.String)
	assert.True(t, result.Rows[0].Lead.DateOfBirth.Valid)

	// Row 3: missing the player name.
	assert.False(t, result.Rows[1].Valid)
	assert.Contains(t, result.Rows[1].Errors, "player_name")

	// Row 4: bad phone.
	assert.False(t, result.Rows[2].Valid)
	assert.Contains(t, result.Rows[2].Errors, "phone")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreview_DuplicatePhoneWithinFile(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newImportService(mockDB)

	csv := strings.Join([]string{
		"name,phone",
		"Aarav Sharma,9876543210",
		"Aarav S.,98765 43210",
	}, "\n")

	mock.ExpectQuery(`INSERT INTO import_jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	result, err := service.Preview(uuid.New(), "leads.csv", strings.NewReader(csv), nil)
	require.NoError(t, err)

	assert.True(t, result.Rows[0].Valid)
	assert.False(t, result.Rows[1].Valid)
	assert.Contains(t, result.Rows[1].Errors[0], "duplicates row 2")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreview_PhoneListedOnceAmongOtherErrors(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newImportService(mockDB)

	// A bad phone followed by a bad email must not double-list "phone".
	csv := strings.Join([]string{
		"name,phone,email",
		"Aarav Sharma,12345,not-an-email",
	}, "\n")

	mock.ExpectQuery(`INSERT INTO import_jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	result, err := service.Preview(uuid.New(), "leads.csv", strings.NewReader(csv), nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	assert.False(t, result.Rows[0].Valid)
	assert.Equal(t, []string{"phone", "email"}, result.Rows[0].Errors)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreview_NoPlayerNameColumn(t *testing.T) {
	mockDB, _, closeDB := newMockDB(t)
	defer closeDB()

	service := newImportService(mockDB)

	csv := "phone,email\n9876543210,a@b.example"

	_, err := service.Preview(uuid.New(), "leads.csv", strings.NewReader(csv), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "player_name")
}

func TestPreview_ExplicitMappingOverridesAuto(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newImportService(mockDB)

	csv := "Kid,Mobile No\nAarav Sharma,9876543210"
	mapping := map[string]string{
		"Kid":       "player_name",
		"Mobile No": "phone",
	}

	mock.ExpectQuery(`INSERT INTO import_jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	result, err := service.Preview(uuid.New(), "leads.csv", strings.NewReader(csv), mapping)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.True(t, result.Rows[0].Valid)
	assert.Equal(t, "9876543210", result.Rows[0].Lead.Phone.String)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_SkipsDatabaseDuplicates(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newImportService(mockDB)

	jobID := uuid.New()
	now := time.Now()

	mapping := `["player_name","phone"]`
	rawRows := `[["Aarav Sharma","9876543210"],["Diya Patel","9812345678"]]`

	mock.ExpectQuery(`SELECT (.+) FROM import_jobs WHERE id`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "uploaded_by", "file_name", "mapping", "raw_rows",
			"row_count", "valid_count", "invalid_count", "status", "created_at",
		}).AddRow(jobID, uuid.New(), "leads.csv", mapping, rawRows, 2, 2, 0, models.ImportPreview, now))

	mock.ExpectExec(`UPDATE import_jobs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// First phone already exists; second is new.
	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE phone`).
		WithArgs("9876543210").
		WillReturnRows(leadRow(uuid.New(), "Aarav Sharma", "9876543210", "Called", nil))
	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE phone`).
		WithArgs("9812345678").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO leads`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	result, err := service.Commit(jobID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.LeadsAdded)
	assert.Equal(t, 1, result.DuplicatesSkipped)
	assert.Equal(t, 0, result.InvalidSkipped)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_OnlyOnce(t *testing.T) {
	mockDB, mock, closeDB := newMockDB(t)
	defer closeDB()

	service := newImportService(mockDB)

	jobID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM import_jobs WHERE id`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "uploaded_by", "file_name", "mapping", "raw_rows",
			"row_count", "valid_count", "invalid_count", "status", "created_at",
		}).AddRow(jobID, uuid.New(), "leads.csv", `[]`, `[]`, 0, 0, 0, models.ImportCommitted, now))

	_, err := service.Commit(jobID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be committed")

	assert.NoError(t, mock.ExpectationsWereMet())
}
