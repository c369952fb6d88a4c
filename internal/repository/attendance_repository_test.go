package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkd-core/dojo-api/internal/models"
)

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_attendance"`)).
		WithArgs(int64(20), int64(5), "present", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	record := &models.Attendance{SessionID: 20, PersonID: 5, Status: models.AttendanceStatusPresent}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.Equal(t, int64(1), record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_attendance"`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "tkd-core_attendance_session_id_person_id_key"})

	err := repo.Create(context.Background(), &models.Attendance{SessionID: 20, PersonID: 5, Status: models.AttendanceStatusAbsent})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAttendanceRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "tkd-core_attendance" SET status = $3`)).
		WithArgs(int64(20), int64(5), "excused", nil).
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &models.Attendance{SessionID: 20, PersonID: 5, Status: models.AttendanceStatusExcused})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAttendanceRepositoryListBySession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_attendance" a`)).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "person_id", "status", "description", "firstName", "lastName"}).
			AddRow(1, 20, 5, "present", nil, "Ana", "Kim").
			AddRow(2, 20, 7, "excused", "sick", "Bo", "Lee"))

	records, err := repo.ListBySession(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.AttendanceStatusExcused, records[1].Status)
	require.NotNil(t, records[1].Description)
	assert.Equal(t, "sick", *records[1].Description)
}
