package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkd-core/dojo-api/internal/models"
)

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	start := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_classSession"`)).
		WithArgs(start, end, int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(20))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tkd-core_classSessionGroup"`)).
		WithArgs(int64(20), int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tkd-core_classSessionGroup"`)).
		WithArgs(int64(20), int64(2)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	session := &models.ClassSession{StartTime: start, EndTime: end, CoachID: 9, GroupIDs: []int64{1, 2}}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.Equal(t, int64(20), session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateRollsBackOnUnknownGroup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_classSession"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tkd-core_classSessionGroup"`)).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.ClassSession{CoachID: 9, GroupIDs: []int64{99}})
	require.ErrorIs(t, err, ErrReferenceMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	start := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_classSession" WHERE id = $1`)).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time", "coach_id"}).AddRow(20, start, start.Add(time.Hour), 9))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT group_id FROM "tkd-core_classSessionGroup"`)).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"group_id"}).AddRow(1).AddRow(2))

	session, err := repo.FindByID(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, session.GroupIDs)
}

func TestSessionRepositoryActiveMembers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT pg."personId"`)).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"personId"}).AddRow(5).AddRow(7))

	ids, err := repo.ActiveMembers(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7}, ids)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(int64(20), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	member, err := repo.IsActiveMember(context.Background(), 20, 8)
	require.NoError(t, err)
	assert.False(t, member)
}
