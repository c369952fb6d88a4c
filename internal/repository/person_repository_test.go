package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkd-core/dojo-api/internal/models"
)

func TestPersonRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	birth := time.Date(2010, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_persons"`)).
		WithArgs("Ana", "Kim", int64(150), int64(45), int64(1), "user-1", false, birth, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "rank_since"}).AddRow(5, now, now))

	person := &models.Person{FirstName: "Ana", LastName: "Kim", Height: 150, Weight: 45, CurrentRank: 1, UserID: "user-1", BirthDate: birth}
	require.NoError(t, repo.Create(context.Background(), person))
	assert.Equal(t, int64(5), person.ID)
	assert.Equal(t, now, person.RankSince)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryCreateUnknownRank(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_persons"`)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "tkd-core_persons_currentRank_fkey"})

	err := repo.Create(context.Background(), &models.Person{CurrentRank: 42})
	assert.ErrorIs(t, err, ErrReferenceMissing)
}

func TestPersonRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	coach := true
	cols := []string{"id", "firstName", "lastName", "height", "weight", "currentRank", "created_at", "user_id", "isCoach", "birthDate", "rank_since"}
	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "tkd-core_persons" WHERE 1=1 AND "isCoach" = \$1 AND \(LOWER`).
		WithArgs(true, "%kim%").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Ana", "Kim", 150, 45, 1, now, "u1", true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "tkd-core_persons" WHERE 1=1`)).
		WithArgs(true, "%kim%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	persons, total, err := repo.List(context.Background(), models.PersonFilter{IsCoach: &coach, Search: "Kim"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, persons, 1)
	assert.True(t, persons[0].IsCoach)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryUpsertLevel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (requirement_id, person_id) DO UPDATE`)).
		WithArgs(int64(3), int64(5), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requirement_id", "person_id", "level"}).AddRow(1, 3, 5, 2))

	rec, err := repo.UpsertLevel(context.Background(), 5, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryUpsertLevelRejectsDecrease(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT`)).
		WithArgs(int64(3), int64(5), 1).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpsertLevel(context.Background(), 5, 3, 1)
	assert.ErrorIs(t, err, ErrLevelDecrease)
}

func TestPersonRepositoryLevels(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_rankRequirementPerson" WHERE person_id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requirement_id", "person_id", "level"}).
			AddRow(1, 3, 5, 2).
			AddRow(2, 4, 5, 7))

	levels, err := repo.Levels(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{3: 2, 4: 7}, levels)
}

func TestPersonRepositoryProgress(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`LEFT JOIN "tkd-core_rankRequirementPerson" p`)).
		WithArgs(int64(1), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rankId", "name", "levelNeeded", "isTimeRequired", "level_achieved"}).
			AddRow(3, 1, "Kicks", 3, false, 2).
			AddRow(4, 1, "Forms", 1, false, nil))

	progress, err := repo.Progress(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Len(t, progress, 2)
	require.NotNil(t, progress[0].LevelAchieved)
	assert.Equal(t, 2, *progress[0].LevelAchieved)
	assert.Nil(t, progress[1].LevelAchieved)
}
