package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkd-core/dojo-api/internal/models"
)

func TestRequirementRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequirementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_rankRequirement"`)).
		WithArgs(int64(1), "Kicks", 3, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	req := &models.RankRequirement{RankID: 1, Name: "Kicks", LevelNeeded: 3}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, int64(7), req.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequirementRepositoryCreateClassifiesErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequirementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_rankRequirement"`)).
		WillReturnError(&pq.Error{Code: "23505"})
	err := repo.Create(context.Background(), &models.RankRequirement{RankID: 1, Name: "Kicks"})
	assert.ErrorIs(t, err, ErrDuplicate)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_rankRequirement"`)).
		WillReturnError(&pq.Error{Code: "23503"})
	err = repo.Create(context.Background(), &models.RankRequirement{RankID: 99, Name: "Kicks"})
	assert.ErrorIs(t, err, ErrReferenceMissing)
}

func TestRequirementRepositoryListByRank(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRequirementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_rankRequirement" WHERE "rankId" = $1 ORDER BY id`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rankId", "name", "levelNeeded", "isTimeRequired"}).
			AddRow(1, 1, "Kicks", 3, false).
			AddRow(2, 1, "Time", 0, true))

	reqs, err := repo.ListByRank(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.True(t, reqs[1].IsTimeRequired)
}
