package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var promotionCols = []string{"id", "fromRank", "toRank", "success", "observations", "coachId", "studentId", "created_at", "decided_at"}

func fixedPromotionRepo(t *testing.T) (*PromotionRepository, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newRepoMock(t)
	repo := NewPromotionRepository(db)
	repo.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return repo, mock, cleanup
}

func TestPromotionRepositoryCreateAdvancesOnSuccess(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	success := true
	decided := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "currentRank" FROM "tkd-core_persons" WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"currentRank"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_rankPromotion"`)).
		WithArgs(int64(1), int64(2), &success, nil, int64(9), int64(5), &decided).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, decided))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tkd-core_persons" SET "currentRank" = $1, rank_since = $4 WHERE id = $2 AND "currentRank" = $3`)).
		WithArgs(int64(2), int64(5), int64(1), decided).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	promo, err := repo.Create(context.Background(), PromotionParams{FromRank: 1, ToRank: 2, CoachID: 9, StudentID: 5, Success: &success})
	require.NoError(t, err)
	assert.Equal(t, int64(11), promo.ID)
	require.NotNil(t, promo.DecidedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryCreatePendingLeavesRank(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"currentRank"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_rankPromotion"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(12, time.Now()))
	mock.ExpectCommit()

	promo, err := repo.Create(context.Background(), PromotionParams{FromRank: 1, ToRank: 2, CoachID: 9, StudentID: 5})
	require.NoError(t, err)
	assert.True(t, promo.Pending())
	assert.Nil(t, promo.DecidedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryCreateStaleRank(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"currentRank"}).AddRow(2))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), PromotionParams{FromRank: 1, ToRank: 2, CoachID: 9, StudentID: 5})
	require.ErrorIs(t, err, ErrRankChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryCreateMissingStudent(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), PromotionParams{FromRank: 1, ToRank: 2, CoachID: 9, StudentID: 5})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPromotionRepositoryCreateLosesCompareAndSwap(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	success := true
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"currentRank"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_rankPromotion"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(13, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tkd-core_persons"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), PromotionParams{FromRank: 1, ToRank: 2, CoachID: 9, StudentID: 5, Success: &success})
	require.ErrorIs(t, err, ErrRankChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryDecidePending(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_rankPromotion" WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(promotionCols).AddRow(11, 1, 2, nil, nil, 9, 5, created, nil))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "currentRank" FROM "tkd-core_persons"`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"currentRank"}).AddRow(1))
	decided := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tkd-core_persons"`)).
		WithArgs(int64(2), int64(5), int64(1), decided).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tkd-core_rankPromotion" SET success = $1, decided_at = $2 WHERE id = $3 AND success IS NULL`)).
		WithArgs(true, decided, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	promo, err := repo.Decide(context.Background(), 11, true)
	require.NoError(t, err)
	require.NotNil(t, promo.Success)
	assert.True(t, *promo.Success)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryDecideIsIdempotent(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(promotionCols).AddRow(11, 1, 2, true, nil, 9, 5, now, now))
	mock.ExpectCommit()

	promo, err := repo.Decide(context.Background(), 11, true)
	require.NoError(t, err)
	assert.True(t, *promo.Success)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryDecideContradiction(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(promotionCols).AddRow(11, 1, 2, true, nil, 9, 5, now, now))
	mock.ExpectRollback()

	_, err := repo.Decide(context.Background(), 11, false)
	require.ErrorIs(t, err, ErrAlreadyDecided)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryDecideStaleStudent(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_rankPromotion"`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(promotionCols).AddRow(11, 1, 2, nil, nil, 9, 5, time.Now(), nil))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "currentRank"`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"currentRank"}).AddRow(3))
	mock.ExpectRollback()

	_, err := repo.Decide(context.Background(), 11, true)
	require.ErrorIs(t, err, ErrRankChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryDecideRowsAffectedFailure(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_rankPromotion"`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(promotionCols).AddRow(11, 1, 2, nil, nil, 9, 5, time.Now(), nil))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "currentRank"`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"currentRank"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "tkd-core_rankPromotion"`)).
		WithArgs(false, sqlmock.AnyArg(), int64(11)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver lost row count")))
	mock.ExpectRollback()

	promo, err := repo.Decide(context.Background(), 11, false)
	require.Error(t, err)
	assert.Nil(t, promo)
	assert.Contains(t, err.Error(), "driver lost row count")
	assert.NotErrorIs(t, err, ErrConcurrentUpdate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryFindByID(t *testing.T) {
	repo, mock, cleanup := fixedPromotionRepo(t)
	defer cleanup()

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_rankPromotion" WHERE id = $1`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(promotionCols).AddRow(11, 1, 2, nil, "needs footwork", 9, 5, created, nil))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "tkd-core_rankPromotion" WHERE id = $1`)).
		WithArgs(int64(12)).
		WillReturnError(sql.ErrNoRows)

	promo, err := repo.FindByID(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, promo.Pending())
	assert.Equal(t, int64(5), promo.StudentID)

	_, err = repo.FindByID(context.Background(), 12)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
