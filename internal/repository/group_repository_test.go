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

var membershipCols = []string{"id", "personId", "groupId", "created_at", "removed_at"}

func TestGroupRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_groups" (name) VALUES ($1) RETURNING id`)).
		WithArgs("Juniors").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	group := &models.Group{Name: "Juniors"}
	require.NoError(t, repo.Create(context.Background(), group))
	assert.Equal(t, int64(4), group.ID)
}

func TestGroupRepositoryAddMemberDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tkd-core_personGroup"`)).
		WithArgs(int64(5), int64(4)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "tkd-core_personGroup_active_idx"})

	_, err := repo.AddMember(context.Background(), 4, 5)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGroupRepositoryRemoveMember(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	removed := joined.Add(48 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "tkd-core_personGroup" SET removed_at`)).
		WithArgs(int64(4), int64(5)).
		WillReturnRows(sqlmock.NewRows(membershipCols).AddRow(1, 5, 4, joined, removed))

	membership, err := repo.RemoveMember(context.Background(), 4, 5)
	require.NoError(t, err)
	assert.False(t, membership.Active())

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "tkd-core_personGroup"`)).
		WithArgs(int64(4), int64(6)).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.RemoveMember(context.Background(), 4, 6)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGroupRepositoryListMembersActiveOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE pg."groupId" = $1 AND pg.removed_at IS NULL`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(append(membershipCols, "firstName", "lastName")).
			AddRow(1, 5, 4, time.Now(), nil, "Ana", "Kim"))

	members, err := repo.ListMembers(context.Background(), 4, false)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Ana", members[0].FirstName)
	assert.True(t, members[0].Active())
}
