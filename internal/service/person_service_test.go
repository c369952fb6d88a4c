package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/internal/repository"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

type personStoreStub struct {
	persons   map[int64]*models.Person
	levels    map[int64]map[int64]int
	createErr error
	lastList  models.PersonFilter
}

func newPersonStoreStub(persons ...models.Person) *personStoreStub {
	stub := &personStoreStub{persons: map[int64]*models.Person{}, levels: map[int64]map[int64]int{}}
	for i := range persons {
		p := persons[i]
		stub.persons[p.ID] = &p
	}
	return stub
}

func (s *personStoreStub) Create(ctx context.Context, person *models.Person) error {
	if s.createErr != nil {
		return s.createErr
	}
	person.ID = int64(len(s.persons) + 1)
	person.CreatedAt = time.Now()
	person.RankSince = person.CreatedAt
	clone := *person
	s.persons[person.ID] = &clone
	return nil
}

func (s *personStoreStub) FindByID(ctx context.Context, id int64) (*models.Person, error) {
	if p, ok := s.persons[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *personStoreStub) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error) {
	s.lastList = filter
	out := []models.Person{}
	for _, p := range s.persons {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (s *personStoreStub) UpsertLevel(ctx context.Context, personID, requirementID int64, level int) (*models.RequirementLevel, error) {
	if s.levels[personID] == nil {
		s.levels[personID] = map[int64]int{}
	}
	if current, ok := s.levels[personID][requirementID]; ok && level < current {
		return nil, fmt.Errorf("record level: %w", repository.ErrLevelDecrease)
	}
	s.levels[personID][requirementID] = level
	return &models.RequirementLevel{RequirementID: requirementID, PersonID: personID, Level: level}, nil
}

func (s *personStoreStub) Levels(ctx context.Context, personID int64) (map[int64]int, error) {
	out := map[int64]int{}
	for k, v := range s.levels[personID] {
		out[k] = v
	}
	return out, nil
}

func (s *personStoreStub) Progress(ctx context.Context, personID, rankID int64) ([]models.RequirementProgress, error) {
	return []models.RequirementProgress{{RankRequirement: models.RankRequirement{ID: 1, RankID: rankID}}}, nil
}

type requirementFinderStub map[int64]models.RankRequirement

func (s requirementFinderStub) FindByID(ctx context.Context, id int64) (*models.RankRequirement, error) {
	if r, ok := s[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func newTestPersonService(store *personStoreStub) *PersonService {
	ranks := NewRankService(whiteYellowLadder(), newRequirementStoreStub(), nil, nil, nil)
	reqs := requirementFinderStub{1: {ID: 1, RankID: 1, Name: "Kicks", LevelNeeded: 3}}
	return NewPersonService(store, reqs, ranks, nil, nil)
}

func validRegistration() dto.RegisterPersonRequest {
	return dto.RegisterPersonRequest{
		FirstName: "Ana",
		LastName:  "Kim",
		BirthDate: time.Date(2010, 3, 4, 0, 0, 0, 0, time.UTC),
		Height:    150,
		Weight:    45,
		RankID:    1,
	}
}

func TestPersonServiceRegisterUsesCaller(t *testing.T) {
	store := newPersonStoreStub()
	svc := newTestPersonService(store)

	person, err := svc.Register(context.Background(), "user-1", validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "user-1", person.UserID)
	assert.Equal(t, int64(1), person.CurrentRank)

	req := validRegistration()
	req.UserID = "user-2"
	req.IsCoach = true
	coach, err := svc.Register(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, "user-2", coach.UserID)
	assert.True(t, coach.IsCoach)
}

func TestPersonServiceRegisterFailures(t *testing.T) {
	store := newPersonStoreStub()
	svc := newTestPersonService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", validRegistration())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	bad := validRegistration()
	bad.Height = 0
	_, err = svc.Register(ctx, "user-1", bad)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	unknownRank := validRegistration()
	unknownRank.RankID = 42
	_, err = svc.Register(ctx, "user-1", unknownRank)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	store.createErr = fmt.Errorf("create person: %w", repository.ErrReferenceMissing)
	_, err = svc.Register(ctx, "ghost", validRegistration())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPersonServiceRecordLevelMonotonic(t *testing.T) {
	store := newPersonStoreStub(models.Person{ID: 5, CurrentRank: 1})
	svc := newTestPersonService(store)
	ctx := context.Background()

	_, err := svc.RecordLevel(ctx, 5, 1, dto.RecordLevelRequest{Level: 2})
	require.NoError(t, err)
	_, err = svc.RecordLevel(ctx, 5, 1, dto.RecordLevelRequest{Level: 2})
	require.NoError(t, err)

	_, err = svc.RecordLevel(ctx, 5, 1, dto.RecordLevelRequest{Level: 1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, 2, store.levels[5][1])

	_, err = svc.RecordLevel(ctx, 5, 1, dto.RecordLevelRequest{Level: -1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.RecordLevel(ctx, 6, 1, dto.RecordLevelRequest{Level: 1})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.RecordLevel(ctx, 5, 9, dto.RecordLevelRequest{Level: 1})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPersonServiceCurrentRankAndList(t *testing.T) {
	store := newPersonStoreStub(models.Person{ID: 5, CurrentRank: 2})
	svc := newTestPersonService(store)

	rank, err := svc.CurrentRank(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Yellow", rank.Name)

	_, page, err := svc.List(context.Background(), models.PersonFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)
}
