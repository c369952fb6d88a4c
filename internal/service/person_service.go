package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

type personStore interface {
	Create(ctx context.Context, person *models.Person) error
	FindByID(ctx context.Context, id int64) (*models.Person, error)
	List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error)
	UpsertLevel(ctx context.Context, personID, requirementID int64, level int) (*models.RequirementLevel, error)
	Progress(ctx context.Context, personID, rankID int64) ([]models.RequirementProgress, error)
}

type requirementFinder interface {
	FindByID(ctx context.Context, id int64) (*models.RankRequirement, error)
}

type rankFinder interface {
	GetRank(ctx context.Context, id int64) (*models.Rank, error)
}

// PersonService is the registry of students and coaches.
type PersonService struct {
	persons      personStore
	requirements requirementFinder
	ranks        rankFinder
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewPersonService constructs a PersonService.
func NewPersonService(persons personStore, requirements requirementFinder, ranks rankFinder, validate *validator.Validate, logger *zap.Logger) *PersonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonService{persons: persons, requirements: requirements, ranks: ranks, validator: validate, logger: logger}
}

// Register creates a person for an identity user. callerID is used when the
// request does not name a user. One user may own several persons.
func (s *PersonService) Register(ctx context.Context, callerID string, req dto.RegisterPersonRequest) (*models.Person, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.UserID == "" {
		req.UserID = callerID
	}
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	if _, err := s.ranks.GetRank(ctx, req.RankID); err != nil {
		return nil, err
	}

	person := &models.Person{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Height:      req.Height,
		Weight:      req.Weight,
		CurrentRank: req.RankID,
		UserID:      req.UserID,
		IsCoach:     req.IsCoach,
		BirthDate:   req.BirthDate,
	}
	if err := s.persons.Create(ctx, person); err != nil {
		return nil, translate(err, "user or rank not found", "failed to register person")
	}
	s.logger.Info("person registered", zap.Int64("person_id", person.ID), zap.String("user_id", person.UserID), zap.Bool("coach", person.IsCoach))
	return person, nil
}

// Get returns a person.
func (s *PersonService) Get(ctx context.Context, id int64) (*models.Person, error) {
	person, err := s.persons.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "person not found", "failed to load person")
	}
	return person, nil
}

// List returns persons matching filter with pagination metadata.
func (s *PersonService) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	persons, total, err := s.persons.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list persons")
	}
	return persons, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// CurrentRank returns the rank the person currently holds.
func (s *PersonService) CurrentRank(ctx context.Context, personID int64) (*models.Rank, error) {
	person, err := s.Get(ctx, personID)
	if err != nil {
		return nil, err
	}
	return s.ranks.GetRank(ctx, person.CurrentRank)
}

// RecordLevel stores the level a person reached on a requirement. Lowering a level is rejected.
func (s *PersonService) RecordLevel(ctx context.Context, personID, requirementID int64, req dto.RecordLevelRequest) (*models.RequirementLevel, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, personID); err != nil {
		return nil, err
	}
	if _, err := s.requirements.FindByID(ctx, requirementID); err != nil {
		return nil, translate(err, "requirement not found", "failed to load requirement")
	}

	rec, err := s.persons.UpsertLevel(ctx, personID, requirementID, req.Level)
	if err != nil {
		return nil, translate(err, "person or requirement not found", "failed to record level")
	}
	return rec, nil
}

// Progress lists the requirements of the person's current rank with recorded levels.
func (s *PersonService) Progress(ctx context.Context, personID int64) ([]models.RequirementProgress, error) {
	person, err := s.Get(ctx, personID)
	if err != nil {
		return nil, err
	}
	progress, err := s.persons.Progress(ctx, personID, person.CurrentRank)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load requirement progress")
	}
	return progress, nil
}
