package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/internal/repository"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

type rankStore interface {
	FindByID(ctx context.Context, id int64) (*models.Rank, error)
	FindByName(ctx context.Context, name string) (*models.Rank, error)
	ListLadder(ctx context.Context) ([]models.Rank, error)
	Insert(ctx context.Context, name, predecessor, successor string) (*models.Rank, error)
	Delete(ctx context.Context, id int64) (*models.Rank, error)
}

type requirementStore interface {
	Create(ctx context.Context, req *models.RankRequirement) error
	ListByRank(ctx context.Context, rankID int64) ([]models.RankRequirement, error)
}

// RankService owns the rank ladder and its requirements.
type RankService struct {
	ranks        rankStore
	requirements requirementStore
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewRankService constructs a RankService. cache may be nil.
func NewRankService(ranks rankStore, requirements requirementStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RankService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankService{ranks: ranks, requirements: requirements, cache: cache, validator: validate, logger: logger}
}

// AddRank inserts a rank between the named neighbours.
func (s *RankService) AddRank(ctx context.Context, req dto.CreateRankRequest) (*models.Rank, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Predecessor = strings.TrimSpace(req.Predecessor)
	req.Successor = strings.TrimSpace(req.Successor)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if strings.EqualFold(req.Name, models.RankNone) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rank name is reserved")
	}
	if req.Predecessor != "" && req.Predecessor == req.Successor && req.Predecessor != models.RankNone {
		return nil, appErrors.Clone(appErrors.ErrValidation, "predecessor and successor must differ")
	}

	rank, err := s.ranks.Insert(ctx, req.Name, req.Predecessor, req.Successor)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrValidation, "rank name already exists")
		case errors.Is(err, repository.ErrUnknownLadderRank),
			errors.Is(err, repository.ErrLadderLinkTaken),
			errors.Is(err, repository.ErrLadderCycle):
			return nil, appErrors.Validation(err, err.Error())
		}
		return nil, translate(err, "rank not found", "failed to add rank")
	}

	s.cache.Invalidate(ctx, cacheKeyRankPattern)
	s.logger.Info("rank added", zap.Int64("rank_id", rank.ID), zap.String("name", rank.Name),
		zap.String("prev", rank.PrevRank), zap.String("next", rank.NextRank))
	return rank, nil
}

// GetRank returns a rank by id.
func (s *RankService) GetRank(ctx context.Context, id int64) (*models.Rank, error) {
	rank, err := s.ranks.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "rank not found", "failed to load rank")
	}
	return rank, nil
}

// ListLadder returns every rank, bottom of each chain first.
func (s *RankService) ListLadder(ctx context.Context) ([]models.Rank, error) {
	var cached []models.Rank
	if s.cache.Get(ctx, cacheKeyLadder, &cached) {
		return cached, nil
	}
	ranks, err := s.ranks.ListLadder(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list ranks")
	}
	s.cache.Set(ctx, cacheKeyLadder, ranks, 0)
	return ranks, nil
}

// NextRank returns the ladder successor of rankID, or nil at the top of the ladder.
func (s *RankService) NextRank(ctx context.Context, rankID int64) (*models.Rank, error) {
	rank, err := s.GetRank(ctx, rankID)
	if err != nil {
		return nil, err
	}
	if !rank.HasNext() {
		return nil, nil
	}
	next, err := s.ranks.FindByName(ctx, rank.NextRank)
	if err != nil {
		return nil, translate(err, "successor rank not found", "failed to load successor rank")
	}
	return next, nil
}

// DeleteRank removes a rank and joins its neighbours. Dependent rows cascade.
func (s *RankService) DeleteRank(ctx context.Context, id int64) error {
	rank, err := s.ranks.Delete(ctx, id)
	if err != nil {
		return translate(err, "rank not found", "failed to delete rank")
	}
	s.cache.Invalidate(ctx, cacheKeyRankPattern)
	s.logger.Info("rank deleted", zap.Int64("rank_id", rank.ID), zap.String("name", rank.Name))
	return nil
}

// AddRequirement attaches a requirement to a rank.
func (s *RankService) AddRequirement(ctx context.Context, rankID int64, req dto.CreateRequirementRequest) (*models.RankRequirement, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.GetRank(ctx, rankID); err != nil {
		return nil, err
	}

	requirement := &models.RankRequirement{
		RankID:         rankID,
		Name:           req.Name,
		LevelNeeded:    req.LevelNeeded,
		IsTimeRequired: req.TimeRequired,
	}
	if err := s.requirements.Create(ctx, requirement); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "requirement name already exists for this rank")
		}
		return nil, translate(err, "rank not found", "failed to add requirement")
	}

	s.cache.Invalidate(ctx, requirementsCacheKey(rankID))
	return requirement, nil
}

// RequirementsFor lists a rank's requirements in insertion order.
func (s *RankService) RequirementsFor(ctx context.Context, rankID int64) ([]models.RankRequirement, error) {
	key := requirementsCacheKey(rankID)
	var cached []models.RankRequirement
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	if _, err := s.GetRank(ctx, rankID); err != nil {
		return nil, err
	}
	reqs, err := s.requirements.ListByRank(ctx, rankID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list requirements")
	}
	s.cache.Set(ctx, key, reqs, 0)
	return reqs, nil
}
