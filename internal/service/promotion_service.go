package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/internal/repository"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

type promotionStore interface {
	Create(ctx context.Context, params repository.PromotionParams) (*models.RankPromotion, error)
	Decide(ctx context.Context, id int64, success bool) (*models.RankPromotion, error)
	FindByID(ctx context.Context, id int64) (*models.RankPromotion, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.RankPromotion, error)
}

type progressReader interface {
	FindByID(ctx context.Context, id int64) (*models.Person, error)
	Levels(ctx context.Context, personID int64) (map[int64]int, error)
}

type ladderReader interface {
	GetRank(ctx context.Context, id int64) (*models.Rank, error)
	NextRank(ctx context.Context, rankID int64) (*models.Rank, error)
	RequirementsFor(ctx context.Context, rankID int64) ([]models.RankRequirement, error)
}

// PromotionConfig carries evaluator thresholds.
type PromotionConfig struct {
	MinTimeInGrade time.Duration
}

// PromotionService evaluates eligibility and records promotions.
type PromotionService struct {
	promotions promotionStore
	persons    progressReader
	ladder     ladderReader
	metrics    *MetricsService
	cfg        PromotionConfig
	now        func() time.Time
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewPromotionService constructs a PromotionService.
func NewPromotionService(
	promotions promotionStore,
	persons progressReader,
	ladder ladderReader,
	metrics *MetricsService,
	cfg PromotionConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *PromotionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionService{
		promotions: promotions,
		persons:    persons,
		ladder:     ladder,
		metrics:    metrics,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		validator:  validate,
		logger:     logger,
	}
}

// Evaluate computes whether the person meets every requirement of the current rank.
func (s *PromotionService) Evaluate(ctx context.Context, personID int64) (*models.Eligibility, error) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return nil, translate(err, "person not found", "failed to load person")
	}
	return s.evaluate(ctx, person)
}

func (s *PromotionService) evaluate(ctx context.Context, person *models.Person) (*models.Eligibility, error) {
	reqs, err := s.ladder.RequirementsFor(ctx, person.CurrentRank)
	if err != nil {
		return nil, err
	}
	levels, err := s.persons.Levels(ctx, person.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load requirement levels")
	}
	next, err := s.ladder.NextRank(ctx, person.CurrentRank)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inGrade := now.Sub(person.RankSince)
	if inGrade < 0 {
		inGrade = 0
	}

	eligibility := &models.Eligibility{
		PersonID:            person.ID,
		RankID:              person.CurrentRank,
		MissingRequirements: []models.RequirementGap{},
		TimeInGrade:         inGrade,
		EvaluatedAt:         now,
	}
	if next != nil {
		eligibility.NextRankID = &next.ID
	}

	for _, req := range reqs {
		achieved := levels[req.ID]
		gap := models.RequirementGap{
			RequirementID: req.ID,
			Name:          req.Name,
			LevelNeeded:   req.LevelNeeded,
			LevelAchieved: achieved,
			LevelMet:      achieved >= req.LevelNeeded,
			TimeRequired:  req.IsTimeRequired,
			TimeMet:       !req.IsTimeRequired || inGrade >= s.cfg.MinTimeInGrade,
		}
		if !gap.LevelMet || !gap.TimeMet {
			eligibility.MissingRequirements = append(eligibility.MissingRequirements, gap)
		}
	}
	eligibility.Ready = len(eligibility.MissingRequirements) == 0
	return eligibility, nil
}

// Attempt records a promotion of the student to the next rank. An ineligible student
// is rejected unless Override is set. A lost race on the student's rank is retried once.
func (s *PromotionService) Attempt(ctx context.Context, req dto.AttemptPromotionRequest) (*models.RankPromotion, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if req.CoachID == req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coach cannot promote themselves")
	}
	coach, err := s.persons.FindByID(ctx, req.CoachID)
	if err != nil {
		return nil, translate(err, "coach not found", "failed to load coach")
	}
	if !coach.IsCoach {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coachId does not reference a coach")
	}

	var observedRank int64
	for attempt := 0; attempt < 2; attempt++ {
		student, err := s.persons.FindByID(ctx, req.StudentID)
		if err != nil {
			return nil, translate(err, "student not found", "failed to load student")
		}
		if attempt == 0 {
			observedRank = student.CurrentRank
		} else if student.CurrentRank != observedRank {
			s.metrics.RecordPromotion(PromotionOutcomeConflict)
			return nil, appErrors.Clone(appErrors.ErrConflict, "student rank changed while promoting")
		}

		eligibility, err := s.evaluate(ctx, student)
		if err != nil {
			return nil, err
		}
		if eligibility.NextRankID == nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "student already holds the highest rank")
		}
		if !eligibility.Ready && !req.Override {
			s.metrics.RecordPromotion(PromotionOutcomeRejected)
			return nil, appErrors.Clone(appErrors.ErrInvalidState,
				fmt.Sprintf("student is not eligible: missing requirements %v", eligibility.MissingIDs()))
		}

		params := repository.PromotionParams{
			FromRank:     student.CurrentRank,
			ToRank:       *eligibility.NextRankID,
			CoachID:      req.CoachID,
			StudentID:    req.StudentID,
			Observations: observations(req.Observations, req.Override, eligibility),
			Success:      req.Decision,
		}
		promo, err := s.promotions.Create(ctx, params)
		if err == nil {
			outcome := promotionOutcome(promo)
			s.metrics.RecordPromotion(outcome)
			s.logger.Info("promotion recorded",
				zap.Int64("promotion_id", promo.ID),
				zap.Int64("student_id", promo.StudentID),
				zap.Int64("from_rank", promo.FromRank),
				zap.Int64("to_rank", promo.ToRank),
				zap.String("outcome", outcome),
				zap.Bool("override", req.Override))
			return promo, nil
		}
		if !errors.Is(err, repository.ErrRankChanged) && !errors.Is(err, repository.ErrConcurrentUpdate) {
			return nil, translate(err, "coach or student not found", "failed to record promotion")
		}
		s.metrics.RecordPromotionRetry()
		s.logger.Warn("promotion raced with a concurrent rank change",
			zap.Int64("student_id", req.StudentID), zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.metrics.RecordPromotion(PromotionOutcomeConflict)
	return nil, appErrors.Clone(appErrors.ErrConflict, "student rank changed while promoting")
}

// Decide settles a pending promotion. Repeating the same decision is a no-op.
func (s *PromotionService) Decide(ctx context.Context, promotionID int64, req dto.DecidePromotionRequest) (*models.RankPromotion, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var promo *models.RankPromotion
		promo, err = s.promotions.Decide(ctx, promotionID, *req.Success)
		if err == nil {
			s.metrics.RecordPromotion(promotionOutcome(promo))
			s.logger.Info("promotion decided", zap.Int64("promotion_id", promo.ID), zap.Bool("success", *promo.Success))
			return promo, nil
		}
		if !errors.Is(err, repository.ErrConcurrentUpdate) {
			break
		}
	}

	switch {
	case errors.Is(err, repository.ErrAlreadyDecided):
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "promotion already decided differently")
	case errors.Is(err, repository.ErrRankChanged):
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student no longer holds the promotion's starting rank")
	}
	return nil, translate(err, "promotion not found", "failed to decide promotion")
}

// Get returns a single promotion.
func (s *PromotionService) Get(ctx context.Context, promotionID int64) (*models.RankPromotion, error) {
	promo, err := s.promotions.FindByID(ctx, promotionID)
	if err != nil {
		return nil, translate(err, "promotion not found", "failed to load promotion")
	}
	return promo, nil
}

// ListForStudent returns the student's promotion history.
func (s *PromotionService) ListForStudent(ctx context.Context, studentID int64) ([]models.RankPromotion, error) {
	if _, err := s.persons.FindByID(ctx, studentID); err != nil {
		return nil, translate(err, "person not found", "failed to load person")
	}
	promos, err := s.promotions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list promotions")
	}
	return promos, nil
}

func promotionOutcome(promo *models.RankPromotion) string {
	switch {
	case promo.Pending():
		return PromotionOutcomePending
	case *promo.Success:
		return PromotionOutcomePassed
	default:
		return PromotionOutcomeFailed
	}
}

// observations returns the free text stored with a promotion. Overrides are always noted.
func observations(text string, override bool, eligibility *models.Eligibility) *string {
	text = strings.TrimSpace(text)
	if override {
		note := "[override] requirements met"
		if !eligibility.Ready {
			note = fmt.Sprintf("[override] unmet requirements %v", eligibility.MissingIDs())
		}
		if text == "" {
			text = note
		} else {
			text = note + "\n" + text
		}
	}
	if text == "" {
		return nil
	}
	return &text
}
