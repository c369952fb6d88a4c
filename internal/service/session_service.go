package service

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

type sessionStore interface {
	Create(ctx context.Context, session *models.ClassSession) error
	FindByID(ctx context.Context, id int64) (*models.ClassSession, error)
	ActiveMembers(ctx context.Context, sessionID int64) ([]int64, error)
	IsActiveMember(ctx context.Context, sessionID, personID int64) (bool, error)
}

// SessionService schedules class sessions for groups.
type SessionService struct {
	sessions  sessionStore
	persons   personLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(sessions sessionStore, persons personLookup, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{sessions: sessions, persons: persons, validator: validate, logger: logger}
}

// Create schedules a session. Nothing is persisted when the input is invalid.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*models.ClassSession, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	coach, err := s.persons.Get(ctx, req.CoachID)
	if err != nil {
		return nil, err
	}
	if !coach.IsCoach {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coachId does not reference a coach")
	}

	session := &models.ClassSession{
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		CoachID:   req.CoachID,
		GroupIDs:  uniqueIDs(req.GroupIDs),
	}
	if err = s.sessions.Create(ctx, session); err != nil {
		return nil, translate(err, "coach or group not found", "failed to create session")
	}
	s.logger.Info("session scheduled", zap.Int64("session_id", session.ID), zap.Int64("coach_id", session.CoachID),
		zap.Int64s("group_ids", session.GroupIDs))
	return session, nil
}

// Get returns a session with its groups.
func (s *SessionService) Get(ctx context.Context, id int64) (*models.ClassSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "session not found", "failed to load session")
	}
	return session, nil
}

// ActiveMembers is the union of active members of every group attached to the session.
func (s *SessionService) ActiveMembers(ctx context.Context, sessionID int64) ([]int64, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	ids, err := s.sessions.ActiveMembers(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list session members")
	}
	return ids, nil
}

// IsActiveMember reports whether the person belongs to one of the session's groups.
func (s *SessionService) IsActiveMember(ctx context.Context, sessionID, personID int64) (bool, error) {
	member, err := s.sessions.IsActiveMember(ctx, sessionID, personID)
	if err != nil {
		return false, appErrors.Internal(err, "failed to check session membership")
	}
	return member, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
