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

type groupStore interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	AddMember(ctx context.Context, groupID, personID int64) (*models.PersonGroup, error)
	RemoveMember(ctx context.Context, groupID, personID int64) (*models.PersonGroup, error)
	ListMembers(ctx context.Context, groupID int64, includeRemoved bool) ([]models.GroupMember, error)
}

type personLookup interface {
	Get(ctx context.Context, id int64) (*models.Person, error)
}

// GroupService manages training groups and their memberships.
type GroupService struct {
	groups    groupStore
	persons   personLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(groups groupStore, persons personLookup, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{groups: groups, persons: persons, validator: validate, logger: logger}
}

// Create adds a group.
func (s *GroupService) Create(ctx context.Context, req dto.CreateGroupRequest) (*models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	group := &models.Group{Name: req.Name}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, translate(err, "group not found", "failed to create group")
	}
	return group, nil
}

// Get returns a group.
func (s *GroupService) Get(ctx context.Context, id int64) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "group not found", "failed to load group")
	}
	return group, nil
}

// AddMember makes the person an active member of the group.
func (s *GroupService) AddMember(ctx context.Context, groupID int64, req dto.AddMemberRequest) (*models.PersonGroup, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.persons.Get(ctx, req.PersonID); err != nil {
		return nil, err
	}
	membership, err := s.groups.AddMember(ctx, groupID, req.PersonID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "person is already an active member of the group")
		}
		return nil, translate(err, "group or person not found", "failed to add member")
	}
	s.logger.Info("group member added", zap.Int64("group_id", groupID), zap.Int64("person_id", req.PersonID))
	return membership, nil
}

// RemoveMember ends the person's active membership.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, personID int64) (*models.PersonGroup, error) {
	membership, err := s.groups.RemoveMember(ctx, groupID, personID)
	if err != nil {
		return nil, translate(err, "active membership not found", "failed to remove member")
	}
	s.logger.Info("group member removed", zap.Int64("group_id", groupID), zap.Int64("person_id", personID))
	return membership, nil
}

// ListMembers returns the group's members; removed memberships are included on request.
func (s *GroupService) ListMembers(ctx context.Context, groupID int64, includeRemoved bool) ([]models.GroupMember, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, groupID, includeRemoved)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list group members")
	}
	return members, nil
}
