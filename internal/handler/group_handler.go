package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/pkg/response"
)

type groupService interface {
	Create(ctx context.Context, req dto.CreateGroupRequest) (*models.Group, error)
	Get(ctx context.Context, id int64) (*models.Group, error)
	AddMember(ctx context.Context, groupID int64, req dto.AddMemberRequest) (*models.PersonGroup, error)
	RemoveMember(ctx context.Context, groupID, personID int64) (*models.PersonGroup, error)
	ListMembers(ctx context.Context, groupID int64, includeRemoved bool) ([]models.GroupMember, error)
}

// GroupHandler exposes training groups and their memberships.
type GroupHandler struct {
	groups groupService
}

// NewGroupHandler constructs GroupHandler.
func NewGroupHandler(groups groupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create godoc
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body dto.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Get godoc
// @Summary Get group
// @Tags Groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	group, err := h.groups.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// AddMember godoc
// @Summary Add a person to a group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param payload body dto.AddMemberRequest true "Member payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	membership, err := h.groups.AddMember(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, membership)
}

// RemoveMember godoc
// @Summary Remove a person from a group
// @Description The membership is closed, not deleted.
// @Tags Groups
// @Produce json
// @Param id path int true "Group ID"
// @Param personId path int true "Person ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /groups/{id}/members/{personId} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	personID, ok := pathID(c, "personId")
	if !ok {
		return
	}
	membership, err := h.groups.RemoveMember(c.Request.Context(), id, personID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, membership, nil)
}

// Members godoc
// @Summary List group members
// @Tags Groups
// @Produce json
// @Param id path int true "Group ID"
// @Param includeRemoved query bool false "Include closed memberships"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /groups/{id}/members [get]
func (h *GroupHandler) Members(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	includeRemoved, _ := strconv.ParseBool(c.Query("includeRemoved"))
	members, err := h.groups.ListMembers(c.Request.Context(), id, includeRemoved)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}
