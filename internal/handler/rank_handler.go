package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/middleware"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/pkg/response"
)

type rankService interface {
	AddRank(ctx context.Context, req dto.CreateRankRequest) (*models.Rank, error)
	GetRank(ctx context.Context, id int64) (*models.Rank, error)
	ListLadder(ctx context.Context) ([]models.Rank, error)
	NextRank(ctx context.Context, rankID int64) (*models.Rank, error)
	DeleteRank(ctx context.Context, id int64) error
	AddRequirement(ctx context.Context, rankID int64, req dto.CreateRequirementRequest) (*models.RankRequirement, error)
	RequirementsFor(ctx context.Context, rankID int64) ([]models.RankRequirement, error)
}

// RankHandler exposes the rank ladder.
type RankHandler struct {
	ranks rankService
}

// NewRankHandler constructs RankHandler.
func NewRankHandler(ranks rankService) *RankHandler {
	return &RankHandler{ranks: ranks}
}

// Create godoc
// @Summary Add a rank to the ladder
// @Description Links the new rank between the named predecessor and successor. Omit either to leave that end open.
// @Tags Ranks
// @Accept json
// @Produce json
// @Param payload body dto.CreateRankRequest true "Rank payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /ranks [post]
func (h *RankHandler) Create(c *gin.Context) {
	var req dto.CreateRankRequest
	if !bindJSON(c, &req) {
		return
	}
	rank, err := h.ranks.AddRank(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rank)
}

// List godoc
// @Summary List the rank ladder
// @Tags Ranks
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ranks [get]
func (h *RankHandler) List(c *gin.Context) {
	ranks, err := h.ranks.ListLadder(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranks, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get rank
// @Tags Ranks
// @Produce json
// @Param id path int true "Rank ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /ranks/{id} [get]
func (h *RankHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rank, err := h.ranks.GetRank(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rank, nil)
}

// Next godoc
// @Summary Next rank on the ladder
// @Description Data is omitted when the rank is the top of its ladder.
// @Tags Ranks
// @Produce json
// @Param id path int true "Rank ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ranks/{id}/next [get]
func (h *RankHandler) Next(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	next, err := h.ranks.NextRank(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if next == nil {
		response.JSON(c, http.StatusOK, nil, nil)
		return
	}
	response.JSON(c, http.StatusOK, next, nil)
}

// Delete godoc
// @Summary Delete rank
// @Description Neighbours are linked to each other. Requirements, persons and promotions referencing the rank are removed.
// @Tags Ranks
// @Param id path int true "Rank ID"
// @Success 204
// @Security BearerAuth
// @Router /ranks/{id} [delete]
func (h *RankHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ranks.DeleteRank(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateRequirement godoc
// @Summary Add a requirement to a rank
// @Tags Ranks
// @Accept json
// @Produce json
// @Param id path int true "Rank ID"
// @Param payload body dto.CreateRequirementRequest true "Requirement payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /ranks/{id}/requirements [post]
func (h *RankHandler) CreateRequirement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateRequirementRequest
	if !bindJSON(c, &req) {
		return
	}
	requirement, err := h.ranks.AddRequirement(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, requirement)
}

// Requirements godoc
// @Summary List a rank's requirements
// @Tags Ranks
// @Produce json
// @Param id path int true "Rank ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ranks/{id}/requirements [get]
func (h *RankHandler) Requirements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reqs, err := h.ranks.RequirementsFor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reqs, nil)
}
