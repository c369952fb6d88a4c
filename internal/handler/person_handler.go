package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/identity"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/pkg/response"
)

type personService interface {
	Register(ctx context.Context, callerID string, req dto.RegisterPersonRequest) (*models.Person, error)
	Get(ctx context.Context, id int64) (*models.Person, error)
	List(ctx context.Context, filter models.PersonFilter) ([]models.Person, *models.Pagination, error)
	CurrentRank(ctx context.Context, personID int64) (*models.Rank, error)
	RecordLevel(ctx context.Context, personID, requirementID int64, req dto.RecordLevelRequest) (*models.RequirementLevel, error)
	Progress(ctx context.Context, personID int64) ([]models.RequirementProgress, error)
}

// PersonHandler exposes the person registry.
type PersonHandler struct {
	persons  personService
	resolver identity.Resolver
}

// NewPersonHandler constructs PersonHandler. A nil resolver reads the principal set by the auth middleware.
func NewPersonHandler(persons personService, resolver identity.Resolver) *PersonHandler {
	if resolver == nil {
		resolver = identity.ContextResolver{}
	}
	return &PersonHandler{persons: persons, resolver: resolver}
}

// Register godoc
// @Summary Register a person
// @Description userId defaults to the authenticated caller.
// @Tags Persons
// @Accept json
// @Produce json
// @Param payload body dto.RegisterPersonRequest true "Person payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /persons [post]
func (h *PersonHandler) Register(c *gin.Context) {
	var req dto.RegisterPersonRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, _ := h.resolver.ResolveCurrentUser(c.Request.Context())
	person, err := h.persons.Register(c.Request.Context(), callerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, person)
}

// List godoc
// @Summary List persons
// @Tags Persons
// @Produce json
// @Param coach query bool false "Only coaches (true) or only students (false)"
// @Param rankId query int false "Filter by current rank"
// @Param userId query string false "Filter by identity user"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /persons [get]
func (h *PersonHandler) List(c *gin.Context) {
	var filter models.PersonFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.UserID = c.Query("userId")
	if coach, err := strconv.ParseBool(c.Query("coach")); err == nil {
		filter.IsCoach = &coach
	}
	if rankID, err := strconv.ParseInt(c.Query("rankId"), 10, 64); err == nil {
		filter.RankID = rankID
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	persons, pagination, err := h.persons.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, persons, pagination)
}

// Get godoc
// @Summary Get person
// @Tags Persons
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /persons/{id} [get]
func (h *PersonHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	person, err := h.persons.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// CurrentRank godoc
// @Summary Current rank of a person
// @Tags Persons
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /persons/{id}/rank [get]
func (h *PersonHandler) CurrentRank(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rank, err := h.persons.CurrentRank(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rank, nil)
}

// RecordLevel godoc
// @Summary Record a requirement level
// @Description Levels only move up. A lower level than the one recorded is rejected.
// @Tags Persons
// @Accept json
// @Produce json
// @Param id path int true "Person ID"
// @Param requirementId path int true "Requirement ID"
// @Param payload body dto.RecordLevelRequest true "Level payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /persons/{id}/requirements/{requirementId} [put]
func (h *PersonHandler) RecordLevel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	requirementID, ok := pathID(c, "requirementId")
	if !ok {
		return
	}
	var req dto.RecordLevelRequest
	if !bindJSON(c, &req) {
		return
	}
	level, err := h.persons.RecordLevel(c.Request.Context(), id, requirementID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// Progress godoc
// @Summary Requirement progress for the current rank
// @Tags Persons
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /persons/{id}/requirements [get]
func (h *PersonHandler) Progress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	progress, err := h.persons.Progress(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
