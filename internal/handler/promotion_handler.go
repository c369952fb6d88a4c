package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/pkg/response"
)

type promotionService interface {
	Evaluate(ctx context.Context, personID int64) (*models.Eligibility, error)
	Attempt(ctx context.Context, req dto.AttemptPromotionRequest) (*models.RankPromotion, error)
	Decide(ctx context.Context, promotionID int64, req dto.DecidePromotionRequest) (*models.RankPromotion, error)
	Get(ctx context.Context, promotionID int64) (*models.RankPromotion, error)
	ListForStudent(ctx context.Context, studentID int64) ([]models.RankPromotion, error)
}

// PromotionHandler exposes promotion evaluation and attempts.
type PromotionHandler struct {
	promotions promotionService
}

// NewPromotionHandler constructs PromotionHandler.
func NewPromotionHandler(promotions promotionService) *PromotionHandler {
	return &PromotionHandler{promotions: promotions}
}

// Eligibility godoc
// @Summary Evaluate promotion eligibility
// @Tags Promotions
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /persons/{id}/eligibility [get]
func (h *PromotionHandler) Eligibility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	eligibility, err := h.promotions.Evaluate(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligibility, nil)
}

// Attempt godoc
// @Summary Attempt a promotion
// @Description Records a promotion from the student's current rank to the next one. With success=true the
// @Description student advances immediately; without success the attempt stays pending.
// @Tags Promotions
// @Accept json
// @Produce json
// @Param payload body dto.AttemptPromotionRequest true "Promotion payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /promotions [post]
func (h *PromotionHandler) Attempt(c *gin.Context) {
	var req dto.AttemptPromotionRequest
	if !bindJSON(c, &req) {
		return
	}
	promotion, err := h.promotions.Attempt(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, promotion)
}

// Get godoc
// @Summary Get a promotion
// @Tags Promotions
// @Produce json
// @Param id path int true "Promotion ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /promotions/{id} [get]
func (h *PromotionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	promotion, err := h.promotions.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, promotion, nil)
}

// Decide godoc
// @Summary Decide a pending promotion
// @Tags Promotions
// @Accept json
// @Produce json
// @Param id path int true "Promotion ID"
// @Param payload body dto.DecidePromotionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /promotions/{id}/decision [put]
func (h *PromotionHandler) Decide(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DecidePromotionRequest
	if !bindJSON(c, &req) {
		return
	}
	promotion, err := h.promotions.Decide(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, promotion, nil)
}

// History godoc
// @Summary Promotion history of a student
// @Tags Promotions
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /persons/{id}/promotions [get]
func (h *PromotionHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	promotions, err := h.promotions.ListForStudent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, promotions, nil)
}
