package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-adp-api/internal/dto"
	appErrors "github.com/noah-isme/academy-adp-api/pkg/errors"
	"github.com/noah-isme/academy-adp-api/pkg/response"
)

type promotionService interface {
	Promote(ctx context.Context, req dto.PromoteRequest, actorID string) (*dto.PromotionResult, error)
}

// PromotionHandler exposes the batch promotion endpoint.
type PromotionHandler struct {
	promotions promotionService
}

// NewPromotionHandler constructs PromotionHandler.
func NewPromotionHandler(promotions promotionService) *PromotionHandler {
	return &PromotionHandler{promotions: promotions}
}

// Promote godoc
// @Summary Promote students to the next course
// @Description Creates one group for the course and enrolls each student independently.
// @Tags Promotions
// @Accept json
// @Produce json
// @Param payload body dto.PromoteRequest true "Promotion payload"
// @Success 201 {object} response.Envelope
// @Router /promotions [post]
func (h *PromotionHandler) Promote(c *gin.Context) {
	var req dto.PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.promotions.Promote(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
