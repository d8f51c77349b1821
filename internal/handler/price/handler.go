package price

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cleaning-api/internal/handler"
	"github.com/jwalitptl/cleaning-api/internal/model"
	priceService "github.com/jwalitptl/cleaning-api/internal/service/price"
	"github.com/jwalitptl/cleaning-api/pkg/httputil"
	"github.com/jwalitptl/cleaning-api/pkg/validator"
)

type Handler struct {
	service   priceService.PriceServicer
	validator validator.Validator
}

func NewHandler(service priceService.PriceServicer, v validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/pricing/calculate", h.Calculate)
}

// Calculate prices a selection without storing anything.
func (h *Handler) Calculate(c *gin.Context) {
	var req model.PriceRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}

	breakdown, err := h.service.Price(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, breakdown)
}
