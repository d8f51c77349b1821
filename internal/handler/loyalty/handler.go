package loyalty

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cleaning-api/internal/handler"
	loyaltyService "github.com/jwalitptl/cleaning-api/internal/service/loyalty"
	"github.com/jwalitptl/cleaning-api/pkg/httputil"
)

type Handler struct {
	service loyaltyService.LoyaltyServicer
}

func NewHandler(service loyaltyService.LoyaltyServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/customers/:id/loyalty", h.GetSummary)
}

func (h *Handler) GetSummary(c *gin.Context) {
	customerID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), customerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}
