package quote

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cleaning-api/internal/handler"
	"github.com/jwalitptl/cleaning-api/internal/model"
	quoteService "github.com/jwalitptl/cleaning-api/internal/service/quote"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/httputil"
	"github.com/jwalitptl/cleaning-api/pkg/validator"
)

type Handler struct {
	service   quoteService.QuoteServicer
	validator validator.Validator
}

func NewHandler(service quoteService.QuoteServicer, v validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	quotes := r.Group("/quotes")
	{
		quotes.POST("", h.CreateQuote)
		quotes.GET("", h.ListQuotes)
		quotes.GET("/:id", h.GetQuote)
		quotes.POST("/:id/accept", h.AcceptQuote)
	}
}

func (h *Handler) CreateQuote(c *gin.Context) {
	var req model.CreateQuoteRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	q, err := h.service.CreateQuote(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, q)
}

func (h *Handler) GetQuote(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	q, err := h.service.GetQuote(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, q)
}

func (h *Handler) ListQuotes(c *gin.Context) {
	page, ok := handler.Page(c)
	if !ok {
		return
	}
	customerID, ok := handler.OptionalUUIDQuery(c, "customer_id")
	if !ok {
		return
	}
	filters := model.QuoteFilters{
		CustomerID: customerID,
		Status:     model.QuoteStatus(c.Query("status")),
		Limit:      page.PageSize,
		Offset:     page.Offset(),
	}
	switch filters.Status {
	case "", model.QuoteStatusOpen, model.QuoteStatusAccepted, model.QuoteStatusExpired:
	default:
		httputil.RespondWithError(c, apperrors.BadRequest("invalid status filter", nil))
		return
	}

	quotes, total, err := h.service.ListQuotes(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, quotes, page.Page, page.PageSize, total)
}

func (h *Handler) AcceptQuote(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.AcceptQuoteRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	booking, err := h.service.AcceptQuote(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, booking)
}
