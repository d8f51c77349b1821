package booking

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cleaning-api/internal/handler"
	"github.com/jwalitptl/cleaning-api/internal/model"
	bookingService "github.com/jwalitptl/cleaning-api/internal/service/booking"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/httputil"
	"github.com/jwalitptl/cleaning-api/pkg/validator"
)

type Handler struct {
	service   bookingService.BookingServicer
	validator validator.Validator
}

func NewHandler(service bookingService.BookingServicer, v validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	booking, err := h.service.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, booking)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, booking)
}

func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid "+name+", expected RFC 3339", err))
		return nil, false
	}
	return &t, true
}

func (h *Handler) ListBookings(c *gin.Context) {
	page, ok := handler.Page(c)
	if !ok {
		return
	}
	customerID, ok := handler.OptionalUUIDQuery(c, "customer_id")
	if !ok {
		return
	}
	from, ok := timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return
	}
	filters := model.BookingFilters{
		CustomerID: customerID,
		Status:     model.BookingStatus(c.Query("status")),
		From:       from,
		To:         to,
		Limit:      page.PageSize,
		Offset:     page.Offset(),
	}
	switch filters.Status {
	case "", model.BookingStatusPending, model.BookingStatusConfirmed, model.BookingStatusCompleted, model.BookingStatusCancelled:
	default:
		httputil.RespondWithError(c, apperrors.BadRequest("invalid status filter", nil))
		return
	}

	bookings, total, err := h.service.ListBookings(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, bookings, page.Page, page.PageSize, total)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateBookingStatusRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	booking, err := h.service.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, booking)
}
