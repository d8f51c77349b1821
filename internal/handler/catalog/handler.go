package catalog

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cleaning-api/internal/handler"
	"github.com/jwalitptl/cleaning-api/internal/model"
	catalogService "github.com/jwalitptl/cleaning-api/internal/service/catalog"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/httputil"
	"github.com/jwalitptl/cleaning-api/pkg/validator"
)

type Handler struct {
	service   catalogService.CatalogServicer
	validator validator.Validator
}

func NewHandler(service catalogService.CatalogServicer, v validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	services := r.Group("/services")
	{
		services.POST("", h.CreateService)
		services.GET("", h.ListServices)
		services.GET("/:id", h.GetService)
		services.PUT("/:id", h.UpdateService)
		services.POST("/:id/tiers", h.UpsertTier)
		services.POST("/:id/sqm-rates", h.UpsertSqmRate)
		services.POST("/:id/items", h.UpsertItem)
		services.PUT("/:id/items/minimum", h.SetItemMinimum)
		services.POST("/:id/addons", h.CreateAddOn)
		services.POST("/:id/packages", h.UpsertPackageDiscount)
	}

	offers := r.Group("/offers")
	{
		offers.POST("", h.CreateSpecialOffer)
		offers.GET("", h.ListSpecialOffers)
		offers.DELETE("/:id", h.DeactivateSpecialOffer)
	}
}

// activeOnly reads ?active=; listings default to active rows only.
func activeOnly(c *gin.Context) (bool, bool) {
	raw := c.DefaultQuery("active", "true")
	v, err := strconv.ParseBool(raw)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid active filter", err))
		return false, false
	}
	return v, true
}

func (h *Handler) CreateService(c *gin.Context) {
	var req model.CreateServiceRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	svc, err := h.service.CreateService(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, svc)
}

func (h *Handler) ListServices(c *gin.Context) {
	active, ok := activeOnly(c)
	if !ok {
		return
	}
	services, err := h.service.ListServices(c.Request.Context(), active)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, services)
}

func (h *Handler) GetService(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.GetServiceDetail(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateServiceRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	svc, err := h.service.UpdateService(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, svc)
}

func (h *Handler) UpsertTier(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpsertTierRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	tier, err := h.service.UpsertTier(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tier)
}

func (h *Handler) UpsertSqmRate(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpsertSqmRateRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	rate, err := h.service.UpsertSqmRate(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rate)
}

func (h *Handler) UpsertItem(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpsertItemRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	item, err := h.service.UpsertItem(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, item)
}

func (h *Handler) SetItemMinimum(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	var req model.SetItemMinimumRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	items, err := h.service.SetItemMinimum(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, items)
}

func (h *Handler) CreateAddOn(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	var req model.CreateAddOnRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	addOn, err := h.service.CreateAddOn(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, addOn)
}

func (h *Handler) UpsertPackageDiscount(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpsertPackageRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	pkg, err := h.service.UpsertPackageDiscount(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pkg)
}

func (h *Handler) CreateSpecialOffer(c *gin.Context) {
	var req model.CreateOfferRequest
	if !handler.BindJSON(c, h.validator, &req) {
		return
	}
	offer, err := h.service.CreateSpecialOffer(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, offer)
}

func (h *Handler) ListSpecialOffers(c *gin.Context) {
	active, ok := activeOnly(c)
	if !ok {
		return
	}
	offers, err := h.service.ListSpecialOffers(c.Request.Context(), active)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, offers)
}

func (h *Handler) DeactivateSpecialOffer(c *gin.Context) {
	id, ok := handler.IDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateSpecialOffer(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "is_active": false})
}
