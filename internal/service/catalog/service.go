package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/pricing"
	"github.com/jwalitptl/cleaning-api/internal/repository"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

type CatalogServicer interface {
	CreateService(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error)
	UpdateService(ctx context.Context, id int64, req *model.UpdateServiceRequest) (*model.Service, error)
	GetService(ctx context.Context, id int64) (*model.Service, error)
	GetServiceDetail(ctx context.Context, id int64) (*ServiceDetail, error)
	ListServices(ctx context.Context, activeOnly bool) ([]*model.Service, error)

	UpsertTier(ctx context.Context, serviceID int64, req *model.UpsertTierRequest) (*model.PricingTier, error)
	UpsertSqmRate(ctx context.Context, serviceID int64, req *model.UpsertSqmRateRequest) (*model.SqmRate, error)
	UpsertItem(ctx context.Context, serviceID int64, req *model.UpsertItemRequest) (*model.PricingItem, error)
	SetItemMinimum(ctx context.Context, serviceID int64, req *model.SetItemMinimumRequest) ([]*model.PricingItem, error)
	CreateAddOn(ctx context.Context, serviceID int64, req *model.CreateAddOnRequest) (*model.AddOn, error)
	UpsertPackageDiscount(ctx context.Context, serviceID int64, req *model.UpsertPackageRequest) (*model.PackageDiscount, error)

	CreateSpecialOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.SpecialOffer, error)
	ListSpecialOffers(ctx context.Context, activeOnly bool) ([]*model.SpecialOffer, error)
	DeactivateSpecialOffer(ctx context.Context, id int64) error

	LoadCatalog(ctx context.Context, in pricing.Input) (*pricing.Catalog, error)
}

// ServiceDetail is a service with all of its pricing tables.
type ServiceDetail struct {
	*model.Service
	Tiers    []*model.PricingTier     `json:"tiers"`
	SqmRates []*model.SqmRate         `json:"sqm_rates"`
	Items    []*model.PricingItem     `json:"items"`
	AddOns   []*model.AddOn           `json:"add_ons"`
	Packages []*model.PackageDiscount `json:"package_discounts"`
}

const (
	cacheName         = "catalog"
	keyActiveServices = "services:active"
	keyAllServices    = "services:all"
)

type Service struct {
	repo     repository.CatalogRepository
	cache    *cache.Cache
	metrics  *metrics.Metrics
	log      *logger.Logger
	currency string
}

func NewService(repo repository.CatalogRepository, c *cache.Cache, m *metrics.Metrics, log *logger.Logger, currency string) *Service {
	return &Service{
		repo:     repo,
		cache:    c,
		metrics:  m,
		log:      log.With("catalog"),
		currency: currency,
	}
}

func (s *Service) invalidate() {
	s.cache.Delete(keyActiveServices)
	s.cache.Delete(keyAllServices)
}

func (s *Service) CreateService(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	pt, err := pricing.ParsePricingType(req.PricingType)
	if err != nil {
		return nil, apperrors.BadRequest("invalid pricing type", err)
	}
	if err := checkBasePrice(pt, req.BasePrice); err != nil {
		return nil, err
	}

	svc := &model.Service{
		Name:        req.Name,
		Description: req.Description,
		PricingType: string(pt),
		BasePrice:   req.BasePrice,
		Currency:    req.Currency,
		IsActive:    true,
	}
	if svc.Currency == "" {
		svc.Currency = s.currency
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.invalidate()
	s.log.Info("service created", "service_id", svc.ID, "pricing_type", svc.PricingType)
	return svc, nil
}

func checkBasePrice(pt pricing.PricingType, basePrice *int64) error {
	if pt == pricing.PricingTypeFixed && basePrice == nil {
		return apperrors.BadRequest("fixed-price services need a base_price", nil)
	}
	if pt != pricing.PricingTypeFixed && basePrice != nil {
		return apperrors.BadRequest("base_price is only used by FIXED services", nil)
	}
	return nil
}

func (s *Service) UpdateService(ctx context.Context, id int64, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.BasePrice != nil {
		svc.BasePrice = req.BasePrice
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	pt, err := pricing.ParsePricingType(svc.PricingType)
	if err != nil {
		return nil, apperrors.Unprocessable("stored service has an unknown pricing type", err)
	}
	if err := checkBasePrice(pt, svc.BasePrice); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, wrapRepoError("service", err)
	}
	s.invalidate()
	return svc, nil
}

func (s *Service) GetService(ctx context.Context, id int64) (*model.Service, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, wrapRepoError("service", err)
	}
	return svc, nil
}

func (s *Service) GetServiceDetail(ctx context.Context, id int64) (*ServiceDetail, error) {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &ServiceDetail{Service: svc}
	if d.Tiers, err = s.repo.ListTiers(ctx, id); err != nil {
		return nil, err
	}
	if d.SqmRates, err = s.repo.ListSqmRates(ctx, id); err != nil {
		return nil, err
	}
	if d.Items, err = s.repo.ListItems(ctx, id); err != nil {
		return nil, err
	}
	if d.AddOns, err = s.repo.ListAddOns(ctx, id); err != nil {
		return nil, err
	}
	if d.Packages, err = s.repo.ListPackageDiscounts(ctx, id); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListServices(ctx context.Context, activeOnly bool) ([]*model.Service, error) {
	key := keyAllServices
	if activeOnly {
		key = keyActiveServices
	}
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.CacheRequests.WithLabelValues(cacheName, "hit").Inc()
		return cached.([]*model.Service), nil
	}
	s.metrics.CacheRequests.WithLabelValues(cacheName, "miss").Inc()

	services, err := s.repo.ListServices(ctx, model.ServiceFilters{ActiveOnly: activeOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	s.cache.SetDefault(key, services)
	return services, nil
}

// serviceOfType loads the service and makes sure it is priced the way the
// table being written expects.
func (s *Service) serviceOfType(ctx context.Context, id int64, want pricing.PricingType) (*model.Service, error) {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.PricingType != string(want) {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("service %d is %s, not %s", id, svc.PricingType, want), nil)
	}
	return svc, nil
}

func (s *Service) UpsertTier(ctx context.Context, serviceID int64, req *model.UpsertTierRequest) (*model.PricingTier, error) {
	if _, err := s.serviceOfType(ctx, serviceID, pricing.PricingTypeBedroomBased); err != nil {
		return nil, err
	}
	tier := &model.PricingTier{ServiceID: serviceID, Bedrooms: req.Bedrooms, Price: req.Price}
	if err := s.repo.UpsertTier(ctx, tier); err != nil {
		return nil, wrapRepoError("service", err)
	}
	return tier, nil
}

func (s *Service) UpsertSqmRate(ctx context.Context, serviceID int64, req *model.UpsertSqmRateRequest) (*model.SqmRate, error) {
	if _, err := s.serviceOfType(ctx, serviceID, pricing.PricingTypeSqmBased); err != nil {
		return nil, err
	}
	rate := &model.SqmRate{
		ServiceID:     serviceID,
		Variant:       req.Variant,
		PricePerSqm:   req.PricePerSqm,
		MinimumCharge: req.MinimumCharge,
	}
	if err := s.repo.UpsertSqmRate(ctx, rate); err != nil {
		return nil, wrapRepoError("service", err)
	}
	return rate, nil
}

// UpsertItem refuses an item whose minimum charge differs from the other
// items of the service, since the minimum applies to the whole order.
func (s *Service) UpsertItem(ctx context.Context, serviceID int64, req *model.UpsertItemRequest) (*model.PricingItem, error) {
	if _, err := s.serviceOfType(ctx, serviceID, pricing.PricingTypeItemBased); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListItems(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	for _, it := range existing {
		if it.Name != req.Name && it.MinimumCharge != req.MinimumCharge {
			return nil, apperrors.Unprocessable(
				fmt.Sprintf("minimum_charge must match the service's other items (%d)", it.MinimumCharge), nil)
		}
	}

	item := &model.PricingItem{
		ServiceID:     serviceID,
		Name:          req.Name,
		Price:         req.Price,
		MinimumCharge: req.MinimumCharge,
	}
	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return nil, wrapRepoError("service", err)
	}
	return item, nil
}

// SetItemMinimum moves every item of a service to a new minimum charge at
// once. This is the only way to change the minimum once a service has more
// than one item.
func (s *Service) SetItemMinimum(ctx context.Context, serviceID int64, req *model.SetItemMinimumRequest) ([]*model.PricingItem, error) {
	if _, err := s.serviceOfType(ctx, serviceID, pricing.PricingTypeItemBased); err != nil {
		return nil, err
	}
	n, err := s.repo.SetItemMinimum(ctx, serviceID, req.MinimumCharge)
	if err != nil {
		return nil, wrapRepoError("service", err)
	}
	if n == 0 {
		return nil, apperrors.Unprocessable(fmt.Sprintf("service %d has no items", serviceID), nil)
	}
	s.log.Info("item minimum updated", "service_id", serviceID, "minimum_charge", req.MinimumCharge, "items", n)
	return s.repo.ListItems(ctx, serviceID)
}

func (s *Service) CreateAddOn(ctx context.Context, serviceID int64, req *model.CreateAddOnRequest) (*model.AddOn, error) {
	mode, err := pricing.ParseAddOnMode(req.Mode)
	if err != nil {
		return nil, apperrors.BadRequest("invalid pricing mode", err)
	}
	if _, err := s.GetService(ctx, serviceID); err != nil {
		return nil, err
	}

	switch mode {
	case pricing.AddOnModeFixed:
		if len(req.Tiers) > 0 {
			return nil, apperrors.BadRequest("fixed add-ons take a price, not tiers", nil)
		}
	case pricing.AddOnModePerBedroom, pricing.AddOnModeSizeTiered:
		if len(req.Tiers) == 0 {
			return nil, apperrors.BadRequest("bedroom-tiered add-ons need at least one tier", nil)
		}
		seen := make(map[int]bool, len(req.Tiers))
		for _, t := range req.Tiers {
			if seen[t.Bedrooms] {
				return nil, apperrors.BadRequest(fmt.Sprintf("duplicate tier for %d bedrooms", t.Bedrooms), nil)
			}
			seen[t.Bedrooms] = true
		}
	}
	if mode == pricing.AddOnModeSizeTiered && (req.SizeTierThreshold == nil || req.SizeTierMultiplier == nil) {
		return nil, apperrors.BadRequest("size-tiered add-ons need a threshold and a multiplier", nil)
	}

	addOn := &model.AddOn{
		Name:               req.Name,
		Mode:               string(mode),
		Price:              req.Price,
		SizeTierThreshold:  req.SizeTierThreshold,
		SizeTierMultiplier: req.SizeTierMultiplier,
		IsActive:           true,
	}
	if !req.Global {
		id := serviceID
		addOn.ServiceID = &id
	}
	for _, t := range req.Tiers {
		addOn.Tiers = append(addOn.Tiers, model.AddOnTier{Bedrooms: t.Bedrooms, Price: t.Price})
	}
	if err := s.repo.CreateAddOn(ctx, addOn); err != nil {
		return nil, wrapRepoError("add-on", err)
	}
	return addOn, nil
}

func (s *Service) UpsertPackageDiscount(ctx context.Context, serviceID int64, req *model.UpsertPackageRequest) (*model.PackageDiscount, error) {
	pct, err := pricing.ParsePercent(req.Percentage)
	if err != nil {
		return nil, apperrors.BadRequest("invalid percentage", err)
	}
	if _, err := s.GetService(ctx, serviceID); err != nil {
		return nil, err
	}
	pkg := &model.PackageDiscount{ServiceID: serviceID, VisitCount: req.VisitCount, Percentage: int64(pct)}
	if err := s.repo.UpsertPackageDiscount(ctx, pkg); err != nil {
		return nil, wrapRepoError("service", err)
	}
	return pkg, nil
}

func (s *Service) CreateSpecialOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.SpecialOffer, error) {
	offerType, err := pricing.ParseOfferType(req.OfferType)
	if err != nil {
		return nil, apperrors.BadRequest("invalid offer type", err)
	}
	discountType, err := pricing.ParseDiscountType(req.DiscountType)
	if err != nil {
		return nil, apperrors.BadRequest("invalid discount type", err)
	}
	adjustment, err := pricing.ParseAdjustment(req.Adjustment)
	if err != nil {
		return nil, apperrors.BadRequest("invalid adjustment", err)
	}
	switch {
	case discountType == pricing.DiscountTypePercentage && adjustment == pricing.AdjustmentDiscount &&
		req.DiscountValue > int64(pricing.PercentOf(100)):
		return nil, apperrors.BadRequest("a percentage discount cannot exceed 100% (10000 basis points)", nil)
	case discountType == pricing.DiscountTypeFreeService && adjustment == pricing.AdjustmentPremium:
		return nil, apperrors.BadRequest("free_service offers cannot be premiums", nil)
	case offerType == pricing.OfferTypeEmergencySameDay && adjustment != pricing.AdjustmentPremium:
		return nil, apperrors.BadRequest("EMERGENCY_SAME_DAY offers must be premiums", nil)
	}

	offer := &model.SpecialOffer{
		Name:          req.Name,
		OfferType:     string(offerType),
		DiscountType:  string(discountType),
		Adjustment:    string(adjustment),
		DiscountValue: req.DiscountValue,
		MaxDiscount:   req.MaxDiscount,
		MinProperties: req.MinProperties,
		IsActive:      true,
	}
	if err := s.repo.CreateSpecialOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create special offer: %w", err)
	}
	s.log.Info("special offer created", "offer_id", offer.ID, "offer_type", offer.OfferType, "adjustment", offer.Adjustment)
	return offer, nil
}

func (s *Service) ListSpecialOffers(ctx context.Context, activeOnly bool) ([]*model.SpecialOffer, error) {
	return s.repo.ListSpecialOffers(ctx, activeOnly)
}

func (s *Service) DeactivateSpecialOffer(ctx context.Context, id int64) error {
	if err := s.repo.SetSpecialOfferActive(ctx, id, false); err != nil {
		return wrapRepoError("special offer", err)
	}
	return nil
}

func wrapRepoError(resource string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.Conflict(resource+" already exists", err)
	}
	return err
}
