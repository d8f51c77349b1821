package price

import (
	"context"
	"time"

	"github.com/jwalitptl/cleaning-api/internal/pricing"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

type PriceServicer interface {
	Price(ctx context.Context, in pricing.Input) (*pricing.Breakdown, error)
}

// CatalogLoader reads the pricing rows one calculation needs.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, in pricing.Input) (*pricing.Catalog, error)
}

type Service struct {
	catalog CatalogLoader
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewService(catalog CatalogLoader, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		catalog: catalog,
		metrics: m,
		log:     log.With("pricing"),
		now:     time.Now,
	}
}

// Price loads a catalog snapshot and runs the calculator against it. Errors
// come back as AppErrors so handlers can respond with them directly.
func (s *Service) Price(ctx context.Context, in pricing.Input) (*pricing.Breakdown, error) {
	start := time.Now()
	pricingType := "unknown"

	c, err := s.catalog.LoadCatalog(ctx, in)
	if err != nil {
		s.observe(pricingType, start, err)
		return nil, MapError(err)
	}
	pricingType = string(c.Service.PricingType)

	b, err := pricing.Calculate(c, in, s.now())
	s.observe(pricingType, start, err)
	if err != nil {
		if pricing.IsInvariant(err) {
			s.log.Error(err, "pricing invariant violated", "service_id", in.ServiceID)
		} else {
			s.log.Debug("price calculation rejected", "service_id", in.ServiceID, "error", err.Error())
		}
		return nil, MapError(err)
	}
	return b, nil
}

func (s *Service) observe(pricingType string, start time.Time, err error) {
	s.metrics.PricingCalculations.WithLabelValues(pricingType, Result(err)).Inc()
	s.metrics.PricingDuration.WithLabelValues(pricingType).Observe(time.Since(start).Seconds())
}

// Result labels a calculation outcome for metrics.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case pricing.IsConfiguration(err):
		return "configuration_error"
	case pricing.IsInvalidSelection(err):
		return "invalid_selection"
	case pricing.IsInvariant(err):
		return "invariant_error"
	}
	return "error"
}

// MapError converts calculator errors into AppErrors. Anything else is
// returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case pricing.IsConfiguration(err):
		return apperrors.Unprocessable("pricing configuration error", err)
	case pricing.IsInvalidSelection(err):
		return apperrors.BadRequest("invalid selection", err)
	case pricing.IsInvariant(err):
		return apperrors.Internal(err)
	}
	return err
}
