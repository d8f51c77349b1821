package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/pricing"
	"github.com/jwalitptl/cleaning-api/internal/repository"
	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
)

// LoadCatalog reads the snapshot of pricing rows the input refers to and
// converts it into the calculator's types. Stored enum values that do not
// parse surface as pricing configuration errors.
func (s *Service) LoadCatalog(ctx context.Context, in pricing.Input) (*pricing.Catalog, error) {
	snap, err := s.repo.LoadSnapshot(ctx, model.SnapshotQuery{
		ServiceID:         in.ServiceID,
		AddOnIDs:          pq.Int64Array(in.AddOnIDs),
		PackageDiscountID: in.PackageDiscountID,
		SpecialOfferID:    in.SpecialOfferID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("service", err)
		}
		return nil, fmt.Errorf("failed to load pricing snapshot: %w", err)
	}
	if !snap.Service.IsActive {
		return nil, apperrors.BadRequest(fmt.Sprintf("service %d is not available", snap.Service.ID), nil)
	}
	return ToCatalog(snap)
}

// ToCatalog converts stored rows into a pricing.Catalog.
func ToCatalog(snap *model.PricingSnapshot) (*pricing.Catalog, error) {
	pt, err := pricing.ParsePricingType(snap.Service.PricingType)
	if err != nil {
		return nil, err
	}
	c := &pricing.Catalog{
		Service: pricing.Service{
			ID:          snap.Service.ID,
			Name:        snap.Service.Name,
			PricingType: pt,
			Currency:    snap.Service.Currency,
		},
	}
	if snap.Service.BasePrice != nil {
		bp := pricing.Amount(*snap.Service.BasePrice)
		c.Service.BasePrice = &bp
	}

	for _, t := range snap.Tiers {
		c.Tiers = append(c.Tiers, pricing.Tier{ServiceID: t.ServiceID, Bedrooms: t.Bedrooms, Price: pricing.Amount(t.Price)})
	}
	for _, r := range snap.SqmRates {
		c.SqmRates = append(c.SqmRates, pricing.SqmRate{
			ServiceID:     r.ServiceID,
			Variant:       r.Variant,
			PricePerSqm:   pricing.Amount(r.PricePerSqm),
			MinimumCharge: pricing.Amount(r.MinimumCharge),
		})
	}
	for _, it := range snap.Items {
		c.Items = append(c.Items, pricing.Item{
			ID:            it.ID,
			ServiceID:     it.ServiceID,
			Name:          it.Name,
			Price:         pricing.Amount(it.Price),
			MinimumCharge: pricing.Amount(it.MinimumCharge),
		})
	}

	for _, a := range snap.AddOns {
		mode, err := pricing.ParseAddOnMode(a.Mode)
		if err != nil {
			return nil, err
		}
		addOn := pricing.AddOn{
			ID:                 a.ID,
			ServiceID:          a.ServiceID,
			Name:               a.Name,
			Mode:               mode,
			Price:              pricing.Amount(a.Price),
			SizeTierThreshold:  a.SizeTierThreshold,
			SizeTierMultiplier: a.SizeTierMultiplier,
			Active:             a.IsActive,
		}
		for _, t := range a.Tiers {
			addOn.Tiers = append(addOn.Tiers, pricing.AddOnTier{Bedrooms: t.Bedrooms, Price: pricing.Amount(t.Price)})
		}
		c.AddOns = append(c.AddOns, addOn)
	}

	if p := snap.PackageDiscount; p != nil {
		c.PackageDiscount = &pricing.PackageDiscount{
			ID:         p.ID,
			ServiceID:  p.ServiceID,
			VisitCount: p.VisitCount,
			Percentage: pricing.Percent(p.Percentage),
		}
	}

	if o := snap.SpecialOffer; o != nil {
		offer, err := toSpecialOffer(o)
		if err != nil {
			return nil, err
		}
		c.SpecialOffer = offer
	}
	return c, nil
}

func toSpecialOffer(o *model.SpecialOffer) (*pricing.SpecialOffer, error) {
	offerType, err := pricing.ParseOfferType(o.OfferType)
	if err != nil {
		return nil, err
	}
	discountType, err := pricing.ParseDiscountType(o.DiscountType)
	if err != nil {
		return nil, err
	}
	adjustment, err := pricing.ParseAdjustment(o.Adjustment)
	if err != nil {
		return nil, err
	}
	offer := &pricing.SpecialOffer{
		ID:            o.ID,
		Name:          o.Name,
		Type:          offerType,
		DiscountType:  discountType,
		Adjustment:    adjustment,
		DiscountValue: o.DiscountValue,
		MinProperties: o.MinProperties,
		Active:        o.IsActive,
	}
	if o.MaxDiscount != nil {
		md := pricing.Amount(*o.MaxDiscount)
		offer.MaxDiscount = &md
	}
	return offer, nil
}
