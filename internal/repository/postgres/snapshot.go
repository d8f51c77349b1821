package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/cleaning-api/internal/model"
	"github.com/jwalitptl/cleaning-api/internal/repository"
)

func (r *catalogRepository) LoadSnapshot(ctx context.Context, q model.SnapshotQuery) (*model.PricingSnapshot, error) {
	snap := &model.PricingSnapshot{}
	err := r.WithReadOnlyTx(ctx, func(tx *sqlx.Tx) error {
		svc, err := getService(ctx, tx, q.ServiceID)
		if err != nil {
			return err
		}
		snap.Service = *svc

		if err := tx.SelectContext(ctx, &snap.Tiers,
			`SELECT id, service_id, bedrooms, price, created_at FROM pricing_tiers WHERE service_id = $1`,
			q.ServiceID); err != nil {
			return fmt.Errorf("failed to load pricing tiers: %w", err)
		}
		if err := tx.SelectContext(ctx, &snap.SqmRates,
			`SELECT id, service_id, variant, price_per_sqm, minimum_charge, created_at FROM sqm_pricing WHERE service_id = $1`,
			q.ServiceID); err != nil {
			return fmt.Errorf("failed to load sqm rates: %w", err)
		}
		if err := tx.SelectContext(ctx, &snap.Items,
			`SELECT id, service_id, name, price, minimum_charge, created_at FROM pricing_items WHERE service_id = $1`,
			q.ServiceID); err != nil {
			return fmt.Errorf("failed to load pricing items: %w", err)
		}

		if len(q.AddOnIDs) > 0 {
			var addOns []*model.AddOn
			if err := tx.SelectContext(ctx, &addOns,
				`SELECT `+addOnColumns+` FROM add_ons WHERE id = ANY($1)`, q.AddOnIDs); err != nil {
				return fmt.Errorf("failed to load add-ons: %w", err)
			}
			if err := attachAddOnTiers(ctx, tx, addOns); err != nil {
				return err
			}
			for _, a := range addOns {
				snap.AddOns = append(snap.AddOns, *a)
			}
		}

		if q.PackageDiscountID != nil {
			var pkg model.PackageDiscount
			err := tx.GetContext(ctx, &pkg,
				`SELECT id, service_id, visit_count, percentage_bp, created_at FROM package_discounts WHERE id = $1`,
				*q.PackageDiscountID)
			if err = optional(err); err != nil {
				return fmt.Errorf("failed to load package discount: %w", err)
			}
			if pkg.ID != 0 {
				snap.PackageDiscount = &pkg
			}
		}

		if q.SpecialOfferID != nil {
			var offer model.SpecialOffer
			err := tx.GetContext(ctx, &offer,
				`SELECT `+offerColumns+` FROM special_offers WHERE id = $1`, *q.SpecialOfferID)
			if err = optional(err); err != nil {
				return fmt.Errorf("failed to load special offer: %w", err)
			}
			if offer.ID != 0 {
				snap.SpecialOffer = &offer
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// optional treats a missing row as no error. The calculator decides what a
// missing package or offer means.
func optional(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(mapError(err), repository.ErrNotFound) {
		return nil
	}
	return err
}
