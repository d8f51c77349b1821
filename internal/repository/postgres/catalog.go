package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/cleaning-api/internal/model"
)

const (
	serviceColumns = `id, name, description, pricing_type, base_price, currency, is_active, created_at, updated_at`
	addOnColumns   = `id, service_id, name, pricing_mode, price, size_tier_threshold, size_tier_multiplier, is_active, created_at`
	offerColumns   = `id, name, offer_type, discount_type, adjustment, discount_value, max_discount, min_properties, is_active, created_at, updated_at`
)

func (r *catalogRepository) CreateService(ctx context.Context, svc *model.Service) error {
	query := `
		INSERT INTO services (name, description, pricing_type, base_price, currency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		svc.Name,
		svc.Description,
		svc.PricingType,
		svc.BasePrice,
		svc.Currency,
		svc.IsActive,
	).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", mapError(err))
	}
	return nil
}

func (r *catalogRepository) UpdateService(ctx context.Context, svc *model.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, base_price = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		svc.Name,
		svc.Description,
		svc.BasePrice,
		svc.IsActive,
		svc.ID,
	).Scan(&svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update service %d: %w", svc.ID, mapError(err))
	}
	return nil
}

func (r *catalogRepository) GetService(ctx context.Context, id int64) (*model.Service, error) {
	return getService(ctx, r.db, id)
}

func getService(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Service, error) {
	var svc model.Service
	err := sqlx.GetContext(ctx, q, &svc, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service %d: %w", id, mapError(err))
	}
	return &svc, nil
}

func (r *catalogRepository) ListServices(ctx context.Context, filters model.ServiceFilters) ([]*model.Service, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if filters.PricingType != "" {
		args = append(args, filters.PricingType)
		conds = append(conds, fmt.Sprintf("pricing_type = $%d", len(args)))
	}

	query := `SELECT ` + serviceColumns + ` FROM services`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name"

	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (r *catalogRepository) UpsertTier(ctx context.Context, tier *model.PricingTier) error {
	query := `
		INSERT INTO pricing_tiers (service_id, bedrooms, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (service_id, bedrooms) DO UPDATE SET price = EXCLUDED.price
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, tier.ServiceID, tier.Bedrooms, tier.Price).
		Scan(&tier.ID, &tier.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert pricing tier: %w", mapError(err))
	}
	return nil
}

func (r *catalogRepository) ListTiers(ctx context.Context, serviceID int64) ([]*model.PricingTier, error) {
	var tiers []*model.PricingTier
	query := `SELECT id, service_id, bedrooms, price, created_at FROM pricing_tiers WHERE service_id = $1 ORDER BY bedrooms`
	if err := r.db.SelectContext(ctx, &tiers, query, serviceID); err != nil {
		return nil, fmt.Errorf("failed to list pricing tiers: %w", err)
	}
	return tiers, nil
}

func (r *catalogRepository) UpsertSqmRate(ctx context.Context, rate *model.SqmRate) error {
	query := `
		INSERT INTO sqm_pricing (service_id, variant, price_per_sqm, minimum_charge)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (service_id, variant) DO UPDATE
		SET price_per_sqm = EXCLUDED.price_per_sqm, minimum_charge = EXCLUDED.minimum_charge
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, rate.ServiceID, rate.Variant, rate.PricePerSqm, rate.MinimumCharge).
		Scan(&rate.ID, &rate.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert sqm rate: %w", mapError(err))
	}
	return nil
}

func (r *catalogRepository) ListSqmRates(ctx context.Context, serviceID int64) ([]*model.SqmRate, error) {
	var rates []*model.SqmRate
	query := `SELECT id, service_id, variant, price_per_sqm, minimum_charge, created_at FROM sqm_pricing WHERE service_id = $1 ORDER BY variant`
	if err := r.db.SelectContext(ctx, &rates, query, serviceID); err != nil {
		return nil, fmt.Errorf("failed to list sqm rates: %w", err)
	}
	return rates, nil
}

func (r *catalogRepository) UpsertItem(ctx context.Context, item *model.PricingItem) error {
	query := `
		INSERT INTO pricing_items (service_id, name, price, minimum_charge)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (service_id, name) DO UPDATE
		SET price = EXCLUDED.price, minimum_charge = EXCLUDED.minimum_charge
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, item.ServiceID, item.Name, item.Price, item.MinimumCharge).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert pricing item: %w", mapError(err))
	}
	return nil
}

func (r *catalogRepository) ListItems(ctx context.Context, serviceID int64) ([]*model.PricingItem, error) {
	var items []*model.PricingItem
	query := `SELECT id, service_id, name, price, minimum_charge, created_at FROM pricing_items WHERE service_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &items, query, serviceID); err != nil {
		return nil, fmt.Errorf("failed to list pricing items: %w", err)
	}
	return items, nil
}

func (r *catalogRepository) SetItemMinimum(ctx context.Context, serviceID, minimum int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pricing_items SET minimum_charge = $1 WHERE service_id = $2`, minimum, serviceID)
	if err != nil {
		return 0, fmt.Errorf("failed to set item minimum: %w", mapError(err))
	}
	return res.RowsAffected()
}

func (r *catalogRepository) CreateAddOn(ctx context.Context, addOn *model.AddOn) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO add_ons (service_id, name, pricing_mode, price, size_tier_threshold, size_tier_multiplier, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`
		err := tx.QueryRowxContext(ctx, query,
			addOn.ServiceID,
			addOn.Name,
			addOn.Mode,
			addOn.Price,
			addOn.SizeTierThreshold,
			addOn.SizeTierMultiplier,
			addOn.IsActive,
		).Scan(&addOn.ID, &addOn.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create add-on: %w", mapError(err))
		}

		for i := range addOn.Tiers {
			addOn.Tiers[i].AddOnID = addOn.ID
			_, err := tx.ExecContext(ctx,
				`INSERT INTO add_on_tiers (add_on_id, bedrooms, price) VALUES ($1, $2, $3)`,
				addOn.ID, addOn.Tiers[i].Bedrooms, addOn.Tiers[i].Price)
			if err != nil {
				return fmt.Errorf("failed to create add-on tier: %w", mapError(err))
			}
		}
		return nil
	})
}

func (r *catalogRepository) ListAddOns(ctx context.Context, serviceID int64) ([]*model.AddOn, error) {
	var addOns []*model.AddOn
	query := `SELECT ` + addOnColumns + ` FROM add_ons WHERE service_id = $1 OR service_id IS NULL ORDER BY id`
	if err := r.db.SelectContext(ctx, &addOns, query, serviceID); err != nil {
		return nil, fmt.Errorf("failed to list add-ons: %w", err)
	}
	if err := attachAddOnTiers(ctx, r.db, addOns); err != nil {
		return nil, err
	}
	return addOns, nil
}

func attachAddOnTiers(ctx context.Context, q sqlx.QueryerContext, addOns []*model.AddOn) error {
	if len(addOns) == 0 {
		return nil
	}
	ids := make(pq.Int64Array, 0, len(addOns))
	byID := make(map[int64]*model.AddOn, len(addOns))
	for _, a := range addOns {
		ids = append(ids, a.ID)
		byID[a.ID] = a
	}

	var tiers []model.AddOnTier
	query := `SELECT add_on_id, bedrooms, price FROM add_on_tiers WHERE add_on_id = ANY($1) ORDER BY add_on_id, bedrooms`
	if err := sqlx.SelectContext(ctx, q, &tiers, query, ids); err != nil {
		return fmt.Errorf("failed to list add-on tiers: %w", err)
	}
	for _, t := range tiers {
		if a, ok := byID[t.AddOnID]; ok {
			a.Tiers = append(a.Tiers, t)
		}
	}
	return nil
}

func (r *catalogRepository) UpsertPackageDiscount(ctx context.Context, pkg *model.PackageDiscount) error {
	query := `
		INSERT INTO package_discounts (service_id, visit_count, percentage_bp)
		VALUES ($1, $2, $3)
		ON CONFLICT (service_id, visit_count) DO UPDATE SET percentage_bp = EXCLUDED.percentage_bp
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, pkg.ServiceID, pkg.VisitCount, pkg.Percentage).
		Scan(&pkg.ID, &pkg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert package discount: %w", mapError(err))
	}
	return nil
}

func (r *catalogRepository) ListPackageDiscounts(ctx context.Context, serviceID int64) ([]*model.PackageDiscount, error) {
	var pkgs []*model.PackageDiscount
	query := `SELECT id, service_id, visit_count, percentage_bp, created_at FROM package_discounts WHERE service_id = $1 ORDER BY visit_count`
	if err := r.db.SelectContext(ctx, &pkgs, query, serviceID); err != nil {
		return nil, fmt.Errorf("failed to list package discounts: %w", err)
	}
	return pkgs, nil
}

func (r *catalogRepository) CreateSpecialOffer(ctx context.Context, offer *model.SpecialOffer) error {
	query := `
		INSERT INTO special_offers (name, offer_type, discount_type, adjustment, discount_value, max_discount, min_properties, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		offer.Name,
		offer.OfferType,
		offer.DiscountType,
		offer.Adjustment,
		offer.DiscountValue,
		offer.MaxDiscount,
		offer.MinProperties,
		offer.IsActive,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create special offer: %w", mapError(err))
	}
	return nil
}

func (r *catalogRepository) ListSpecialOffers(ctx context.Context, activeOnly bool) ([]*model.SpecialOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM special_offers`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id`

	var offers []*model.SpecialOffer
	if err := r.db.SelectContext(ctx, &offers, query); err != nil {
		return nil, fmt.Errorf("failed to list special offers: %w", err)
	}
	return offers, nil
}

func (r *catalogRepository) SetSpecialOfferActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE special_offers SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update special offer %d: %w", id, err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("failed to update special offer %d: %w", id, err)
	}
	return nil
}
