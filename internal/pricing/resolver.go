package pricing

import (
	"fmt"
	"math"
	"strconv"
)

// ResolveBase returns the base price of the catalog's service for the given
// selections.
func ResolveBase(c *Catalog, sel Selections) (Amount, error) {
	switch c.Service.PricingType {
	case PricingTypeBedroomBased:
		return resolveBedroom(c, sel)
	case PricingTypeSqmBased:
		return resolveSqm(c, sel)
	case PricingTypeItemBased:
		return resolveItems(c, sel)
	case PricingTypeFixed:
		return resolveFixed(c)
	}
	return 0, newConfigurationError("service", strconv.FormatInt(c.Service.ID, 10),
		fmt.Sprintf("unrecognized pricing type %q", string(c.Service.PricingType)))
}

// checkSelections rejects selections that do not belong to the service's
// pricing type. Square meters on a bedroom-based service are accepted only as
// the property size for size-tiered add-ons.
func checkSelections(c *Catalog, sel Selections, sizeTiered bool) error {
	switch c.Service.PricingType {
	case PricingTypeBedroomBased:
		if sel.Bedrooms == nil {
			return newInvalidSelection("bedrooms", "required for bedroom-based services")
		}
		if len(sel.Items) > 0 {
			return newInvalidSelection("items", "not accepted for bedroom-based services")
		}
		if sel.SquareMeters != nil && !sizeTiered {
			return newInvalidSelection("square_meters", "not accepted for bedroom-based services")
		}
		if sel.SqmVariant != "" {
			return newInvalidSelection("sqm_variant", "not accepted for bedroom-based services")
		}
	case PricingTypeSqmBased:
		if sel.Bedrooms != nil {
			return newInvalidSelection("bedrooms", "not accepted for square-meter services")
		}
		if len(sel.Items) > 0 {
			return newInvalidSelection("items", "not accepted for square-meter services")
		}
	case PricingTypeItemBased:
		if sel.Bedrooms != nil {
			return newInvalidSelection("bedrooms", "not accepted for item-based services")
		}
		if sel.SquareMeters != nil || sel.SqmVariant != "" {
			return newInvalidSelection("square_meters", "not accepted for item-based services")
		}
	case PricingTypeFixed:
		if sel.Bedrooms != nil || sel.SquareMeters != nil || sel.SqmVariant != "" || len(sel.Items) > 0 {
			return newInvalidSelection("selections", "fixed-price services take no selections")
		}
	default:
		return newConfigurationError("service", strconv.FormatInt(c.Service.ID, 10),
			fmt.Sprintf("unrecognized pricing type %q", string(c.Service.PricingType)))
	}
	if sel.Bedrooms != nil && *sel.Bedrooms < 0 {
		return newInvalidSelection("bedrooms", "must not be negative")
	}
	if sel.SquareMeters != nil {
		if err := checkArea(*sel.SquareMeters); err != nil {
			return err
		}
	}
	return nil
}

// MaxSquareMeters is the largest property area accepted for pricing.
const MaxSquareMeters = 100000

func checkArea(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return newInvalidSelection("square_meters", "must be a non-negative number")
	}
	if v > MaxSquareMeters {
		return newInvalidSelection("square_meters", fmt.Sprintf("must not exceed %d", MaxSquareMeters))
	}
	return nil
}

func resolveBedroom(c *Catalog, sel Selections) (Amount, error) {
	if sel.Bedrooms == nil {
		return 0, newInvalidSelection("bedrooms", "required for bedroom-based services")
	}
	return lookupTier(c.Tiers, c.Service.ID, *sel.Bedrooms)
}

func lookupTier(tiers []Tier, serviceID int64, bedrooms int) (Amount, error) {
	var (
		price Amount
		found bool
	)
	for _, t := range tiers {
		if t.ServiceID != serviceID || t.Bedrooms != bedrooms {
			continue
		}
		if found {
			return 0, newConfigurationError("pricing_tier", strconv.Itoa(bedrooms),
				fmt.Sprintf("duplicate tier for service %d", serviceID))
		}
		price, found = t.Price, true
	}
	if !found {
		return 0, newConfigurationError("pricing_tier", strconv.Itoa(bedrooms),
			fmt.Sprintf("no tier for service %d", serviceID))
	}
	if price < 0 {
		return 0, newConfigurationError("pricing_tier", strconv.Itoa(bedrooms), "negative price")
	}
	return price, nil
}

func selectSqmRate(c *Catalog, variant string) (SqmRate, error) {
	var rates []SqmRate
	for _, r := range c.SqmRates {
		if r.ServiceID == c.Service.ID {
			rates = append(rates, r)
		}
	}
	if len(rates) == 0 {
		return SqmRate{}, newConfigurationError("sqm_pricing", strconv.FormatInt(c.Service.ID, 10), "no square-meter rate for service")
	}
	if variant == "" {
		if len(rates) > 1 {
			return SqmRate{}, newInvalidSelection("sqm_variant", "required when the service has several rates")
		}
		return rates[0], nil
	}
	for _, r := range rates {
		if r.Variant == variant {
			return r, nil
		}
	}
	return SqmRate{}, newConfigurationError("sqm_pricing", variant,
		fmt.Sprintf("no rate with this variant for service %d", c.Service.ID))
}

// resolveSqm prices area × rate with the minimum charge as a floor. A missing
// or zero area yields the minimum charge.
func resolveSqm(c *Catalog, sel Selections) (Amount, error) {
	rate, err := selectSqmRate(c, sel.SqmVariant)
	if err != nil {
		return 0, err
	}
	if rate.PricePerSqm < 0 || rate.MinimumCharge < 0 {
		return 0, newConfigurationError("sqm_pricing", rate.Variant, "negative rate or minimum charge")
	}
	if sel.SquareMeters == nil || *sel.SquareMeters <= 0 {
		return rate.MinimumCharge, nil
	}
	if err := checkArea(*sel.SquareMeters); err != nil {
		return 0, err
	}
	byArea, err := mulDivRound(rate.PricePerSqm, centiSquareMeters(*sel.SquareMeters), 100)
	if err != nil {
		return 0, err
	}
	return maxAmount(byArea, rate.MinimumCharge), nil
}

// itemMinimum returns the minimum charge shared by every item of the service.
func itemMinimum(c *Catalog) (Amount, map[int64]Item, error) {
	items := make(map[int64]Item)
	var (
		minimum Amount
		seen    bool
	)
	for _, it := range c.Items {
		if it.ServiceID != c.Service.ID {
			continue
		}
		if it.Price < 0 || it.MinimumCharge < 0 {
			return 0, nil, newConfigurationError("pricing_item", it.Name, "negative price or minimum charge")
		}
		if seen && it.MinimumCharge != minimum {
			return 0, nil, newConfigurationError("pricing_item", it.Name,
				fmt.Sprintf("minimum charge %s differs from %s set on other items of service %d",
					it.MinimumCharge.Major(), minimum.Major(), c.Service.ID))
		}
		minimum, seen = it.MinimumCharge, true
		items[it.ID] = it
	}
	if !seen {
		return 0, nil, newConfigurationError("pricing_item", strconv.FormatInt(c.Service.ID, 10), "service has no items")
	}
	return minimum, items, nil
}

func resolveItems(c *Catalog, sel Selections) (Amount, error) {
	minimum, items, err := itemMinimum(c)
	if err != nil {
		return 0, err
	}

	var total Amount
	picked := make(map[int64]bool, len(sel.Items))
	for _, q := range sel.Items {
		if picked[q.ItemID] {
			return 0, newInvalidSelection("items", fmt.Sprintf("item %d selected more than once", q.ItemID))
		}
		picked[q.ItemID] = true
		if q.Quantity <= 0 {
			return 0, newInvalidSelection("items", fmt.Sprintf("item %d quantity must be positive", q.ItemID))
		}
		it, ok := items[q.ItemID]
		if !ok {
			return 0, newConfigurationError("pricing_item", strconv.FormatInt(q.ItemID, 10),
				fmt.Sprintf("no such item for service %d", c.Service.ID))
		}
		line, err := mulDivRound(it.Price, int64(q.Quantity), 1)
		if err != nil {
			return 0, err
		}
		if total, err = addAmounts(total, line); err != nil {
			return 0, err
		}
	}
	return maxAmount(total, minimum), nil
}

func resolveFixed(c *Catalog) (Amount, error) {
	if c.Service.BasePrice == nil {
		return 0, newConfigurationError("service", strconv.FormatInt(c.Service.ID, 10), "fixed-price service has no base price")
	}
	if *c.Service.BasePrice < 0 {
		return 0, newConfigurationError("service", strconv.FormatInt(c.Service.ID, 10), "negative base price")
	}
	return *c.Service.BasePrice, nil
}
