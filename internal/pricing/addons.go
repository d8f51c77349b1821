package pricing

import (
	"fmt"
	"strconv"
)

// AddOnLine is one priced add-on in a breakdown.
type AddOnLine struct {
	AddOnID    int64     `json:"add_on_id"`
	Name       string    `json:"name"`
	Mode       AddOnMode `json:"mode"`
	Price      Amount    `json:"price"`
	Multiplied bool      `json:"size_multiplier_applied,omitempty"`
}

// PriceAddOns prices every selected add-on and returns the lines in selection
// order together with their sum.
func PriceAddOns(c *Catalog, ids []int64, sel Selections) ([]AddOnLine, Amount, error) {
	byID := make(map[int64]AddOn, len(c.AddOns))
	for _, a := range c.AddOns {
		byID[a.ID] = a
	}

	lines := make([]AddOnLine, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	var total Amount
	for _, id := range ids {
		if seen[id] {
			return nil, 0, newInvalidSelection("add_on_ids", fmt.Sprintf("add-on %d selected more than once", id))
		}
		seen[id] = true

		a, ok := byID[id]
		if !ok {
			return nil, 0, newConfigurationError("add_on", strconv.FormatInt(id, 10), "no such add-on")
		}
		if !a.Active {
			return nil, 0, newInvalidSelection("add_on_ids", fmt.Sprintf("add-on %d is not available", id))
		}
		if a.ServiceID != nil && *a.ServiceID != c.Service.ID {
			return nil, 0, newInvalidSelection("add_on_ids",
				fmt.Sprintf("add-on %d belongs to service %d", id, *a.ServiceID))
		}

		line, err := priceAddOn(a, sel)
		if err != nil {
			return nil, 0, err
		}
		if total, err = addAmounts(total, line.Price); err != nil {
			return nil, 0, err
		}
		lines = append(lines, line)
	}
	return lines, total, nil
}

func priceAddOn(a AddOn, sel Selections) (AddOnLine, error) {
	line := AddOnLine{AddOnID: a.ID, Name: a.Name, Mode: a.Mode}
	key := strconv.FormatInt(a.ID, 10)

	switch a.Mode {
	case AddOnModeFixed:
		if a.Price < 0 {
			return line, newConfigurationError("add_on", key, "negative price")
		}
		line.Price = a.Price
	case AddOnModePerBedroom:
		price, err := addOnTierPrice(a, sel)
		if err != nil {
			return line, err
		}
		line.Price = price
	case AddOnModeSizeTiered:
		price, err := addOnTierPrice(a, sel)
		if err != nil {
			return line, err
		}
		if a.SizeTierThreshold == nil || a.SizeTierMultiplier == nil {
			return line, newConfigurationError("add_on", key, "size-tiered add-on without threshold or multiplier")
		}
		if *a.SizeTierMultiplier < 0 {
			return line, newConfigurationError("add_on", key, "negative size multiplier")
		}
		if sel.SquareMeters != nil && *sel.SquareMeters > *a.SizeTierThreshold {
			if price, err = mulDivRound(price, *a.SizeTierMultiplier, 100); err != nil {
				return line, err
			}
			line.Multiplied = true
		}
		line.Price = price
	default:
		return line, newConfigurationError("add_on", key, fmt.Sprintf("unrecognized pricing mode %q", string(a.Mode)))
	}
	return line, nil
}

func addOnTierPrice(a AddOn, sel Selections) (Amount, error) {
	key := strconv.FormatInt(a.ID, 10)
	if sel.Bedrooms == nil {
		return 0, newInvalidSelection("add_on_ids",
			fmt.Sprintf("add-on %d is priced per bedroom but no bedroom count was selected", a.ID))
	}
	var (
		price Amount
		found bool
	)
	for _, t := range a.Tiers {
		if t.Bedrooms != *sel.Bedrooms {
			continue
		}
		if found {
			return 0, newConfigurationError("add_on_tier", key, fmt.Sprintf("duplicate tier for %d bedrooms", t.Bedrooms))
		}
		price, found = t.Price, true
	}
	if !found {
		return 0, newConfigurationError("add_on_tier", key, fmt.Sprintf("no tier for %d bedrooms", *sel.Bedrooms))
	}
	if price < 0 {
		return 0, newConfigurationError("add_on_tier", key, "negative price")
	}
	return price, nil
}

func hasSizeTiered(c *Catalog, ids []int64) bool {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, a := range c.AddOns {
		if want[a.ID] && a.Mode == AddOnModeSizeTiered {
			return true
		}
	}
	return false
}
