package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// BreakdownSelections records every raw input that produced a breakdown.
type BreakdownSelections struct {
	ServiceID             int64          `json:"service_id"`
	Bedrooms              *int           `json:"bedrooms,omitempty"`
	SquareMeters          *float64       `json:"square_meters,omitempty"`
	SqmVariant            string         `json:"sqm_variant,omitempty"`
	Items                 []ItemQuantity `json:"items,omitempty"`
	AddOnIDs              []int64        `json:"add_on_ids,omitempty"`
	PackageDiscountID     *int64         `json:"package_discount_id,omitempty"`
	SpecialOfferID        *int64         `json:"special_offer_id,omitempty"`
	CustomerPropertyCount *int           `json:"customer_property_count,omitempty"`
}

// Breakdown is the itemized, persisted record of how a final price was
// derived. Once stored on a booking it is never recomputed.
type Breakdown struct {
	ServiceName            string              `json:"service_name"`
	PricingType            PricingType         `json:"pricing_type"`
	BasePrice              Amount              `json:"base_price"`
	AddOns                 []AddOnLine         `json:"add_ons"`
	AddOnsTotal            Amount              `json:"add_ons_total"`
	Subtotal               Amount              `json:"subtotal"`
	PackageDiscount        Amount              `json:"package_discount"`
	PackagePercentage      Percent             `json:"package_percentage,omitempty"`
	SpecialOfferAdjustment Amount              `json:"special_offer_adjustment"`
	SpecialOfferApplied    bool                `json:"special_offer_applied"`
	SpecialOfferSkipReason string              `json:"special_offer_skip_reason,omitempty"`
	FinalPrice             Amount              `json:"final_price"`
	Currency               string              `json:"currency"`
	Selections             BreakdownSelections `json:"selections"`
	CalculatedAt           time.Time           `json:"calculated_at"`
}

// Calculate runs the full pipeline: base price, add-ons, then discounts.
func Calculate(c *Catalog, in Input, now time.Time) (*Breakdown, error) {
	if c == nil {
		return nil, newInvariantError("nil catalog")
	}
	if in.ServiceID != c.Service.ID {
		return nil, newInvariantError(fmt.Sprintf("catalog for service %d used for service %d", c.Service.ID, in.ServiceID))
	}
	if err := checkSelections(c, in.Selections, hasSizeTiered(c, in.AddOnIDs)); err != nil {
		return nil, err
	}
	if err := checkReferences(c, in); err != nil {
		return nil, err
	}

	base, err := ResolveBase(c, in.Selections)
	if err != nil {
		return nil, err
	}
	if base < 0 {
		return nil, newInvariantError(fmt.Sprintf("negative base price %d", base))
	}

	lines, addOnsTotal, err := PriceAddOns(c, in.AddOnIDs, in.Selections)
	if err != nil {
		return nil, err
	}
	if addOnsTotal < 0 {
		return nil, newInvariantError(fmt.Sprintf("negative add-ons total %d", addOnsTotal))
	}

	subtotal, err := addAmounts(base, addOnsTotal)
	if err != nil {
		return nil, err
	}

	comp, err := Compose(c.Service.ID, subtotal, c.PackageDiscount, c.SpecialOffer, in.CustomerPropertyCount)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{
		ServiceName:            c.Service.Name,
		PricingType:            c.Service.PricingType,
		BasePrice:              base,
		AddOns:                 lines,
		AddOnsTotal:            addOnsTotal,
		Subtotal:               subtotal,
		PackageDiscount:        comp.PackageDiscount,
		SpecialOfferAdjustment: comp.SpecialOfferAdjustment,
		SpecialOfferApplied:    comp.SpecialOfferApplied,
		SpecialOfferSkipReason: comp.SpecialOfferSkipReason,
		FinalPrice:             comp.FinalPrice,
		Currency:               c.Service.Currency,
		Selections:             selectionsOf(in),
		CalculatedAt:           now.UTC(),
	}
	if c.PackageDiscount != nil {
		b.PackagePercentage = c.PackageDiscount.Percentage
	}
	if err := b.Verify(); err != nil {
		return nil, err
	}
	return b, nil
}

// checkReferences makes sure the package and offer the caller asked for are
// the ones present in the snapshot.
func checkReferences(c *Catalog, in Input) error {
	switch {
	case in.PackageDiscountID == nil && c.PackageDiscount != nil:
		return newInvariantError("catalog carries a package discount that was not selected")
	case in.PackageDiscountID != nil && c.PackageDiscount == nil:
		return newConfigurationError("package_discount", strconv.FormatInt(*in.PackageDiscountID, 10), "no such package discount")
	case in.PackageDiscountID != nil && c.PackageDiscount.ID != *in.PackageDiscountID:
		return newInvariantError("catalog package discount does not match selection")
	}
	switch {
	case in.SpecialOfferID == nil && c.SpecialOffer != nil:
		return newInvariantError("catalog carries a special offer that was not selected")
	case in.SpecialOfferID != nil && c.SpecialOffer == nil:
		return newConfigurationError("special_offer", strconv.FormatInt(*in.SpecialOfferID, 10), "no such special offer")
	case in.SpecialOfferID != nil && c.SpecialOffer.ID != *in.SpecialOfferID:
		return newInvariantError("catalog special offer does not match selection")
	}
	return nil
}

func selectionsOf(in Input) BreakdownSelections {
	s := BreakdownSelections{
		ServiceID:             in.ServiceID,
		Bedrooms:              in.Selections.Bedrooms,
		SquareMeters:          in.Selections.SquareMeters,
		SqmVariant:            in.Selections.SqmVariant,
		PackageDiscountID:     in.PackageDiscountID,
		SpecialOfferID:        in.SpecialOfferID,
		CustomerPropertyCount: in.CustomerPropertyCount,
	}
	if len(in.Selections.Items) > 0 {
		s.Items = append([]ItemQuantity(nil), in.Selections.Items...)
	}
	if len(in.AddOnIDs) > 0 {
		s.AddOnIDs = append([]int64(nil), in.AddOnIDs...)
	}
	return s
}

// Verify checks that the numbers of a breakdown add up. It is run when a
// breakdown is created and whenever one is read back from storage.
func (b *Breakdown) Verify() error {
	var lines Amount
	for _, l := range b.AddOns {
		lines += l.Price
	}
	if lines != b.AddOnsTotal {
		return newInvariantError(fmt.Sprintf("add-on lines sum to %d, total says %d", lines, b.AddOnsTotal))
	}
	if b.BasePrice+b.AddOnsTotal != b.Subtotal {
		return newInvariantError(fmt.Sprintf("base %d + add-ons %d != subtotal %d", b.BasePrice, b.AddOnsTotal, b.Subtotal))
	}
	if b.PackageDiscount < 0 || b.FinalPrice < 0 {
		return newInvariantError("negative package discount or final price")
	}
	want := maxAmount(b.Subtotal-b.PackageDiscount+b.SpecialOfferAdjustment, 0)
	if want != b.FinalPrice {
		return newInvariantError(fmt.Sprintf("final price %d does not match components (%d)", b.FinalPrice, want))
	}
	return nil
}

// Encode serializes the breakdown for storage.
func (b *Breakdown) Encode() ([]byte, error) {
	return json.Marshal(b)
}

// DecodeBreakdown reads a stored breakdown and verifies it.
func DecodeBreakdown(data []byte) (*Breakdown, error) {
	var b Breakdown
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode pricing breakdown: %w", err)
	}
	if err := b.Verify(); err != nil {
		return nil, err
	}
	return &b, nil
}
