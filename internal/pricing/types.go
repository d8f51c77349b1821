package pricing

import "fmt"

// PricingType selects how a service's base price is resolved.
type PricingType string

const (
	PricingTypeBedroomBased PricingType = "BEDROOM_BASED"
	PricingTypeSqmBased     PricingType = "SQM_BASED"
	PricingTypeItemBased    PricingType = "ITEM_BASED"
	PricingTypeFixed        PricingType = "FIXED"
)

// ParsePricingType converts a stored discriminator into a PricingType.
// Unknown values are configuration errors.
func ParsePricingType(s string) (PricingType, error) {
	switch t := PricingType(s); t {
	case PricingTypeBedroomBased, PricingTypeSqmBased, PricingTypeItemBased, PricingTypeFixed:
		return t, nil
	}
	return "", newConfigurationError("service", s, "unrecognized pricing type")
}

func (t PricingType) Valid() bool {
	_, err := ParsePricingType(string(t))
	return err == nil
}

// AddOnMode selects how an add-on is priced.
type AddOnMode string

const (
	AddOnModeFixed      AddOnMode = "FIXED"
	AddOnModePerBedroom AddOnMode = "PER_BEDROOM"
	AddOnModeSizeTiered AddOnMode = "SIZE_TIERED"
)

func ParseAddOnMode(s string) (AddOnMode, error) {
	switch m := AddOnMode(s); m {
	case AddOnModeFixed, AddOnModePerBedroom, AddOnModeSizeTiered:
		return m, nil
	}
	return "", newConfigurationError("add_on", s, "unrecognized add-on pricing mode")
}

func (m AddOnMode) Valid() bool {
	_, err := ParseAddOnMode(string(m))
	return err == nil
}

// OfferType tags a special offer. It carries no pricing semantics of its own;
// the direction of the adjustment is always read from Adjustment.
type OfferType string

const (
	OfferTypeReferral         OfferType = "REFERRAL"
	OfferTypePropertyManager  OfferType = "PROPERTY_MANAGER"
	OfferTypeEmergencySameDay OfferType = "EMERGENCY_SAME_DAY"
)

func ParseOfferType(s string) (OfferType, error) {
	switch t := OfferType(s); t {
	case OfferTypeReferral, OfferTypePropertyManager, OfferTypeEmergencySameDay:
		return t, nil
	}
	return "", newConfigurationError("special_offer", s, "unrecognized offer type")
}

func (t OfferType) Valid() bool {
	_, err := ParseOfferType(string(t))
	return err == nil
}

// DiscountType selects how a special offer's amount is derived from its value.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixed       DiscountType = "fixed"
	DiscountTypeFreeService DiscountType = "free_service"
)

func ParseDiscountType(s string) (DiscountType, error) {
	switch t := DiscountType(s); t {
	case DiscountTypePercentage, DiscountTypeFixed, DiscountTypeFreeService:
		return t, nil
	}
	return "", newConfigurationError("special_offer", s, "unrecognized discount type")
}

func (t DiscountType) Valid() bool {
	_, err := ParseDiscountType(string(t))
	return err == nil
}

// Adjustment says whether a special offer lowers or raises the running total.
type Adjustment string

const (
	AdjustmentDiscount Adjustment = "discount"
	AdjustmentPremium  Adjustment = "premium"
)

func ParseAdjustment(s string) (Adjustment, error) {
	switch a := Adjustment(s); a {
	case AdjustmentDiscount, AdjustmentPremium:
		return a, nil
	}
	return "", newConfigurationError("special_offer", s, "unrecognized adjustment")
}

func (a Adjustment) Valid() bool {
	_, err := ParseAdjustment(string(a))
	return err == nil
}

// sign returns -1 for discounts and +1 for premiums.
func (a Adjustment) sign() Amount {
	switch a {
	case AdjustmentDiscount:
		return -1
	case AdjustmentPremium:
		return 1
	}
	panic(fmt.Sprintf("pricing: unhandled adjustment %q", string(a)))
}
