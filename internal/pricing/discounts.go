package pricing

import (
	"fmt"
	"strconv"
)

// Composition is the outcome of applying discounts to a subtotal.
type Composition struct {
	Subtotal               Amount
	PackageDiscount        Amount
	SpecialOfferAdjustment Amount
	SpecialOfferApplied    bool
	SpecialOfferSkipReason string
	FinalPrice             Amount
}

// Compose applies the package discount and then the special offer, each
// against the running total, rounding at every step.
func Compose(serviceID int64, subtotal Amount, pkg *PackageDiscount, offer *SpecialOffer, propertyCount *int) (Composition, error) {
	out := Composition{Subtotal: subtotal}
	if subtotal < 0 {
		return out, newInvariantError(fmt.Sprintf("negative subtotal %d", subtotal))
	}
	running := subtotal

	if pkg != nil {
		if pkg.ServiceID != serviceID {
			return out, newInvalidSelection("package_discount_id",
				fmt.Sprintf("package %d belongs to service %d", pkg.ID, pkg.ServiceID))
		}
		if pkg.Percentage < 0 || pkg.Percentage > PercentOf(100) {
			return out, newConfigurationError("package_discount", strconv.FormatInt(pkg.ID, 10), "percentage must be between 0 and 100")
		}
		amount, err := pkg.Percentage.Of(running)
		if err != nil {
			return out, err
		}
		out.PackageDiscount = amount
		running -= amount
		if running < 0 {
			return out, newInvariantError(fmt.Sprintf("package discount %d exceeds subtotal %d", amount, subtotal))
		}
	}

	if offer != nil {
		eligible, reason := offerEligible(offer, propertyCount)
		if !eligible {
			out.SpecialOfferSkipReason = reason
		} else {
			amount, err := offerAmount(offer, running)
			if err != nil {
				return out, err
			}
			adj := amount * offer.Adjustment.sign()
			if running, err = addAmounts(running, adj); err != nil {
				return out, err
			}
			out.SpecialOfferAdjustment = adj
			out.SpecialOfferApplied = true
		}
	}

	out.FinalPrice = maxAmount(running, 0)
	return out, nil
}

func offerEligible(offer *SpecialOffer, propertyCount *int) (bool, string) {
	if !offer.Active {
		return false, "offer is not active"
	}
	if offer.MinProperties != nil {
		if propertyCount == nil || *propertyCount < *offer.MinProperties {
			return false, fmt.Sprintf("requires at least %d properties", *offer.MinProperties)
		}
	}
	return true, ""
}

// offerAmount returns the unsigned magnitude of the offer against the running
// total, bounded by MaxDiscount when one is set.
func offerAmount(offer *SpecialOffer, running Amount) (Amount, error) {
	key := strconv.FormatInt(offer.ID, 10)
	if !offer.Adjustment.Valid() {
		return 0, newConfigurationError("special_offer", key, fmt.Sprintf("unrecognized adjustment %q", string(offer.Adjustment)))
	}

	var amount Amount
	switch offer.DiscountType {
	case DiscountTypePercentage:
		pct := Percent(offer.DiscountValue)
		if pct < 0 || (offer.Adjustment == AdjustmentDiscount && pct > PercentOf(100)) {
			return 0, newConfigurationError("special_offer", key, "percentage out of range")
		}
		a, err := pct.Of(running)
		if err != nil {
			return 0, err
		}
		amount = a
	case DiscountTypeFixed:
		if offer.DiscountValue < 0 {
			return 0, newConfigurationError("special_offer", key, "negative fixed value")
		}
		amount = Amount(offer.DiscountValue)
	case DiscountTypeFreeService:
		if offer.Adjustment == AdjustmentPremium {
			return 0, newConfigurationError("special_offer", key, "free_service offers cannot be premiums")
		}
		amount = running
	default:
		return 0, newConfigurationError("special_offer", key, fmt.Sprintf("unrecognized discount type %q", string(offer.DiscountType)))
	}

	if offer.MaxDiscount != nil {
		if *offer.MaxDiscount < 0 {
			return 0, newConfigurationError("special_offer", key, "negative max discount")
		}
		if amount > *offer.MaxDiscount {
			amount = *offer.MaxDiscount
		}
	}
	return amount, nil
}
