package pricing

// Service is the pricing-relevant view of a cleaning service.
type Service struct {
	ID          int64
	Name        string
	PricingType PricingType
	Currency    string
	// BasePrice is only consulted for FIXED services.
	BasePrice *Amount
}

// Tier maps a bedroom count to a price for one service.
type Tier struct {
	ServiceID int64
	Bedrooms  int
	Price     Amount
}

// SqmRate is a per-square-meter rate with a floor.
type SqmRate struct {
	ServiceID     int64
	Variant       string
	PricePerSqm   Amount
	MinimumCharge Amount
}

// Item is a priced unit of an item-based service. Every item of a service
// carries the same MinimumCharge.
type Item struct {
	ID            int64
	ServiceID     int64
	Name          string
	Price         Amount
	MinimumCharge Amount
}

type AddOnTier struct {
	Bedrooms int
	Price    Amount
}

type AddOn struct {
	ID int64
	// ServiceID is nil for add-ons offered on every service.
	ServiceID *int64
	Name      string
	Mode      AddOnMode
	Price     Amount
	Tiers     []AddOnTier
	// SizeTierThreshold is in square meters; SizeTierMultiplier is a
	// percentage (150 means ×1.5).
	SizeTierThreshold  *float64
	SizeTierMultiplier *int64
	Active             bool
}

type PackageDiscount struct {
	ID         int64
	ServiceID  int64
	VisitCount int
	Percentage Percent
}

type SpecialOffer struct {
	ID           int64
	Name         string
	Type         OfferType
	DiscountType DiscountType
	Adjustment   Adjustment
	// DiscountValue is a Percent for percentage offers and an Amount in minor
	// units for fixed offers. Ignored for free_service.
	DiscountValue int64
	MaxDiscount   *Amount
	MinProperties *int
	Active        bool
}

// Catalog is the snapshot of pricing rows one calculation reads. It is loaded
// by the caller and never mutated here.
type Catalog struct {
	Service         Service
	Tiers           []Tier
	SqmRates        []SqmRate
	Items           []Item
	AddOns          []AddOn
	PackageDiscount *PackageDiscount
	SpecialOffer    *SpecialOffer
}

type ItemQuantity struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type Selections struct {
	Bedrooms     *int           `json:"bedrooms,omitempty"`
	SquareMeters *float64       `json:"square_meters,omitempty"`
	SqmVariant   string         `json:"sqm_variant,omitempty"`
	Items        []ItemQuantity `json:"items,omitempty"`
}

// Input is what the booking and quote flows hand to Calculate.
type Input struct {
	ServiceID             int64      `json:"service_id"`
	Selections            Selections `json:"selections"`
	AddOnIDs              []int64    `json:"add_on_ids,omitempty"`
	PackageDiscountID     *int64     `json:"package_discount_id,omitempty"`
	SpecialOfferID        *int64     `json:"special_offer_id,omitempty"`
	CustomerPropertyCount *int       `json:"customer_property_count,omitempty"`
}
