package model

import (
	"time"

	"github.com/lib/pq"
)

// Service is a bookable cleaning service. BasePrice is set only for FIXED
// services. All money columns are minor currency units.
type Service struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	PricingType string    `db:"pricing_type" json:"pricing_type"`
	BasePrice   *int64    `db:"base_price" json:"base_price,omitempty"`
	Currency    string    `db:"currency" json:"currency"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type PricingTier struct {
	ID        int64     `db:"id" json:"id"`
	ServiceID int64     `db:"service_id" json:"service_id"`
	Bedrooms  int       `db:"bedrooms" json:"bedrooms"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type SqmRate struct {
	ID            int64     `db:"id" json:"id"`
	ServiceID     int64     `db:"service_id" json:"service_id"`
	Variant       string    `db:"variant" json:"variant"`
	PricePerSqm   int64     `db:"price_per_sqm" json:"price_per_sqm"`
	MinimumCharge int64     `db:"minimum_charge" json:"minimum_charge"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type PricingItem struct {
	ID            int64     `db:"id" json:"id"`
	ServiceID     int64     `db:"service_id" json:"service_id"`
	Name          string    `db:"name" json:"name"`
	Price         int64     `db:"price" json:"price"`
	MinimumCharge int64     `db:"minimum_charge" json:"minimum_charge"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type AddOn struct {
	ID        int64  `db:"id" json:"id"`
	ServiceID *int64 `db:"service_id" json:"service_id,omitempty"`
	Name      string `db:"name" json:"name"`
	Mode      string `db:"pricing_mode" json:"pricing_mode"`
	Price     int64  `db:"price" json:"price"`
	// SizeTierThreshold is square meters; SizeTierMultiplier a percentage.
	SizeTierThreshold  *float64    `db:"size_tier_threshold" json:"size_tier_threshold,omitempty"`
	SizeTierMultiplier *int64      `db:"size_tier_multiplier" json:"size_tier_multiplier,omitempty"`
	IsActive           bool        `db:"is_active" json:"is_active"`
	Tiers              []AddOnTier `db:"-" json:"tiers,omitempty"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
}

type AddOnTier struct {
	AddOnID  int64 `db:"add_on_id" json:"add_on_id"`
	Bedrooms int   `db:"bedrooms" json:"bedrooms"`
	Price    int64 `db:"price" json:"price"`
}

type PackageDiscount struct {
	ID         int64 `db:"id" json:"id"`
	ServiceID  int64 `db:"service_id" json:"service_id"`
	VisitCount int   `db:"visit_count" json:"visit_count"`
	// Percentage is stored in basis points (1000 = 10%).
	Percentage int64     `db:"percentage_bp" json:"percentage_bp"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type SpecialOffer struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	OfferType     string    `db:"offer_type" json:"offer_type"`
	DiscountType  string    `db:"discount_type" json:"discount_type"`
	Adjustment    string    `db:"adjustment" json:"adjustment"`
	DiscountValue int64     `db:"discount_value" json:"discount_value"`
	MaxDiscount   *int64    `db:"max_discount" json:"max_discount,omitempty"`
	MinProperties *int      `db:"min_properties" json:"min_properties,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PricingSnapshot is every row one price calculation reads, loaded together
// in a single read-only transaction.
type PricingSnapshot struct {
	Service         Service          `json:"service"`
	Tiers           []PricingTier    `json:"tiers,omitempty"`
	SqmRates        []SqmRate        `json:"sqm_rates,omitempty"`
	Items           []PricingItem    `json:"items,omitempty"`
	AddOns          []AddOn          `json:"add_ons,omitempty"`
	PackageDiscount *PackageDiscount `json:"package_discount,omitempty"`
	SpecialOffer    *SpecialOffer    `json:"special_offer,omitempty"`
}

// SnapshotQuery names the optional rows a snapshot has to include.
type SnapshotQuery struct {
	ServiceID         int64
	AddOnIDs          pq.Int64Array
	PackageDiscountID *int64
	SpecialOfferID    *int64
}

type ServiceFilters struct {
	ActiveOnly  bool
	PricingType string
}

type CreateServiceRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	PricingType string `json:"pricing_type" validate:"required,oneof=BEDROOM_BASED SQM_BASED ITEM_BASED FIXED"`
	BasePrice   *int64 `json:"base_price" validate:"omitempty,gte=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
}

type UpdateServiceRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	BasePrice   *int64  `json:"base_price" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active"`
}

type UpsertTierRequest struct {
	Bedrooms int   `json:"bedrooms" validate:"gte=0"`
	Price    int64 `json:"price" validate:"gte=0"`
}

type UpsertSqmRateRequest struct {
	Variant       string `json:"variant" validate:"max=100"`
	PricePerSqm   int64  `json:"price_per_sqm" validate:"gte=0"`
	MinimumCharge int64  `json:"minimum_charge" validate:"gte=0"`
}

type UpsertItemRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Price         int64  `json:"price" validate:"gte=0"`
	MinimumCharge int64  `json:"minimum_charge" validate:"gte=0"`
}

// SetItemMinimumRequest changes the order minimum shared by a service's items.
type SetItemMinimumRequest struct {
	MinimumCharge int64 `json:"minimum_charge" validate:"gte=0"`
}

type CreateAddOnRequest struct {
	Name               string              `json:"name" validate:"required,max=200"`
	Mode               string              `json:"pricing_mode" validate:"required,oneof=FIXED PER_BEDROOM SIZE_TIERED"`
	Price              int64               `json:"price" validate:"gte=0"`
	Global             bool                `json:"global"`
	SizeTierThreshold  *float64            `json:"size_tier_threshold" validate:"omitempty,gt=0"`
	SizeTierMultiplier *int64              `json:"size_tier_multiplier" validate:"omitempty,gt=0"`
	Tiers              []UpsertTierRequest `json:"tiers" validate:"dive"`
}

type UpsertPackageRequest struct {
	VisitCount int     `json:"visit_count" validate:"required,gt=0"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

type CreateOfferRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	OfferType     string `json:"offer_type" validate:"required,oneof=REFERRAL PROPERTY_MANAGER EMERGENCY_SAME_DAY"`
	DiscountType  string `json:"discount_type" validate:"required,oneof=percentage fixed free_service"`
	Adjustment    string `json:"adjustment" validate:"required,oneof=discount premium"`
	DiscountValue int64  `json:"discount_value" validate:"gte=0"`
	MaxDiscount   *int64 `json:"max_discount" validate:"omitempty,gte=0"`
	MinProperties *int   `json:"min_properties" validate:"omitempty,gt=0"`
}
