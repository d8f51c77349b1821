package model

import "github.com/jwalitptl/cleaning-api/internal/pricing"

type ItemRequest struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"gt=0,lte=1000"`
}

// PriceRequest is the body shared by price previews, quotes and bookings.
type PriceRequest struct {
	ServiceID             int64         `json:"service_id" validate:"required,gt=0"`
	Bedrooms              *int          `json:"bedrooms" validate:"omitempty,gte=0,lte=50"`
	SquareMeters          *float64      `json:"square_meters" validate:"omitempty,gte=0,lte=100000"`
	SqmVariant            string        `json:"sqm_variant" validate:"max=100"`
	Items                 []ItemRequest `json:"items" validate:"dive"`
	AddOnIDs              []int64       `json:"add_on_ids" validate:"dive,gt=0"`
	PackageDiscountID     *int64        `json:"package_discount_id" validate:"omitempty,gt=0"`
	SpecialOfferID        *int64        `json:"special_offer_id" validate:"omitempty,gt=0"`
	CustomerPropertyCount *int          `json:"customer_property_count" validate:"omitempty,gte=0"`
}

// ToInput converts the request into the calculator's input.
func (r PriceRequest) ToInput() pricing.Input {
	in := pricing.Input{
		ServiceID: r.ServiceID,
		Selections: pricing.Selections{
			Bedrooms:     r.Bedrooms,
			SquareMeters: r.SquareMeters,
			SqmVariant:   r.SqmVariant,
		},
		AddOnIDs:              r.AddOnIDs,
		PackageDiscountID:     r.PackageDiscountID,
		SpecialOfferID:        r.SpecialOfferID,
		CustomerPropertyCount: r.CustomerPropertyCount,
	}
	for _, it := range r.Items {
		in.Selections.Items = append(in.Selections.Items, pricing.ItemQuantity{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	return in
}
