package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var calcTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }
func amountPtr(v Amount) *Amount  { return &v }

func egp(major int64) Amount { return FromMajor(major) }

func serviceApartments() *Catalog {
	return &Catalog{
		Service: Service{ID: 1, Name: "Service Apartments", PricingType: PricingTypeBedroomBased},
		Tiers: []Tier{
			{ServiceID: 1, Bedrooms: 1, Price: egp(1500)},
			{ServiceID: 1, Bedrooms: 2, Price: egp(2000)},
			{ServiceID: 1, Bedrooms: 3, Price: egp(2500)},
		},
		AddOns: []AddOn{
			{
				ID:     10,
				Name:   "Laundry",
				Mode:   AddOnModePerBedroom,
				Active: true,
				Tiers:  []AddOnTier{{Bedrooms: 2, Price: egp(600)}, {Bedrooms: 3, Price: egp(800)}},
			},
			{ID: 11, Name: "Fridge", Mode: AddOnModeFixed, Price: egp(250), Active: true},
			{
				ID:                 12,
				Name:               "Balcony",
				Mode:               AddOnModeSizeTiered,
				Active:             true,
				Tiers:              []AddOnTier{{Bedrooms: 3, Price: egp(400)}},
				SizeTierThreshold:  floatPtr(150),
				SizeTierMultiplier: int64Ptr(150),
			},
			{ID: 13, Name: "Pool deck", ServiceID: int64Ptr(2), Mode: AddOnModeFixed, Price: egp(900), Active: true},
		},
	}
}

func deepCleaning() *Catalog {
	return &Catalog{
		Service:  Service{ID: 2, Name: "Deep Cleaning", PricingType: PricingTypeSqmBased},
		SqmRates: []SqmRate{{ServiceID: 2, Variant: "standard", PricePerSqm: egp(30), MinimumCharge: egp(1500)}},
		AddOns: []AddOn{
			{ID: 20, Name: "Laundry", Mode: AddOnModePerBedroom, Active: true, Tiers: []AddOnTier{{Bedrooms: 3, Price: egp(800)}}},
		},
	}
}

func upholstery() *Catalog {
	return &Catalog{
		Service: Service{ID: 3, Name: "Upholstery", PricingType: PricingTypeItemBased},
		Items: []Item{
			{ID: 31, ServiceID: 3, Name: "Sofa seat", Price: egp(150), MinimumCharge: egp(500)},
			{ID: 32, ServiceID: 3, Name: "Carpet", Price: egp(300), MinimumCharge: egp(500)},
		},
	}
}

func fixedService(price Amount) *Catalog {
	return &Catalog{Service: Service{ID: 4, Name: "Move-out", PricingType: PricingTypeFixed, BasePrice: &price}}
}

func TestResolveBase_BedroomTiers(t *testing.T) {
	c := serviceApartments()

	for bedrooms, want := range map[int]Amount{1: egp(1500), 2: egp(2000), 3: egp(2500)} {
		got, err := ResolveBase(c, Selections{Bedrooms: intPtr(bedrooms)})
		require.NoError(t, err)
		assert.Equal(t, want, got, "bedrooms=%d", bedrooms)
	}

	_, err := ResolveBase(c, Selections{Bedrooms: intPtr(5)})
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
}

func TestResolveBase_DuplicateTierIsConfigurationError(t *testing.T) {
	c := serviceApartments()
	c.Tiers = append(c.Tiers, Tier{ServiceID: 1, Bedrooms: 2, Price: egp(2100)})

	_, err := ResolveBase(c, Selections{Bedrooms: intPtr(2)})
	assert.True(t, IsConfiguration(err))
}

func TestResolveBase_Sqm(t *testing.T) {
	c := deepCleaning()

	tests := []struct {
		name string
		area *float64
		want Amount
	}{
		{"minimum wins", floatPtr(40), egp(1500)},
		{"rate wins", floatPtr(100), egp(3000)},
		{"exact minimum", floatPtr(50), egp(1500)},
		{"fractional area", floatPtr(60.5), egp(1815)},
		{"zero area", floatPtr(0), egp(1500)},
		{"missing area", nil, egp(1500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBase(c, Selections{SquareMeters: tt.area})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculate_RejectsOversizedArea(t *testing.T) {
	for _, area := range []float64{MaxSquareMeters + 0.5, 1e15, 1e17, 1e300} {
		_, err := Calculate(deepCleaning(), Input{ServiceID: 2, Selections: Selections{SquareMeters: floatPtr(area)}}, calcTime)
		require.Error(t, err, "area %g", area)
		assert.True(t, IsInvalidSelection(err), "area %g: %v", area, err)
		assert.False(t, IsInvariant(err))

		_, err = ResolveBase(deepCleaning(), Selections{SquareMeters: floatPtr(area)})
		assert.True(t, IsInvalidSelection(err), "area %g: %v", area, err)
	}

	b, err := Calculate(deepCleaning(), Input{ServiceID: 2, Selections: Selections{SquareMeters: floatPtr(MaxSquareMeters)}}, calcTime)
	require.NoError(t, err)
	assert.Equal(t, egp(30*MaxSquareMeters), b.FinalPrice)
}

func TestResolveBase_SqmVariants(t *testing.T) {
	c := deepCleaning()
	c.SqmRates = append(c.SqmRates, SqmRate{ServiceID: 2, Variant: "post-construction", PricePerSqm: egp(45), MinimumCharge: egp(2500)})

	got, err := ResolveBase(c, Selections{SquareMeters: floatPtr(100), SqmVariant: "post-construction"})
	require.NoError(t, err)
	assert.Equal(t, egp(4500), got)

	_, err = ResolveBase(c, Selections{SquareMeters: floatPtr(100)})
	assert.True(t, IsInvalidSelection(err))

	_, err = ResolveBase(c, Selections{SquareMeters: floatPtr(100), SqmVariant: "villa"})
	assert.True(t, IsConfiguration(err))

	c.SqmRates = nil
	_, err = ResolveBase(c, Selections{SquareMeters: floatPtr(100)})
	assert.True(t, IsConfiguration(err))
}

func TestResolveBase_Items(t *testing.T) {
	c := upholstery()

	got, err := ResolveBase(c, Selections{})
	require.NoError(t, err)
	assert.Equal(t, egp(500), got, "zero items yields the minimum charge")

	got, err = ResolveBase(c, Selections{Items: []ItemQuantity{{ItemID: 31, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, egp(500), got)

	got, err = ResolveBase(c, Selections{Items: []ItemQuantity{{ItemID: 31, Quantity: 3}, {ItemID: 32, Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, egp(1050), got)
}

func TestResolveBase_ItemErrors(t *testing.T) {
	t.Run("unknown item", func(t *testing.T) {
		_, err := ResolveBase(upholstery(), Selections{Items: []ItemQuantity{{ItemID: 99, Quantity: 1}}})
		assert.True(t, IsConfiguration(err))
	})
	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := ResolveBase(upholstery(), Selections{Items: []ItemQuantity{{ItemID: 31, Quantity: 0}}})
		assert.True(t, IsInvalidSelection(err))
	})
	t.Run("duplicate item", func(t *testing.T) {
		_, err := ResolveBase(upholstery(), Selections{Items: []ItemQuantity{{ItemID: 31, Quantity: 1}, {ItemID: 31, Quantity: 2}}})
		assert.True(t, IsInvalidSelection(err))
	})
	t.Run("inconsistent minimum", func(t *testing.T) {
		c := upholstery()
		c.Items[1].MinimumCharge = egp(700)
		_, err := ResolveBase(c, Selections{})
		assert.True(t, IsConfiguration(err))
	})
	t.Run("no items", func(t *testing.T) {
		c := upholstery()
		c.Items = nil
		_, err := ResolveBase(c, Selections{})
		assert.True(t, IsConfiguration(err))
	})
}

func TestResolveBase_Fixed(t *testing.T) {
	got, err := ResolveBase(fixedService(egp(1800)), Selections{})
	require.NoError(t, err)
	assert.Equal(t, egp(1800), got)

	c := fixedService(0)
	c.Service.BasePrice = nil
	_, err = ResolveBase(c, Selections{})
	assert.True(t, IsConfiguration(err))
}

func TestResolveBase_UnknownPricingType(t *testing.T) {
	c := fixedService(egp(100))
	c.Service.PricingType = "HOURLY"
	_, err := ResolveBase(c, Selections{})
	assert.True(t, IsConfiguration(err))
}

func TestPriceAddOns(t *testing.T) {
	c := serviceApartments()

	lines, total, err := PriceAddOns(c, []int64{10, 11}, Selections{Bedrooms: intPtr(3)})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, egp(800), lines[0].Price)
	assert.Equal(t, egp(250), lines[1].Price)
	assert.Equal(t, egp(1050), total)

	_, reversed, err := PriceAddOns(c, []int64{11, 10}, Selections{Bedrooms: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, total, reversed)
}

func TestPriceAddOns_SizeTiered(t *testing.T) {
	c := serviceApartments()

	lines, total, err := PriceAddOns(c, []int64{12}, Selections{Bedrooms: intPtr(3), SquareMeters: floatPtr(180)})
	require.NoError(t, err)
	assert.Equal(t, egp(600), total)
	assert.True(t, lines[0].Multiplied)

	_, total, err = PriceAddOns(c, []int64{12}, Selections{Bedrooms: intPtr(3), SquareMeters: floatPtr(150)})
	require.NoError(t, err)
	assert.Equal(t, egp(400), total, "threshold itself is not exceeded")

	_, total, err = PriceAddOns(c, []int64{12}, Selections{Bedrooms: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, egp(400), total)
}

func TestPriceAddOns_Errors(t *testing.T) {
	t.Run("per-bedroom without bedrooms", func(t *testing.T) {
		_, _, err := PriceAddOns(deepCleaning(), []int64{20}, Selections{SquareMeters: floatPtr(80)})
		assert.True(t, IsInvalidSelection(err))
	})
	t.Run("missing add-on tier", func(t *testing.T) {
		_, _, err := PriceAddOns(serviceApartments(), []int64{10}, Selections{Bedrooms: intPtr(1)})
		assert.True(t, IsConfiguration(err))
	})
	t.Run("unknown add-on", func(t *testing.T) {
		_, _, err := PriceAddOns(serviceApartments(), []int64{77}, Selections{Bedrooms: intPtr(1)})
		assert.True(t, IsConfiguration(err))
	})
	t.Run("add-on of another service", func(t *testing.T) {
		_, _, err := PriceAddOns(serviceApartments(), []int64{13}, Selections{Bedrooms: intPtr(1)})
		assert.True(t, IsInvalidSelection(err))
	})
	t.Run("inactive add-on", func(t *testing.T) {
		c := serviceApartments()
		c.AddOns[1].Active = false
		_, _, err := PriceAddOns(c, []int64{11}, Selections{Bedrooms: intPtr(1)})
		assert.True(t, IsInvalidSelection(err))
	})
	t.Run("duplicate add-on", func(t *testing.T) {
		_, _, err := PriceAddOns(serviceApartments(), []int64{11, 11}, Selections{Bedrooms: intPtr(1)})
		assert.True(t, IsInvalidSelection(err))
	})
}

func TestCompose_SequentialDiscounts(t *testing.T) {
	pkg := &PackageDiscount{ID: 5, ServiceID: 4, VisitCount: 4, Percentage: PercentOf(10)}
	offer := &SpecialOffer{ID: 7, Type: OfferTypeReferral, DiscountType: DiscountTypePercentage,
		Adjustment: AdjustmentDiscount, DiscountValue: int64(PercentOf(10)), Active: true}

	comp, err := Compose(4, egp(2000), pkg, offer, nil)
	require.NoError(t, err)
	assert.Equal(t, egp(200), comp.PackageDiscount)
	assert.Equal(t, -egp(180), comp.SpecialOfferAdjustment)
	assert.Equal(t, egp(1620), comp.FinalPrice)
	assert.NotEqual(t, egp(1600), comp.FinalPrice)
}

func TestCompose_MaxDiscountCap(t *testing.T) {
	offer := &SpecialOffer{ID: 7, Type: OfferTypeReferral, DiscountType: DiscountTypePercentage, Adjustment: AdjustmentDiscount,
		DiscountValue: int64(PercentOf(10)), MaxDiscount: amountPtr(egp(500)), Active: true}

	comp, err := Compose(4, egp(10000), nil, offer, nil)
	require.NoError(t, err)
	assert.Equal(t, -egp(500), comp.SpecialOfferAdjustment)
	assert.Equal(t, egp(9500), comp.FinalPrice)
}

func TestCompose_EmergencyPremium(t *testing.T) {
	offer := &SpecialOffer{ID: 8, Type: OfferTypeEmergencySameDay, DiscountType: DiscountTypePercentage,
		Adjustment: AdjustmentPremium, DiscountValue: int64(PercentOf(50)), Active: true}

	comp, err := Compose(4, egp(2000), nil, offer, nil)
	require.NoError(t, err)
	assert.Equal(t, egp(1000), comp.SpecialOfferAdjustment)
	assert.Equal(t, egp(3000), comp.FinalPrice)
}

func TestCompose_MinPropertiesGate(t *testing.T) {
	offer := &SpecialOffer{ID: 9, Type: OfferTypePropertyManager, DiscountType: DiscountTypePercentage, Adjustment: AdjustmentDiscount,
		DiscountValue: int64(PercentOf(15)), MinProperties: intPtr(3), Active: true}

	comp, err := Compose(4, egp(2000), nil, offer, intPtr(2))
	require.NoError(t, err)
	assert.False(t, comp.SpecialOfferApplied)
	assert.NotEmpty(t, comp.SpecialOfferSkipReason)
	assert.Equal(t, egp(2000), comp.FinalPrice)

	comp, err = Compose(4, egp(2000), nil, offer, nil)
	require.NoError(t, err)
	assert.False(t, comp.SpecialOfferApplied)

	comp, err = Compose(4, egp(2000), nil, offer, intPtr(3))
	require.NoError(t, err)
	assert.True(t, comp.SpecialOfferApplied)
	assert.Equal(t, egp(1700), comp.FinalPrice)
}

func TestCompose_FixedAndFreeService(t *testing.T) {
	fixed := &SpecialOffer{ID: 1, Type: OfferTypeReferral, DiscountType: DiscountTypeFixed, Adjustment: AdjustmentDiscount, DiscountValue: int64(egp(300)), Active: true}
	comp, err := Compose(4, egp(2000), nil, fixed, nil)
	require.NoError(t, err)
	assert.Equal(t, egp(1700), comp.FinalPrice)

	fixed.DiscountValue = int64(egp(5000))
	comp, err = Compose(4, egp(2000), nil, fixed, nil)
	require.NoError(t, err)
	assert.Equal(t, Amount(0), comp.FinalPrice, "final price is floored at zero")

	free := &SpecialOffer{ID: 2, Type: OfferTypeReferral, DiscountType: DiscountTypeFreeService, Adjustment: AdjustmentDiscount, Active: true}
	comp, err = Compose(4, egp(2000), nil, free, nil)
	require.NoError(t, err)
	assert.Equal(t, Amount(0), comp.FinalPrice)

	free.MaxDiscount = amountPtr(egp(750))
	comp, err = Compose(4, egp(2000), nil, free, nil)
	require.NoError(t, err)
	assert.Equal(t, egp(1250), comp.FinalPrice)
}

func TestCompose_RoundsAtEachStep(t *testing.T) {
	pkg := &PackageDiscount{ID: 1, ServiceID: 4, Percentage: Percent(1250)}
	offer := &SpecialOffer{ID: 1, Type: OfferTypeReferral, DiscountType: DiscountTypePercentage, Adjustment: AdjustmentDiscount, DiscountValue: 333, Active: true}

	comp, err := Compose(4, Amount(1001), pkg, offer, nil)
	require.NoError(t, err)
	// 1001 × 12.5% = 125.125 → 125; 876 × 3.33% = 29.17 → 29
	assert.Equal(t, Amount(125), comp.PackageDiscount)
	assert.Equal(t, Amount(-29), comp.SpecialOfferAdjustment)
	assert.Equal(t, Amount(847), comp.FinalPrice)
}

func TestCompose_Errors(t *testing.T) {
	pkg := &PackageDiscount{ID: 1, ServiceID: 99, Percentage: PercentOf(10)}
	_, err := Compose(4, egp(100), pkg, nil, nil)
	assert.True(t, IsInvalidSelection(err))

	_, err = Compose(4, -1, nil, nil, nil)
	assert.True(t, IsInvariant(err))

	bad := &SpecialOffer{ID: 3, DiscountType: "bogo", Adjustment: AdjustmentDiscount, Active: true}
	_, err = Compose(4, egp(100), nil, bad, nil)
	assert.True(t, IsConfiguration(err))
}

func TestCalculate_EndToEnd(t *testing.T) {
	c := serviceApartments()
	c.SpecialOffer = &SpecialOffer{ID: 7, Name: "Referral", Type: OfferTypeReferral, DiscountType: DiscountTypePercentage,
		Adjustment: AdjustmentDiscount, DiscountValue: int64(PercentOf(10)), MaxDiscount: amountPtr(egp(500)), Active: true}
	in := Input{
		ServiceID:      1,
		Selections:     Selections{Bedrooms: intPtr(3)},
		AddOnIDs:       []int64{10},
		SpecialOfferID: int64Ptr(7),
	}

	b, err := Calculate(c, in, calcTime)
	require.NoError(t, err)
	assert.Equal(t, egp(2500), b.BasePrice)
	assert.Equal(t, egp(800), b.AddOnsTotal)
	assert.Equal(t, egp(3300), b.Subtotal)
	assert.Equal(t, Amount(0), b.PackageDiscount)
	assert.Equal(t, -egp(330), b.SpecialOfferAdjustment)
	assert.Equal(t, egp(2970), b.FinalPrice)
	assert.Equal(t, "2970.00", b.FinalPrice.Major())
	assert.Equal(t, []int64{10}, b.Selections.AddOnIDs)
	assert.Equal(t, 3, *b.Selections.Bedrooms)
}

func TestCalculate_SelectionCompatibility(t *testing.T) {
	tests := []struct {
		name    string
		catalog *Catalog
		in      Input
	}{
		{"square meters on bedroom service", serviceApartments(), Input{ServiceID: 1, Selections: Selections{Bedrooms: intPtr(2), SquareMeters: floatPtr(90)}}},
		{"bedroom service without bedrooms", serviceApartments(), Input{ServiceID: 1}},
		{"bedrooms on sqm service", deepCleaning(), Input{ServiceID: 2, Selections: Selections{Bedrooms: intPtr(2)}}},
		{"items on sqm service", deepCleaning(), Input{ServiceID: 2, Selections: Selections{Items: []ItemQuantity{{ItemID: 1, Quantity: 1}}}}},
		{"area on item service", upholstery(), Input{ServiceID: 3, Selections: Selections{SquareMeters: floatPtr(20)}}},
		{"selections on fixed service", fixedService(egp(100)), Input{ServiceID: 4, Selections: Selections{Bedrooms: intPtr(1)}}},
		{"negative bedrooms", serviceApartments(), Input{ServiceID: 1, Selections: Selections{Bedrooms: intPtr(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.catalog, tt.in, calcTime)
			require.Error(t, err)
			assert.True(t, IsInvalidSelection(err), "got %v", err)
		})
	}
}

func TestCalculate_SquareMetersAllowedForSizeTieredAddOn(t *testing.T) {
	b, err := Calculate(serviceApartments(), Input{
		ServiceID:  1,
		Selections: Selections{Bedrooms: intPtr(3), SquareMeters: floatPtr(200)},
		AddOnIDs:   []int64{12},
	}, calcTime)
	require.NoError(t, err)
	assert.Equal(t, egp(3100), b.FinalPrice)
}

func TestCalculate_MissingTierAbortsWithoutZeroPrice(t *testing.T) {
	b, err := Calculate(serviceApartments(), Input{ServiceID: 1, Selections: Selections{Bedrooms: intPtr(6)}}, calcTime)
	assert.Nil(t, b)
	assert.True(t, IsConfiguration(err))
}

func TestCalculate_MissingPackageIsConfigurationError(t *testing.T) {
	_, err := Calculate(fixedService(egp(100)), Input{ServiceID: 4, PackageDiscountID: int64Ptr(3)}, calcTime)
	assert.True(t, IsConfiguration(err))
}

func TestBreakdown_RoundTripIsIndependentOfCatalogChanges(t *testing.T) {
	c := serviceApartments()
	c.PackageDiscount = &PackageDiscount{ID: 2, ServiceID: 1, VisitCount: 4, Percentage: PercentOf(10)}
	in := Input{ServiceID: 1, Selections: Selections{Bedrooms: intPtr(2)}, AddOnIDs: []int64{11}, PackageDiscountID: int64Ptr(2)}

	b, err := Calculate(c, in, calcTime)
	require.NoError(t, err)
	data, err := b.Encode()
	require.NoError(t, err)

	c.Tiers[1].Price = egp(9999)
	c.AddOns[1].Price = egp(1)

	stored, err := DecodeBreakdown(data)
	require.NoError(t, err)
	assert.Equal(t, b.FinalPrice, stored.FinalPrice)
	assert.Equal(t, egp(2025), stored.FinalPrice)
	assert.Equal(t, *b, *stored)

	again, err := Calculate(c, in, calcTime)
	require.NoError(t, err)
	assert.NotEqual(t, stored.FinalPrice, again.FinalPrice)
}

func TestBreakdown_VerifyDetectsTampering(t *testing.T) {
	b, err := Calculate(fixedService(egp(1000)), Input{ServiceID: 4}, calcTime)
	require.NoError(t, err)

	b.FinalPrice = egp(1)
	assert.True(t, IsInvariant(b.Verify()))

	data, err := b.Encode()
	require.NoError(t, err)
	_, err = DecodeBreakdown(data)
	assert.True(t, IsInvariant(err))
}
