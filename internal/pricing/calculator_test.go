package pricing_test

import (
	"fmt"
	"testing"
	"time"

	"ms-registration/internal/models"
	"ms-registration/internal/pricing"

	"github.com/stretchr/testify/assert"
)

func testCatalog() pricing.Catalog {
	cat := pricing.Catalog{
		Workshops: map[string]models.Workshop{},
		Milongas: map[string]models.Milonga{
			"m1": {ID: "m1", Title: "Friday Milonga", StandardPrice: 40},
			"m2": {ID: "m2", Title: "Saturday Milonga", StandardPrice: 50},
		},
		Tables: map[int]models.Table{
			7: {Number: 7, TotalSeats: 8, StandardPrice: 75},
		},
		Addons: map[string]models.Addon{
			"tshirt": {ID: "tshirt", Name: "Festival T-Shirt", UnitPrice: 25},
		},
		Rates: []models.AccommodationRate{
			{PackageType: models.PackageInn, Nights: 3, SoloPrice: 900, DoublePrice: 1400},
		},
	}
	for i := 1; i <= 8; i++ {
		id := fmt.Sprintf("w%d", i)
		cat.Workshops[id] = models.Workshop{ID: id, StandardPrice: 180}
	}
	return cat
}

func workshopIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("w%d", i+1)
	}
	return ids
}

func TestComputeTotalSoloFullEarlyBird(t *testing.T) {
	calc := pricing.NewCalculator()
	ev := testEvent()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	draft := models.RegistrationDraft{
		PackageType: models.PackageFull,
		Role:        models.RoleLeader,
		WorkshopIDs: workshopIDs(6),
		MilongaIDs:  []string{"m1", "m2"},
	}

	b := calc.ComputeTotal(draft, ev, nil, testCatalog(), now)

	// Six workshops are bundled, milongas are bundled, leaving only the
	// early-bird package price.
	assert.Equal(t, 1200.0, b.PackageTotal)
	assert.Equal(t, 0.0, b.WorkshopTotal)
	assert.Equal(t, 0.0, b.MilongaTotal)
	assert.Equal(t, 1200.0, b.Total)
}

func TestComputeTotalCoupleWorkshopOverage(t *testing.T) {
	calc := pricing.NewCalculator()
	ev := testEvent()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) // all promos expired

	draft := models.RegistrationDraft{
		PackageType: models.PackageFull,
		Role:        models.RoleCouple,
		WorkshopIDs: workshopIDs(7),
	}

	b := calc.ComputeTotal(draft, ev, nil, testCatalog(), now)

	// Standard package doubled for the couple, plus one workshop beyond
	// the six-included allowance at 180 for each partner.
	assert.Equal(t, 3000.0, b.PackageTotal)
	assert.Equal(t, 360.0, b.WorkshopTotal)
	assert.Equal(t, 3360.0, b.Total)
}

func TestComputeTotalCustomPackageChargesEverything(t *testing.T) {
	calc := pricing.NewCalculator()
	ev := testEvent()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	draft := models.RegistrationDraft{
		PackageType: models.PackageCustom,
		Role:        models.RoleFollower,
		WorkshopIDs: workshopIDs(2),
		MilongaIDs:  []string{"m1", "m2"},
		TableNumber: 7,
		Addons:      []models.AddonSelection{{AddonID: "tshirt", Quantity: 2}},
	}

	b := calc.ComputeTotal(draft, ev, nil, testCatalog(), now)

	assert.Equal(t, 0.0, b.PackageTotal)
	assert.Equal(t, 360.0, b.WorkshopTotal) // no included allowance
	assert.Equal(t, 90.0, b.MilongaTotal)
	assert.Equal(t, 75.0, b.GalaTotal) // one seat
	assert.Equal(t, 50.0, b.AddonTotal)
	assert.Equal(t, 575.0, b.Total)
}

func TestComputeTotalGalaSeatsFollowRole(t *testing.T) {
	calc := pricing.NewCalculator()
	ev := testEvent()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	draft := models.RegistrationDraft{
		PackageType: models.PackageCustom,
		Role:        models.RoleCouple,
		TableNumber: 7,
	}

	b := calc.ComputeTotal(draft, ev, nil, testCatalog(), now)
	assert.Equal(t, 150.0, b.GalaTotal) // two seats at 75
}

func TestComputeTotalIncludedAllowanceFollowsSelectionOrder(t *testing.T) {
	calc := pricing.NewCalculator()
	ev := testEvent()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	cfg := &models.PackageConfiguration{
		PackageType:       models.PackageFull,
		CoupleMultiplier:  2,
		IncludedWorkshops: 2,
		BundlesMilongas:   true,
	}

	draft := models.RegistrationDraft{
		PackageType: models.PackageFull,
		Role:        models.RoleLeader,
		WorkshopIDs: []string{"w1", "w2", "w3"},
	}

	b := calc.ComputeTotal(draft, ev, cfg, testCatalog(), now)
	// Only the third selection is charged.
	assert.Equal(t, 180.0, b.WorkshopTotal)
}

func TestComputeTotalWorkshopOverridesFromConfig(t *testing.T) {
	calc := pricing.NewCalculator()
	ev := testEvent()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// A flat overage price replaces per-workshop resolution.
	cfg := &models.PackageConfiguration{
		PackageType:          models.PackageFull,
		IncludedWorkshops:    6,
		BundlesMilongas:      true,
		BundlesGalaTable:     true,
		WorkshopOveragePrice: 100,
	}
	draft := models.RegistrationDraft{
		PackageType: models.PackageFull,
		Role:        models.RoleLeader,
		WorkshopIDs: workshopIDs(8),
	}
	b := calc.ComputeTotal(draft, ev, cfg, testCatalog(), now)
	assert.Equal(t, 200.0, b.WorkshopTotal)

	// A custom price table keyed by workshop count wins over everything.
	cfg.CustomPriceTable = map[int]float64{8: 950}
	b = calc.ComputeTotal(draft, ev, cfg, testCatalog(), now)
	assert.Equal(t, 950.0, b.WorkshopTotal)
}

func TestComputeTotalAccommodationPackage(t *testing.T) {
	calc := pricing.NewCalculator()
	ev := testEvent()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	draft := models.RegistrationDraft{
		PackageType: models.PackageInn,
		Role:        models.RoleCouple,
		Nights:      3,
	}

	b := calc.ComputeTotal(draft, ev, nil, testCatalog(), now)
	// Double-occupancy rate, no couple multiplier on top.
	assert.Equal(t, 1400.0, b.PackageTotal)

	// Missing night count resolves to zero, never an error.
	draft.Nights = 5
	b = calc.ComputeTotal(draft, ev, nil, testCatalog(), now)
	assert.Equal(t, 0.0, b.PackageTotal)
}

func TestComputeTotalNilEvent(t *testing.T) {
	calc := pricing.NewCalculator()
	draft := models.RegistrationDraft{
		PackageType: models.PackageFull,
		Role:        models.RoleCouple,
		WorkshopIDs: workshopIDs(8),
		TableNumber: 7,
	}

	b := calc.ComputeTotal(draft, nil, nil, testCatalog(), time.Now())
	assert.Equal(t, pricing.Breakdown{}, b)
}

func TestComputeTotalIsPure(t *testing.T) {
	calc := pricing.NewCalculator()
	ev := testEvent()
	cat := testCatalog()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	draft := models.RegistrationDraft{
		PackageType: models.PackageFull,
		Role:        models.RoleCouple,
		WorkshopIDs: workshopIDs(7),
		MilongaIDs:  []string{"m1"},
		TableNumber: 7,
		Addons:      []models.AddonSelection{{AddonID: "tshirt", Quantity: 1}},
	}

	first := calc.ComputeTotal(draft, ev, nil, cat, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, calc.ComputeTotal(draft, ev, nil, cat, now))
	}
}
