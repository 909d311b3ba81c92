package pricing

import (
	"time"

	"ms-registration/internal/models"
)

// Catalog is the immutable snapshot of purchasable items the calculator
// prices against. Lookups that miss resolve to a zero charge rather than an
// error so a partially-configured event never blocks checkout.
type Catalog struct {
	Workshops map[string]models.Workshop
	Milongas  map[string]models.Milonga
	Tables    map[int]models.Table
	Addons    map[string]models.Addon
	Rates     []models.AccommodationRate
}

func (c Catalog) rateFor(pkg models.PackageType, nights int) *models.AccommodationRate {
	for i := range c.Rates {
		if c.Rates[i].PackageType == pkg && c.Rates[i].Nights == nights {
			return &c.Rates[i]
		}
	}
	return nil
}

// Breakdown carries the per-component amounts that sum to the registration
// total.
type Breakdown struct {
	PackageTotal  float64 `json:"package_total"`
	WorkshopTotal float64 `json:"workshop_total"`
	MilongaTotal  float64 `json:"milonga_total"`
	GalaTotal     float64 `json:"gala_total"`
	AddonTotal    float64 `json:"addon_total"`
	Total         float64 `json:"total"`
}

// Calculator aggregates resolved item prices into one registration total
// under the package's inclusion rules. It is a pure function of its inputs
// and "now"; it holds no mutable state.
type Calculator struct {
	resolver Resolver
}

func NewCalculator() Calculator {
	return Calculator{resolver: NewResolver()}
}

// defaultPackageConfig supplies the inclusion rules when no
// PackageConfiguration row is stored for the event + package type.
func defaultPackageConfig(pkg models.PackageType) models.PackageConfiguration {
	cfg := models.PackageConfiguration{
		PackageType:      pkg,
		CoupleMultiplier: 2,
	}
	switch pkg {
	case models.PackageFull, models.PackageInn, models.PackageInnPlus:
		cfg.IncludedWorkshops = 6
		cfg.BundlesMilongas = true
		cfg.BundlesGalaTable = true
	case models.PackageEvening:
		cfg.BundlesMilongas = true
		cfg.BundlesGalaTable = false
	case models.PackageCustom:
		cfg.BundlesMilongas = false
		cfg.BundlesGalaTable = false
	}
	return cfg
}

// ComputeTotal prices a registration draft against an event snapshot. A nil
// event yields a zero breakdown; individually missing items fall back to a
// zero charge.
func (c Calculator) ComputeTotal(draft models.RegistrationDraft, ev *models.Event, cfg *models.PackageConfiguration, cat Catalog, now time.Time) Breakdown {
	var b Breakdown
	if ev == nil {
		return b
	}

	conf := defaultPackageConfig(draft.PackageType)
	if cfg != nil {
		conf = *cfg
	}
	multiplier := 1.0
	if draft.Role == models.RoleCouple {
		multiplier = 2
		if conf.CoupleMultiplier > 0 {
			multiplier = conf.CoupleMultiplier
		}
	}

	b.PackageTotal = c.packageTotal(draft, ev, multiplier, cat, now)
	b.WorkshopTotal = c.workshopTotal(draft, ev, conf, multiplier, cat, now)
	b.MilongaTotal = c.milongaTotal(draft, conf, multiplier, cat, now)
	b.GalaTotal = c.galaTotal(draft, conf, cat, now)
	b.AddonTotal = c.addonTotal(draft, cat)

	b.Total = Round2(b.PackageTotal + b.WorkshopTotal + b.MilongaTotal + b.GalaTotal + b.AddonTotal)
	return b
}

func (c Calculator) packageTotal(draft models.RegistrationDraft, ev *models.Event, multiplier float64, cat Catalog, now time.Time) float64 {
	switch {
	case draft.PackageType.IsAccommodation():
		// Per-night rates already account for occupancy, no multiplier.
		return c.resolver.AccommodationPrice(cat.rateFor(draft.PackageType, draft.Nights), draft.Role, now)
	case draft.PackageType == models.PackageCustom:
		return 0
	default:
		return c.resolver.PackagePrice(ev, draft.PackageType, now) * multiplier
	}
}

func (c Calculator) workshopTotal(draft models.RegistrationDraft, ev *models.Event, conf models.PackageConfiguration, multiplier float64, cat Catalog, now time.Time) float64 {
	if len(draft.WorkshopIDs) == 0 {
		return 0
	}

	// A custom price table keyed by the exact workshop count overrides
	// per-workshop summation entirely.
	if price, ok := conf.CustomPriceTable[len(draft.WorkshopIDs)]; ok {
		return price * multiplier
	}

	total := 0.0
	for i, id := range draft.WorkshopIDs {
		// The first IncludedWorkshops selections, in selection order,
		// are bundled into the package.
		if i < conf.IncludedWorkshops {
			continue
		}
		unit := conf.WorkshopOveragePrice
		if unit <= 0 {
			w, ok := cat.Workshops[id]
			if !ok {
				continue
			}
			unit = c.resolver.WorkshopPrice(ev, &w, now)
		}
		total += unit * multiplier
	}
	return total
}

func (c Calculator) milongaTotal(draft models.RegistrationDraft, conf models.PackageConfiguration, multiplier float64, cat Catalog, now time.Time) float64 {
	if conf.BundlesMilongas {
		return 0
	}
	total := 0.0
	for _, id := range draft.MilongaIDs {
		m, ok := cat.Milongas[id]
		if !ok {
			continue
		}
		total += c.resolver.MilongaPrice(&m, now) * multiplier
	}
	return total
}

func (c Calculator) galaTotal(draft models.RegistrationDraft, conf models.PackageConfiguration, cat Catalog, now time.Time) float64 {
	if draft.TableNumber == 0 || conf.BundlesGalaTable {
		return 0
	}
	t, ok := cat.Tables[draft.TableNumber]
	if !ok {
		return 0
	}
	return c.resolver.TablePrice(&t, now) * float64(draft.Role.Seats())
}

func (c Calculator) addonTotal(draft models.RegistrationDraft, cat Catalog) float64 {
	total := 0.0
	for _, sel := range draft.Addons {
		a, ok := cat.Addons[sel.AddonID]
		if !ok || sel.Quantity <= 0 {
			continue
		}
		total += a.UnitPrice * float64(sel.Quantity)
	}
	return total
}
