package pricing

import (
	"math"
	"time"

	"ms-registration/internal/models"
)

// Resolver picks the single applicable unit price for an item at a given
// instant. Precedence is flash deal, then early bird, then standard; a tier
// with a non-positive price never wins even when its window is active.
//
// Date convention: early-bird end dates and both flash bounds are
// inclusive. Resolving exactly at the stored end instant still returns the
// promotional price; one second later returns standard.
type Resolver struct{}

func NewResolver() Resolver {
	return Resolver{}
}

// Round2 rounds a currency amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func flashActive(price float64, start, end, now time.Time) bool {
	if price <= 0 || start.IsZero() || end.IsZero() {
		return false
	}
	return !now.Before(start) && !now.After(end)
}

func earlyBirdActive(price float64, end, now time.Time) bool {
	if price <= 0 || end.IsZero() {
		return false
	}
	return !now.After(end)
}

// ItemPrice resolves a workshop, milonga or table price: early bird while
// its end date has not passed, standard otherwise.
func (Resolver) ItemPrice(standard, earlyBird float64, earlyBirdEnd, now time.Time) float64 {
	if earlyBirdActive(earlyBird, earlyBirdEnd, now) {
		return earlyBird
	}
	if standard > 0 {
		return standard
	}
	return 0
}

// PackagePrice resolves the embedded event pricing for a bundled package
// type. Accommodation packages never evaluate the flash step and the custom
// package carries no package price at all.
func (Resolver) PackagePrice(ev *models.Event, pkg models.PackageType, now time.Time) float64 {
	if ev == nil {
		return 0
	}

	var standard, earlyBird, flash float64
	var earlyBirdEnd, flashStart, flashEnd time.Time

	switch pkg {
	case models.PackageFull:
		standard, earlyBird, flash = ev.FullStandardPrice, ev.FullEarlyBirdPrice, ev.FullFlashPrice
		earlyBirdEnd, flashStart, flashEnd = ev.FullEarlyBirdEnd, ev.FullFlashStart, ev.FullFlashEnd
	case models.PackageEvening:
		standard, earlyBird, flash = ev.EveningStandardPrice, ev.EveningEarlyBirdPrice, ev.EveningFlashPrice
		earlyBirdEnd, flashStart, flashEnd = ev.EveningEarlyBirdEnd, ev.EveningFlashStart, ev.EveningFlashEnd
	default:
		return 0
	}

	if flashActive(flash, flashStart, flashEnd, now) {
		return flash
	}
	if earlyBirdActive(earlyBird, earlyBirdEnd, now) {
		return earlyBird
	}
	if standard > 0 {
		return standard
	}
	return 0
}

// WorkshopPrice resolves one workshop's unit price. Event-level workshop
// pricing, when configured, takes precedence over the workshop's own listed
// price.
func (r Resolver) WorkshopPrice(ev *models.Event, w *models.Workshop, now time.Time) float64 {
	if w == nil {
		return 0
	}
	if ev != nil {
		if earlyBirdActive(ev.WorkshopEarlyBirdPrice, ev.WorkshopEarlyBirdEnd, now) {
			return ev.WorkshopEarlyBirdPrice
		}
		if ev.WorkshopStandardPrice > 0 {
			return ev.WorkshopStandardPrice
		}
	}
	return r.ItemPrice(w.StandardPrice, w.EarlyBirdPrice, w.EarlyBirdEnd, now)
}

// MilongaPrice resolves one milonga's unit price.
func (r Resolver) MilongaPrice(m *models.Milonga, now time.Time) float64 {
	if m == nil {
		return 0
	}
	return r.ItemPrice(m.StandardPrice, m.EarlyBirdPrice, m.EarlyBirdEnd, now)
}

// TablePrice resolves the per-seat gala table price.
func (r Resolver) TablePrice(t *models.Table, now time.Time) float64 {
	if t == nil {
		return 0
	}
	return r.ItemPrice(t.StandardPrice, t.EarlyBirdPrice, t.EarlyBirdEnd, now)
}

// AccommodationPrice resolves a per-night-count accommodation rate. The
// rate already differs by occupancy, so the caller applies no multiplier.
func (r Resolver) AccommodationPrice(rate *models.AccommodationRate, role models.Role, now time.Time) float64 {
	if rate == nil {
		return 0
	}
	if role == models.RoleCouple {
		return r.ItemPrice(rate.DoublePrice, rate.DoubleEarlyBird, rate.EarlyBirdEnd, now)
	}
	return r.ItemPrice(rate.SoloPrice, rate.SoloEarlyBird, rate.EarlyBirdEnd, now)
}
