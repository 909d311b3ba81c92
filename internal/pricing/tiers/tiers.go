package tiers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/pricing"

	"github.com/uptrace/bun"
)

// Service is the read-only consumer contract for the generalized pricing
// tables (PricingTier and PackageConfiguration). This is a parallel pricing
// path from the embedded Event fields used at checkout; it backs its own
// quote endpoint and is not consulted by the registration transaction.
type Service struct {
	DB     *bun.DB
	logger *logger.Logger
}

func NewService(db *bun.DB, log *logger.Logger) *Service {
	return &Service{DB: db, logger: log}
}

// ActiveTier returns the single applicable tier for an event: active,
// window containing now, highest priority. Nil when no tier applies.
func (s *Service) ActiveTier(ctx context.Context, eventID string, now time.Time) (*models.PricingTier, error) {
	var tiers []models.PricingTier
	err := s.DB.NewSelect().
		Model(&tiers).
		Where("event_id = ?", eventID).
		Where("active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing tiers: %w", err)
	}

	applicable := tiers[:0]
	for _, t := range tiers {
		if !now.Before(t.StartDate) && !now.After(t.EndDate) {
			applicable = append(applicable, t)
		}
	}
	if len(applicable) == 0 {
		return nil, nil
	}

	sort.Slice(applicable, func(i, j int) bool {
		return applicable[i].Priority > applicable[j].Priority
	})
	tier := applicable[0]
	if s.logger != nil {
		s.logger.Debug("PRICING", fmt.Sprintf("Active tier for event %s: %s (priority %d)", eventID, tier.Name, tier.Priority))
	}
	return &tier, nil
}

// PackageConfig returns the single active configuration row for an event +
// package type, or nil when none is stored.
func (s *Service) PackageConfig(ctx context.Context, eventID string, pkg models.PackageType) (*models.PackageConfiguration, error) {
	var cfg models.PackageConfiguration
	err := s.DB.NewSelect().
		Model(&cfg).
		Where("event_id = ?", eventID).
		Where("package_type = ?", pkg).
		Where("active = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		// Missing configuration is a soft failure, pricing falls back
		// to the package defaults.
		return nil, nil
	}
	return &cfg, nil
}

// ApplyTier layers a general discount on a subtotal: percentage first, then
// the fixed amount, floored at zero.
func ApplyTier(subtotal float64, tier *models.PricingTier) float64 {
	if tier == nil {
		return pricing.Round2(subtotal)
	}
	result := subtotal
	if tier.DiscountPercent > 0 {
		result = result * (1 - tier.DiscountPercent/100)
	}
	if tier.DiscountAmount > 0 {
		result = result - tier.DiscountAmount
	}
	if result < 0 {
		result = 0
	}
	return pricing.Round2(result)
}
