package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PricingTier is a generalized event-wide promotion window. Multiple tiers
// may overlap; the engine picks the single active tier with the highest
// priority. Percentage and amount are both allowed to be zero.
type PricingTier struct {
	bun.BaseModel `bun:"table:pricing_tiers"`

	ID              int64     `json:"id" bun:"id,pk,autoincrement"`
	EventID         string    `json:"event_id" bun:"event_id,notnull"`
	Name            string    `json:"name" bun:"name,notnull"`
	Description     string    `json:"description" bun:"description"`
	StartDate       time.Time `json:"start_date" bun:"start_date,notnull"`
	EndDate         time.Time `json:"end_date" bun:"end_date,notnull"`
	DiscountPercent float64   `json:"discount_percent" bun:"discount_percent"`
	DiscountAmount  float64   `json:"discount_amount" bun:"discount_amount"`
	Priority        int       `json:"priority" bun:"priority"`
	Active          bool      `json:"active" bun:"active"`
}

// PackageConfiguration generalizes package pricing outside the embedded
// Event fields. One row per event + package type.
type PackageConfiguration struct {
	bun.BaseModel `bun:"table:package_configurations"`

	ID                   int64           `json:"id" bun:"id,pk,autoincrement"`
	EventID              string          `json:"event_id" bun:"event_id,notnull"`
	PackageType          PackageType     `json:"package_type" bun:"package_type,notnull"`
	BasePrice            float64         `json:"base_price" bun:"base_price"`
	CoupleMultiplier     float64         `json:"couple_multiplier" bun:"couple_multiplier"`
	IncludedWorkshops    int             `json:"included_workshops" bun:"included_workshops"`
	BundlesMilongas      bool            `json:"bundles_milongas" bun:"bundles_milongas"`
	BundlesGalaTable     bool            `json:"bundles_gala_table" bun:"bundles_gala_table"`
	WorkshopOveragePrice float64         `json:"workshop_overage_price" bun:"workshop_overage_price"`
	CustomPriceTable     map[int]float64 `json:"custom_price_table,omitempty" bun:"custom_price_table,type:jsonb,nullzero"`
	Active               bool            `json:"active" bun:"active"`
}
