package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PackageType is the top-level product a registrant buys.
type PackageType string

const (
	PackageFull    PackageType = "full"
	PackageEvening PackageType = "evening"
	PackageCustom  PackageType = "custom"
	PackageInn     PackageType = "festival-inn"
	PackageInnPlus PackageType = "festival-inn-plus"
)

// IsAccommodation reports whether the package includes hotel nights.
// Accommodation packages are priced per night count and occupancy, never
// through flash deals or couple multipliers.
func (p PackageType) IsAccommodation() bool {
	return p == PackageInn || p == PackageInnPlus
}

// Event is one festival edition. Package pricing for the bundled package
// types is embedded: a standard price, an optional early-bird price with
// end date, and an optional time-boxed flash price.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID                 string    `json:"id" bun:"id,pk"`
	Year               int       `json:"year" bun:"year,notnull"`
	StartDate          time.Time `json:"start_date" bun:"start_date,notnull"`
	EndDate            time.Time `json:"end_date" bun:"end_date,notnull"`
	RegistrationOpens  time.Time `json:"registration_opens" bun:"registration_opens,nullzero"`
	RegistrationCloses time.Time `json:"registration_closes" bun:"registration_closes,nullzero"`
	IsCurrent          bool      `json:"is_current" bun:"is_current"`

	FullStandardPrice  float64   `json:"full_standard_price" bun:"full_standard_price"`
	FullEarlyBirdPrice float64   `json:"full_early_bird_price" bun:"full_early_bird_price"`
	FullEarlyBirdEnd   time.Time `json:"full_early_bird_end" bun:"full_early_bird_end,nullzero"`
	FullFlashPrice     float64   `json:"full_flash_price" bun:"full_flash_price"`
	FullFlashStart     time.Time `json:"full_flash_start" bun:"full_flash_start,nullzero"`
	FullFlashEnd       time.Time `json:"full_flash_end" bun:"full_flash_end,nullzero"`

	EveningStandardPrice  float64   `json:"evening_standard_price" bun:"evening_standard_price"`
	EveningEarlyBirdPrice float64   `json:"evening_early_bird_price" bun:"evening_early_bird_price"`
	EveningEarlyBirdEnd   time.Time `json:"evening_early_bird_end" bun:"evening_early_bird_end,nullzero"`
	EveningFlashPrice     float64   `json:"evening_flash_price" bun:"evening_flash_price"`
	EveningFlashStart     time.Time `json:"evening_flash_start" bun:"evening_flash_start,nullzero"`
	EveningFlashEnd       time.Time `json:"evening_flash_end" bun:"evening_flash_end,nullzero"`

	// Event-level workshop pricing. When a standard or active early-bird
	// price is configured here it overrides the per-workshop listed price.
	WorkshopStandardPrice  float64   `json:"workshop_standard_price" bun:"workshop_standard_price"`
	WorkshopEarlyBirdPrice float64   `json:"workshop_early_bird_price" bun:"workshop_early_bird_price"`
	WorkshopEarlyBirdEnd   time.Time `json:"workshop_early_bird_end" bun:"workshop_early_bird_end,nullzero"`

	CreatedAt time.Time `json:"created_at" bun:"created_at,notnull"`
}

// AccommodationRate prices an accommodation package by night count.
// Solo and double occupancy carry their own prices, so no role multiplier
// is applied on top.
type AccommodationRate struct {
	bun.BaseModel `bun:"table:accommodation_rates"`

	ID              int64       `json:"id" bun:"id,pk,autoincrement"`
	EventID         string      `json:"event_id" bun:"event_id,notnull"`
	PackageType     PackageType `json:"package_type" bun:"package_type,notnull"`
	Nights          int         `json:"nights" bun:"nights,notnull"`
	SoloPrice       float64     `json:"solo_price" bun:"solo_price"`
	DoublePrice     float64     `json:"double_price" bun:"double_price"`
	SoloEarlyBird   float64     `json:"solo_early_bird" bun:"solo_early_bird"`
	DoubleEarlyBird float64     `json:"double_early_bird" bun:"double_early_bird"`
	EarlyBirdEnd    time.Time   `json:"early_bird_end" bun:"early_bird_end,nullzero"`
}
