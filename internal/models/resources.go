package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Workshop is a purchasable class slot. Enrollment is derived from the
// live registration set, never stored; EnforceCapacity stays false by
// product decision, the capacities are informational.
type Workshop struct {
	bun.BaseModel `bun:"table:workshops"`

	ID               string    `json:"id" bun:"id,pk"`
	EventID          string    `json:"event_id" bun:"event_id,notnull"`
	Title            string    `json:"title" bun:"title,notnull"`
	Date             string    `json:"date" bun:"date,notnull"`
	StartTime        string    `json:"start_time" bun:"start_time,notnull"`
	StandardPrice    float64   `json:"standard_price" bun:"standard_price"`
	EarlyBirdPrice   float64   `json:"early_bird_price" bun:"early_bird_price"`
	EarlyBirdEnd     time.Time `json:"early_bird_end" bun:"early_bird_end,nullzero"`
	LeaderCapacity   int       `json:"leader_capacity" bun:"leader_capacity"`
	FollowerCapacity int       `json:"follower_capacity" bun:"follower_capacity"`
	EnforceCapacity  bool      `json:"enforce_capacity" bun:"enforce_capacity"`
}

// Milonga is a social-dance event. Same pricing shape as a workshop but a
// single generic capacity.
type Milonga struct {
	bun.BaseModel `bun:"table:milongas"`

	ID              string    `json:"id" bun:"id,pk"`
	EventID         string    `json:"event_id" bun:"event_id,notnull"`
	Title           string    `json:"title" bun:"title,notnull"`
	Date            string    `json:"date" bun:"date,notnull"`
	StandardPrice   float64   `json:"standard_price" bun:"standard_price"`
	EarlyBirdPrice  float64   `json:"early_bird_price" bun:"early_bird_price"`
	EarlyBirdEnd    time.Time `json:"early_bird_end" bun:"early_bird_end,nullzero"`
	Capacity        int       `json:"capacity" bun:"capacity"`
	EnforceCapacity bool      `json:"enforce_capacity" bun:"enforce_capacity"`
}

// Table is a gala dinner table. OccupiedSeats is the only stored counter in
// the system and is mutated transactionally; 0 <= occupied <= total holds at
// all times.
type Table struct {
	bun.BaseModel `bun:"table:tables"`

	Number          int       `json:"number" bun:"number,pk"`
	EventID         string    `json:"event_id" bun:"event_id,notnull"`
	TotalSeats      int       `json:"total_seats" bun:"total_seats,notnull"`
	OccupiedSeats   int       `json:"occupied_seats" bun:"occupied_seats"`
	StandardPrice   float64   `json:"standard_price" bun:"standard_price"`
	EarlyBirdPrice  float64   `json:"early_bird_price" bun:"early_bird_price"`
	EarlyBirdEnd    time.Time `json:"early_bird_end" bun:"early_bird_end,nullzero"`
	EnforceCapacity bool      `json:"enforce_capacity" bun:"enforce_capacity"`
}

// Addon is an extra purchasable item with a flat unit price, no time tiers.
type Addon struct {
	bun.BaseModel `bun:"table:addons"`

	ID        string  `json:"id" bun:"id,pk"`
	EventID   string  `json:"event_id" bun:"event_id,notnull"`
	Name      string  `json:"name" bun:"name,notnull"`
	UnitPrice float64 `json:"unit_price" bun:"unit_price"`
}
