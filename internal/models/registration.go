package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Role is who the registration is for.
type Role string

const (
	RoleLeader   Role = "leader"
	RoleFollower Role = "follower"
	RoleCouple   Role = "couple"
)

// Seats returns how many physical seats the party fills.
func (r Role) Seats() int {
	if r == RoleCouple {
		return 2
	}
	return 1
}

// AddonSelection is one add-on line in a registration.
type AddonSelection struct {
	AddonID  string            `json:"addon_id"`
	Quantity int               `json:"quantity"`
	Options  map[string]string `json:"options,omitempty"`
}

// Registration is one purchase transaction by one party. Workshop and
// milonga enrollment is derived by scanning live registrations; only table
// occupancy is stored separately.
type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ID              string           `json:"id" bun:"id,pk"`
	EventID         string           `json:"event_id" bun:"event_id,notnull"`
	PackageType     PackageType      `json:"package_type" bun:"package_type,notnull"`
	Role            Role             `json:"role" bun:"role,notnull"`
	FirstName       string           `json:"first_name" bun:"first_name"`
	LastName        string           `json:"last_name" bun:"last_name"`
	Email           string           `json:"email" bun:"email"`
	WorkshopIDs     []string         `json:"workshop_ids" bun:"workshop_ids,type:jsonb,nullzero"`
	MilongaIDs      []string         `json:"milonga_ids" bun:"milonga_ids,type:jsonb,nullzero"`
	TableNumber     int              `json:"table_number" bun:"table_number"`
	Addons          []AddonSelection `json:"addons" bun:"addons,type:jsonb,nullzero"`
	Nights          int              `json:"nights" bun:"nights"`
	TotalAmount     float64          `json:"total_amount" bun:"total_amount"`
	PaymentMethod   string           `json:"payment_method" bun:"payment_method"`
	PaymentStatus   PaymentStatus    `json:"payment_status" bun:"payment_status"`
	PaymentIntentID string           `json:"payment_intent_id,omitempty" bun:"payment_intent_id,nullzero"`
	CreatedAt       time.Time        `json:"created_at" bun:"created_at,notnull"`
	DeletedAt       time.Time        `json:"deleted_at,omitempty" bun:"deleted_at,soft_delete,nullzero"`
}

// RegistrationDraft is the wizard's submission: package type plus item
// selections. Selection order of workshops matters for the included
// allowance.
type RegistrationDraft struct {
	EventID     string           `json:"event_id,omitempty"`
	PackageType PackageType      `json:"package_type"`
	Role        Role             `json:"role"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	Email       string           `json:"email"`
	WorkshopIDs []string         `json:"workshop_ids"`
	MilongaIDs  []string         `json:"milonga_ids"`
	TableNumber int              `json:"table_number"`
	Addons      []AddonSelection `json:"addons"`
	Nights      int              `json:"nights"`
}

// Availability reports occupancy for one resource. Tables enforce their
// capacity; workshops and milongas report informationally only.
type Availability struct {
	ResourceID string `json:"resource_id"`
	Kind       string `json:"kind"`
	Occupied   int    `json:"occupied"`
	Capacity   int    `json:"capacity"`
	Leaders    int    `json:"leaders,omitempty"`
	Followers  int    `json:"followers,omitempty"`
	Enforced   bool   `json:"enforced"`
}
