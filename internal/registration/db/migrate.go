package db

import (
	"context"
	"log"

	"ms-registration/internal/models"

	"github.com/uptrace/bun"
)

// Migrate creates the registration-side tables. The golang-migrate runner
// owns versioned production migrations; this path covers dev and tests.
func Migrate(db *bun.DB) {
	ctx := context.Background()

	tables := []interface{}{
		(*models.Event)(nil),
		(*models.AccommodationRate)(nil),
		(*models.PricingTier)(nil),
		(*models.PackageConfiguration)(nil),
		(*models.Workshop)(nil),
		(*models.Milonga)(nil),
		(*models.Table)(nil),
		(*models.Addon)(nil),
		(*models.Registration)(nil),
	}

	for _, model := range tables {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		if err != nil {
			log.Fatalf("create table failed: %v", err)
		}
	}

	log.Println("registration tables created")
}
