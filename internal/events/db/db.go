package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-registration/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, ev models.Event) error {
	_, err := d.Bun.NewInsert().Model(&ev).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var ev models.Event
	err := d.Bun.NewSelect().
		Model(&ev).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("year DESC").
		Scan(ctx)
	return events, err
}

func (d *DB) UpdateEvent(ctx context.Context, ev models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(&ev).
		WherePK().
		Exec(ctx)
	return err
}

// SetCurrentEvent clears the current flag on every event and sets it on one,
// inside a single transaction so no window exists with two current events.
func (d *DB) SetCurrentEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("is_current = ?", false).
			Where("is_current = ?", true).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("is_current = ?", true).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("event %s not found", id)
		}
		return nil
	})
}

func (d *DB) EventExists(ctx context.Context, id string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

func (d *DB) CreateWorkshop(ctx context.Context, w models.Workshop) error {
	_, err := d.Bun.NewInsert().Model(&w).Exec(ctx)
	return err
}

func (d *DB) UpdateWorkshop(ctx context.Context, w models.Workshop) error {
	_, err := d.Bun.NewUpdate().Model(&w).WherePK().Exec(ctx)
	return err
}

func (d *DB) DeleteWorkshop(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Workshop)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) ListWorkshops(ctx context.Context, eventID string) ([]models.Workshop, error) {
	var workshops []models.Workshop
	err := d.Bun.NewSelect().
		Model(&workshops).
		Where("event_id = ?", eventID).
		Order("date ASC", "start_time ASC").
		Scan(ctx)
	return workshops, err
}

func (d *DB) CreateMilonga(ctx context.Context, m models.Milonga) error {
	_, err := d.Bun.NewInsert().Model(&m).Exec(ctx)
	return err
}

func (d *DB) ListMilongas(ctx context.Context, eventID string) ([]models.Milonga, error) {
	var milongas []models.Milonga
	err := d.Bun.NewSelect().
		Model(&milongas).
		Where("event_id = ?", eventID).
		Order("date ASC").
		Scan(ctx)
	return milongas, err
}

func (d *DB) CreateTable(ctx context.Context, t models.Table) error {
	_, err := d.Bun.NewInsert().Model(&t).Exec(ctx)
	return err
}

func (d *DB) ListTables(ctx context.Context, eventID string) ([]models.Table, error) {
	var tables []models.Table
	err := d.Bun.NewSelect().
		Model(&tables).
		Where("event_id = ?", eventID).
		Order("number ASC").
		Scan(ctx)
	return tables, err
}

func (d *DB) CreateAddon(ctx context.Context, a models.Addon) error {
	_, err := d.Bun.NewInsert().Model(&a).Exec(ctx)
	return err
}

func (d *DB) ListAddons(ctx context.Context, eventID string) ([]models.Addon, error) {
	var addons []models.Addon
	err := d.Bun.NewSelect().
		Model(&addons).
		Where("event_id = ?", eventID).
		Scan(ctx)
	return addons, err
}

func (d *DB) CreatePricingTier(ctx context.Context, tier models.PricingTier) error {
	_, err := d.Bun.NewInsert().Model(&tier).Exec(ctx)
	return err
}

func (d *DB) ListPricingTiers(ctx context.Context, eventID string) ([]models.PricingTier, error) {
	var tiers []models.PricingTier
	err := d.Bun.NewSelect().
		Model(&tiers).
		Where("event_id = ?", eventID).
		Order("priority DESC").
		Scan(ctx)
	return tiers, err
}

// UpsertPackageConfig replaces the inclusion rules for one package type.
func (d *DB) UpsertPackageConfig(ctx context.Context, cfg models.PackageConfiguration) error {
	_, err := d.Bun.NewInsert().
		Model(&cfg).
		On("CONFLICT (event_id, package_type) DO UPDATE").
		Set("base_price = EXCLUDED.base_price").
		Set("couple_multiplier = EXCLUDED.couple_multiplier").
		Set("included_workshops = EXCLUDED.included_workshops").
		Set("bundles_milongas = EXCLUDED.bundles_milongas").
		Set("bundles_gala_table = EXCLUDED.bundles_gala_table").
		Set("workshop_overage_price = EXCLUDED.workshop_overage_price").
		Set("custom_price_table = EXCLUDED.custom_price_table").
		Set("active = EXCLUDED.active").
		Exec(ctx)
	return err
}

func (d *DB) GetAccommodationRate(ctx context.Context, eventID string, pkg models.PackageType, nights int) (*models.AccommodationRate, error) {
	var rate models.AccommodationRate
	err := d.Bun.NewSelect().
		Model(&rate).
		Where("event_id = ?", eventID).
		Where("package_type = ?", pkg).
		Where("nights = ?", nights).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (d *DB) CreateAccommodationRate(ctx context.Context, rate models.AccommodationRate) error {
	_, err := d.Bun.NewInsert().Model(&rate).Exec(ctx)
	return err
}
