package db

import (
	"context"
	"database/sql"
	"fmt"

	"ms-registration/internal/inventory"
	"ms-registration/internal/models"
	"ms-registration/internal/pricing"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun    *bun.DB
	Tables *inventory.Ledger
}

// ---------------- REGISTRATIONS ----------------

// CreateRegistration persists a registration and, when a table is selected,
// adjusts its occupancy inside the same transaction. A capacity failure
// rolls the insert back, so no committed registration is ever left without
// its seats.
func (d *DB) CreateRegistration(ctx context.Context, reg models.Registration) error {
	if reg.TableNumber == 0 {
		_, err := d.Bun.NewInsert().Model(&reg).Exec(ctx)
		return err
	}

	unlock := d.Tables.LockTable(reg.TableNumber)
	defer unlock()

	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&reg).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert registration: %w", err)
		}
		_, err := d.Tables.AdjustOccupancyTx(ctx, tx, reg.TableNumber, reg.Role.Seats())
		return err
	})
}

// GetRegistrationByID fetches one live registration.
func (d *DB) GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// DeleteRegistration releases the table seats and soft-deletes the row in
// one transaction, the mirror of CreateRegistration.
func (d *DB) DeleteRegistration(ctx context.Context, reg models.Registration) error {
	if reg.TableNumber == 0 {
		_, err := d.Bun.NewDelete().
			Model((*models.Registration)(nil)).
			Where("id = ?", reg.ID).
			Exec(ctx)
		return err
	}

	unlock := d.Tables.LockTable(reg.TableNumber)
	defer unlock()

	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := d.Tables.AdjustOccupancyTx(ctx, tx, reg.TableNumber, -reg.Role.Seats()); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.Registration)(nil)).
			Where("id = ?", reg.ID).
			Exec(ctx)
		return err
	})
}

// ListRegistrations returns all live registrations for an event. The
// inventory ledger folds over this set to derive enrollment.
func (d *DB) ListRegistrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

// UpdatePaymentStatus stamps payment progress onto a registration.
func (d *DB) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, intentID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Registration)(nil)).
		Set("payment_status = ?", status).
		Set("payment_intent_id = ?", intentID).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- EVENT SNAPSHOT ----------------

// GetCurrentEvent returns the single event flagged current, or nil when no
// event is configured (a soft failure: pricing resolves to zero).
func (d *DB) GetCurrentEvent(ctx context.Context) (*models.Event, error) {
	var ev models.Event
	err := d.Bun.NewSelect().
		Model(&ev).
		Where("is_current = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

// GetWorkshopsByIDs fetches the selected workshops keyed by id.
func (d *DB) GetWorkshopsByIDs(ctx context.Context, ids []string) (map[string]models.Workshop, error) {
	result := make(map[string]models.Workshop, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var workshops []models.Workshop
	err := d.Bun.NewSelect().
		Model(&workshops).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range workshops {
		result[w.ID] = w
	}
	return result, nil
}

// LoadCatalog snapshots every purchasable item for an event. The calculator
// prices against this snapshot so repeated quotes for the same draft and
// instant stay identical.
func (d *DB) LoadCatalog(ctx context.Context, eventID string) (pricing.Catalog, error) {
	cat := pricing.Catalog{
		Workshops: make(map[string]models.Workshop),
		Milongas:  make(map[string]models.Milonga),
		Tables:    make(map[int]models.Table),
		Addons:    make(map[string]models.Addon),
	}

	var workshops []models.Workshop
	if err := d.Bun.NewSelect().Model(&workshops).Where("event_id = ?", eventID).Scan(ctx); err != nil {
		return cat, fmt.Errorf("failed to load workshops: %w", err)
	}
	for _, w := range workshops {
		cat.Workshops[w.ID] = w
	}

	var milongas []models.Milonga
	if err := d.Bun.NewSelect().Model(&milongas).Where("event_id = ?", eventID).Scan(ctx); err != nil {
		return cat, fmt.Errorf("failed to load milongas: %w", err)
	}
	for _, m := range milongas {
		cat.Milongas[m.ID] = m
	}

	var tables []models.Table
	if err := d.Bun.NewSelect().Model(&tables).Where("event_id = ?", eventID).Scan(ctx); err != nil {
		return cat, fmt.Errorf("failed to load tables: %w", err)
	}
	for _, t := range tables {
		cat.Tables[t.Number] = t
	}

	var addons []models.Addon
	if err := d.Bun.NewSelect().Model(&addons).Where("event_id = ?", eventID).Scan(ctx); err != nil {
		return cat, fmt.Errorf("failed to load addons: %w", err)
	}
	for _, a := range addons {
		cat.Addons[a.ID] = a
	}

	if err := d.Bun.NewSelect().Model(&cat.Rates).Where("event_id = ?", eventID).Scan(ctx); err != nil {
		return cat, fmt.Errorf("failed to load accommodation rates: %w", err)
	}

	return cat, nil
}

// GetMilonga fetches one milonga for availability reads.
func (d *DB) GetMilonga(ctx context.Context, id string) (*models.Milonga, error) {
	var m models.Milonga
	err := d.Bun.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetWorkshop fetches one workshop for availability reads.
func (d *DB) GetWorkshop(ctx context.Context, id string) (*models.Workshop, error) {
	var w models.Workshop
	err := d.Bun.NewSelect().Model(&w).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
