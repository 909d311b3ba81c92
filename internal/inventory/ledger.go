package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"ms-registration/internal/logger"
	"ms-registration/internal/models"

	"github.com/uptrace/bun"
)

// Ledger maintains the stored table-occupancy counter. Adjustments are
// serialized per table number so two concurrent bookings of the last seats
// cannot both pass the capacity check.
type Ledger struct {
	DB     *bun.DB
	logger *logger.Logger

	mu         sync.Mutex
	tableLocks map[int]*sync.Mutex
}

func NewLedger(db *bun.DB, log *logger.Logger) *Ledger {
	return &Ledger{
		DB:         db,
		logger:     log,
		tableLocks: make(map[int]*sync.Mutex),
	}
}

// LockTable acquires the per-table serialization point and returns the
// release func. Callers running their own transaction around an occupancy
// adjustment must hold this for the whole transaction.
func (l *Ledger) LockTable(number int) func() {
	l.mu.Lock()
	lock, ok := l.tableLocks[number]
	if !ok {
		lock = &sync.Mutex{}
		l.tableLocks[number] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// AdjustOccupancy applies a seat delta to a table under the per-table lock
// and its own transaction. Positive deltas fail with a CapacityError once
// the table would oversell; any delta fails with ErrOccupancyUnderflow if
// the result would be negative.
func (l *Ledger) AdjustOccupancy(ctx context.Context, number, delta int) (*models.Table, error) {
	unlock := l.LockTable(number)
	defer unlock()

	var updated *models.Table
	err := l.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		t, err := l.AdjustOccupancyTx(ctx, tx, number, delta)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AdjustOccupancyTx is the read-modify-write step inside an existing
// transaction. The caller must hold LockTable(number) for the duration of
// that transaction.
func (l *Ledger) AdjustOccupancyTx(ctx context.Context, idb bun.IDB, number, delta int) (*models.Table, error) {
	var table models.Table
	err := idb.NewSelect().
		Model(&table).
		Where("number = ?", number).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to load table %d: %w", number, err)
	}

	desired := table.OccupiedSeats + delta
	if delta > 0 && desired > table.TotalSeats {
		return nil, &CapacityError{
			TableNumber: number,
			Requested:   delta,
			Available:   table.TotalSeats - table.OccupiedSeats,
		}
	}
	if desired < 0 {
		return nil, fmt.Errorf("table %d: %w", number, ErrOccupancyUnderflow)
	}

	table.OccupiedSeats = desired
	_, err = idb.NewUpdate().
		Model(&table).
		Column("occupied_seats").
		Where("number = ?", number).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update table %d occupancy: %w", number, err)
	}

	if l.logger != nil {
		l.logger.LogInventory("ADJUST", fmt.Sprintf("table %d: %+d seats, now %d/%d", number, delta, table.OccupiedSeats, table.TotalSeats))
	}
	return &table, nil
}

// TableAvailability reports stored occupancy for a table. Tables are the
// only capacity-enforced resource.
func (l *Ledger) TableAvailability(ctx context.Context, number int) (*models.Availability, error) {
	var table models.Table
	err := l.DB.NewSelect().
		Model(&table).
		Where("number = ?", number).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &models.Availability{
		ResourceID: fmt.Sprintf("%d", table.Number),
		Kind:       "table",
		Occupied:   table.OccupiedSeats,
		Capacity:   table.TotalSeats,
		Enforced:   table.EnforceCapacity,
	}, nil
}

// ResourceAvailability reports derived enrollment for a workshop or
// milonga. Not enforced: availability checks on these resources always pass
// by product decision, only the counts are exposed.
func (l *Ledger) ResourceAvailability(ctx context.Context, kind, resourceID string, capacity int) (*models.Availability, error) {
	var regs []models.Registration
	err := l.DB.NewSelect().
		Model(&regs).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registrations: %w", err)
	}

	e := ComputeEnrollment(resourceID, regs)
	return &models.Availability{
		ResourceID: resourceID,
		Kind:       kind,
		Occupied:   e.Total,
		Capacity:   capacity,
		Leaders:    e.Leaders,
		Followers:  e.Followers,
		Enforced:   false,
	}, nil
}
