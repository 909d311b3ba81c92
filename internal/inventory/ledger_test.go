package inventory_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"ms-registration/internal/inventory"
	"ms-registration/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupLedger(t *testing.T) (*inventory.Ledger, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1) // in-memory sqlite shares one connection

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Table)(nil)).Exec(context.Background())
	require.NoError(t, err)
	_, err = bunDB.NewCreateTable().Model((*models.Registration)(nil)).Exec(context.Background())
	require.NoError(t, err)

	return inventory.NewLedger(bunDB, nil), bunDB
}

func seedTable(t *testing.T, bunDB *bun.DB, number, total, occupied int) {
	row := models.Table{
		Number:          number,
		EventID:         "event-1",
		TotalSeats:      total,
		OccupiedSeats:   occupied,
		EnforceCapacity: true,
	}
	_, err := bunDB.NewInsert().Model(&row).Exec(context.Background())
	require.NoError(t, err)
}

func TestAdjustOccupancy(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	defer bunDB.Close()
	seedTable(t, bunDB, 7, 8, 0)

	table, err := ledger.AdjustOccupancy(context.Background(), 7, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, table.OccupiedSeats)

	table, err = ledger.AdjustOccupancy(context.Background(), 7, -1)
	assert.NoError(t, err)
	assert.Equal(t, 1, table.OccupiedSeats)
}

func TestAdjustOccupancyCapacity(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	defer bunDB.Close()
	seedTable(t, bunDB, 7, 8, 7)

	_, err := ledger.AdjustOccupancy(context.Background(), 7, 2)
	assert.Error(t, err)
	assert.True(t, inventory.IsCapacityError(err))

	var capErr *inventory.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 7, capErr.TableNumber)
	assert.Equal(t, 1, capErr.Available)

	// The failed adjustment left the stored counter untouched.
	availability, err := ledger.TableAvailability(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, 7, availability.Occupied)
}

func TestAdjustOccupancyUnderflow(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	defer bunDB.Close()
	seedTable(t, bunDB, 7, 8, 1)

	_, err := ledger.AdjustOccupancy(context.Background(), 7, -2)
	assert.ErrorIs(t, err, inventory.ErrOccupancyUnderflow)
}

func TestAdjustOccupancyUnknownTable(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	defer bunDB.Close()

	_, err := ledger.AdjustOccupancy(context.Background(), 99, 1)
	assert.ErrorIs(t, err, inventory.ErrTableNotFound)
}

func TestAdjustOccupancyConcurrent(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	defer bunDB.Close()
	seedTable(t, bunDB, 7, 10, 0)

	// Twenty concurrent bookings of 1 seat against 10 available: exactly
	// ten succeed, the rest get capacity errors, and the counter never
	// exceeds the total.
	var wg sync.WaitGroup
	successes := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.AdjustOccupancy(context.Background(), 7, 1); err == nil {
				successes <- struct{}{}
			} else {
				assert.True(t, inventory.IsCapacityError(err))
			}
		}()
	}
	wg.Wait()
	close(successes)

	assert.Equal(t, 10, len(successes))

	availability, err := ledger.TableAvailability(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, 10, availability.Occupied)
}

func TestResourceAvailabilityDerived(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	defer bunDB.Close()

	regs := []models.Registration{
		{ID: "r1", EventID: "event-1", PackageType: models.PackageFull, Role: models.RoleCouple, WorkshopIDs: []string{"w1"}},
		{ID: "r2", EventID: "event-1", PackageType: models.PackageCustom, Role: models.RoleLeader, WorkshopIDs: []string{"w1", "w2"}},
	}
	for i := range regs {
		_, err := bunDB.NewInsert().Model(&regs[i]).Exec(context.Background())
		require.NoError(t, err)
	}

	availability, err := ledger.ResourceAvailability(context.Background(), "workshop", "w1", 40)
	assert.NoError(t, err)
	assert.Equal(t, 3, availability.Occupied)
	assert.Equal(t, 2, availability.Leaders)
	assert.Equal(t, 1, availability.Followers)
	assert.Equal(t, 40, availability.Capacity)
	assert.False(t, availability.Enforced)

	// Deleting a registration changes the next read with no release step.
	_, err = bunDB.NewDelete().Model(&regs[0]).WherePK().Exec(context.Background())
	require.NoError(t, err)

	availability, err = ledger.ResourceAvailability(context.Background(), "workshop", "w1", 40)
	assert.NoError(t, err)
	assert.Equal(t, 1, availability.Occupied)
}
