package redislock

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds short advisory leases on gala tables while a registration is
// being committed, so concurrent instances funnel bookings for the same
// table through one writer at a time. The stored occupancy check inside the
// database transaction remains the source of truth.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getTableLockDuration returns the lease TTL from the environment or the
// default value.
func (r *Redis) getTableLockDuration() time.Duration {
	defaultDuration := 2 * time.Minute

	lockTTLStr := os.Getenv("TABLE_LOCK_TTL_MINUTES")
	if lockTTLStr == "" {
		return defaultDuration
	}

	lockTTLMin, err := strconv.Atoi(lockTTLStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid TABLE_LOCK_TTL_MINUTES value '" + lockTTLStr + "', using default 2 minutes")
		return defaultDuration
	}
	return time.Duration(lockTTLMin) * time.Minute
}

func tableKey(number int) string {
	return fmt.Sprintf("table_lock:%d", number)
}

// CheckTableAvailability reports whether a table is currently leased,
// without taking the lease.
func (r *Redis) CheckTableAvailability(number int) (bool, error) {
	_, err := r.Client.Get(context.Background(), tableKey(number)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// LockTable takes the lease for one table on behalf of a registration.
func (r *Redis) LockTable(number int, registrationID string) (bool, error) {
	ok, err := r.Client.SetNX(context.Background(), tableKey(number), registrationID, r.getTableLockDuration()).Result()
	return ok, err
}

// UnlockTable releases the lease if this registration still owns it.
// Another registration's lease is never removed.
func (r *Redis) UnlockTable(number int, registrationID string) error {
	ctx := context.Background()
	key := tableKey(number)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == registrationID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
