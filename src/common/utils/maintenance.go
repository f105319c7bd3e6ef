package utils

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const maintenanceKey = "maintenance"

// SetMaintenanceMode puts the public API into maintenance with a message
// shown to callers until it is cleared.
func SetMaintenanceMode(ctx context.Context, rdb *redis.Client, message string) error {
	return rdb.Set(ctx, maintenanceKey, message, 0).Err()
}

func ClearMaintenanceMode(ctx context.Context, rdb *redis.Client) error {
	return rdb.Del(ctx, maintenanceKey).Err()
}

// MaintenanceMode returns the maintenance message, if maintenance is on.
func MaintenanceMode(ctx context.Context, rdb *redis.Client) (string, bool, error) {
	msg, err := rdb.Get(ctx, maintenanceKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return msg, true, nil
}
