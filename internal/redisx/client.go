package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect builds the process-wide Redis handle and verifies it with a ping.
// The handle is passed explicitly to everything that needs it and closed on
// shutdown by the owning main.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}
