package redisq

import (
	"context"
	"fmt"
	"time"

	r "github.com/redis/go-redis/v9"
)

// NewClient создаёт клиент Redis и проверяет соединение.
func NewClient(ctx context.Context, addr, password string) (*r.Client, error) {
	rdb := r.NewClient(&r.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
