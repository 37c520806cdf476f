package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"coursehub/backend/config"
	"coursehub/backend/utils"

	goredis "github.com/redis/go-redis/v9"
)

const maintenanceKey = "coursehub:maintenance"

// Maintenance holds the maintenance-mode flag.
type Maintenance interface {
	Enabled(ctx context.Context) (bool, error)
	Set(ctx context.Context, enabled bool) error
}

// NewMaintenance keeps the flag in Redis when REDIS_URL is set so every
// instance sees the same value, and in memory otherwise.
func NewMaintenance(cfg *config.Config, logger *utils.Logger) (Maintenance, error) {
	if cfg.RedisURL == "" {
		return NewMemoryMaintenance(cfg.MaintenanceMode), nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	m := &RedisMaintenance{rdb: rdb}
	if cfg.MaintenanceMode {
		if err := m.Set(ctx, true); err != nil {
			return nil, err
		}
	}
	logger.Info("maintenance flag stored in redis", "addr", opts.Addr)
	return m, nil
}

type MemoryMaintenance struct {
	enabled atomic.Bool
}

func NewMemoryMaintenance(enabled bool) *MemoryMaintenance {
	m := &MemoryMaintenance{}
	m.enabled.Store(enabled)
	return m
}

func (m *MemoryMaintenance) Enabled(context.Context) (bool, error) {
	return m.enabled.Load(), nil
}

func (m *MemoryMaintenance) Set(_ context.Context, enabled bool) error {
	m.enabled.Store(enabled)
	return nil
}

type RedisMaintenance struct {
	rdb *goredis.Client
}

func NewRedisMaintenance(rdb *goredis.Client) *RedisMaintenance {
	return &RedisMaintenance{rdb: rdb}
}

func (m *RedisMaintenance) Enabled(ctx context.Context) (bool, error) {
	v, err := m.rdb.Get(ctx, maintenanceKey).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

func (m *RedisMaintenance) Set(ctx context.Context, enabled bool) error {
	if !enabled {
		return m.rdb.Del(ctx, maintenanceKey).Err()
	}
	return m.rdb.Set(ctx, maintenanceKey, "1", 0).Err()
}
