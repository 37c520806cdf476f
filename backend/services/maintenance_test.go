package services

import (
	"context"
	"os"
	"testing"

	"coursehub/backend/utils"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMaintenance(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.MaintenanceMode = true

	m, err := NewMaintenance(cfg, utils.NewNopLogger())
	require.NoError(t, err)
	require.IsType(t, &MemoryMaintenance{}, m)

	on, err := m.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, m.Set(ctx, false))
	on, _ = m.Enabled(ctx)
	assert.False(t, on)
}

func TestNewMaintenanceBadRedisURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "not a url"
	_, err := NewMaintenance(cfg, utils.NewNopLogger())
	assert.Error(t, err)
}

// TestRedisMaintenance needs a disposable redis, e.g. REDIS_TEST_URL=redis://localhost:6379/15.
func TestRedisMaintenance(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	rdb := goredis.NewClient(opts)
	t.Cleanup(func() {
		rdb.Del(context.Background(), maintenanceKey)
		rdb.Close()
	})

	ctx := context.Background()
	m := NewRedisMaintenance(rdb)
	require.NoError(t, m.Set(ctx, false))

	on, err := m.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	// a second instance sees the same flag
	require.NoError(t, m.Set(ctx, true))
	on, err = NewRedisMaintenance(rdb).Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}
