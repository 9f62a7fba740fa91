//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/geo-attendance/internal/persistence"
	"github.com/example/geo-attendance/internal/testfixtures/containers"
)

func TestStoreAgainstRedis(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{URL: containers.RedisURL(t), KeyPrefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))

	_, err = store.Get(ctx, "attendanceRecords")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, store.Put(ctx, "attendanceRecords", []byte(`[{"id":"a"}]`)))
	got, err := store.Get(ctx, "attendanceRecords")
	require.NoError(t, err)
	require.Equal(t, `[{"id":"a"}]`, string(got))

	raw, err := store.client.Get(ctx, "test:attendanceRecords").Result()
	require.NoError(t, err)
	require.Equal(t, `[{"id":"a"}]`, raw)
}
