//go:build integration

package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisLocker_SerializesPerKey(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, config.RedisConfig{Addr: startRedis(t)})
	require.NoError(t, err)
	defer client.Close()
	l := NewRedisLocker(client, 5*time.Second)

	unlock, err := l.Obtain(ctx, "undo:user:a")
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "undo:user:a")
	assert.True(t, errors.Is(err, shared.ErrConflict))

	other, err := l.Obtain(ctx, "undo:user:b")
	require.NoError(t, err, "locks are per key")
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "releasing twice is harmless")

	again, err := l.Obtain(ctx, "undo:user:a")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
