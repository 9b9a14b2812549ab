//go:build redis

package cache

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisCache starts a Redis container and returns a cache connected to it.
func setupRedisCache(tb testing.TB) (*RedisUploadCache, func()) {
	tb.Helper()
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7.0.5",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		tb.Skipf("Failed to start container: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		tb.Fatalf("Failed to get mapped port: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		tb.Fatalf("Failed to get container host: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	c, err := NewRedisUploadCache(ctx, &config.Redis{
		URL:       "redis://" + host + ":" + port.Port(),
		KeyPrefix: "csvup-test:",
		PoolSize:  2,
	}, logger)
	if err != nil {
		tb.Fatalf("Failed to create redis cache: %v", err)
	}

	cleanup := func() {
		_ = c.Close()
		_ = container.Terminate(ctx)
	}
	return c, cleanup
}

func TestRedisUploadCache_Lifecycle(t *testing.T) {
	c, cleanup := setupRedisCache(t)
	defer cleanup()
	ctx := context.Background()

	finished := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	record := &domain.UploadHistory{
		UploadID:      uuid.New(),
		Filename:      "a.csv",
		UploadedAt:    finished.Add(-time.Second),
		RowsProcessed: 3,
		Status:        domain.UploadPartial,
		FinishedAt:    &finished,
		Details: &domain.UploadDetails{
			Errors:    []domain.FieldError{{Row: 2, Message: "bad", TransactionID: "T2"}},
			TotalRows: 4,
		},
	}

	miss, err := c.Get(ctx, record.UploadID)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, record, time.Minute))
	got, err := c.Get(ctx, record.UploadID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.Status, got.Status)
	assert.Equal(t, record.Details.Errors, got.Details.Errors)
	assert.True(t, record.FinishedAt.Equal(*got.FinishedAt))

	require.NoError(t, c.Delete(ctx, record.UploadID))
	got, err = c.Get(ctx, record.UploadID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
