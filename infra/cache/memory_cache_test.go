package cache

import (
	"context"
	"testing"
	"time"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	record := &domain.UploadHistory{
		UploadID: uuid.New(),
		Filename: "a.csv",
		Status:   domain.UploadSuccess,
	}

	require.NoError(t, c.Set(ctx, record, time.Minute))
	got, err := c.Get(ctx, record.UploadID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *record, *got)

	got.Filename = "mutated.csv"
	again, err := c.Get(ctx, record.UploadID)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", again.Filename)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache()
	got, err := c.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCache_ExpiredEntryIsEvicted(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	record := &domain.UploadHistory{UploadID: uuid.New()}

	require.NoError(t, c.Set(ctx, record, time.Minute))
	now = now.Add(time.Minute)

	got, err := c.Get(ctx, record.UploadID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	record := &domain.UploadHistory{UploadID: uuid.New()}

	require.NoError(t, c.Set(ctx, record, time.Minute))
	require.NoError(t, c.Delete(ctx, record.UploadID))
	got, err := c.Get(ctx, record.UploadID)
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, c.Set(ctx, nil, time.Minute))
}
