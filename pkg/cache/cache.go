package cache

import (
	"context"
	"time"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/google/uuid"
)

// UploadCache caches finalized upload history records by upload id.
// Get returns (nil, nil) on a miss.
type UploadCache interface {
	Get(ctx context.Context, uploadID uuid.UUID) (*domain.UploadHistory, error)
	Set(ctx context.Context, record *domain.UploadHistory, ttl time.Duration) error
	Delete(ctx context.Context, uploadID uuid.UUID) error
}
