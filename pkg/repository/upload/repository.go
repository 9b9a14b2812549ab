package upload

import (
	"context"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/entuziaz/csvup-server/pkg/dto"
	"github.com/google/uuid"
)

// Repository defines the data access operations for upload history records.
type Repository interface {
	// Create inserts a record in the processing status.
	Create(ctx context.Context, create dto.UploadCreate) error

	// Finalize moves a processing record to a terminal status. It returns
	// domain.ErrUploadFinalized when the record is no longer processing and
	// domain.ErrNotFound when it does not exist.
	Finalize(ctx context.Context, uploadID uuid.UUID, finalize dto.UploadFinalize) error

	// Get retrieves one record by upload ID.
	Get(ctx context.Context, uploadID uuid.UUID) (*domain.UploadHistory, error)

	// List returns records most recent first, with the total count.
	List(ctx context.Context, offset, limit int) ([]*domain.UploadHistory, int64, error)
}
