package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/entuziaz/csvup-server/pkg/dto"
	repo "github.com/entuziaz/csvup-server/pkg/repository/upload"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository creates an upload history repository using the provided *gorm.DB.
func NewUploadRepository(db *gorm.DB) repo.Repository {
	return &uploadRepository{db: db}
}

// Create implements upload.Repository.
func (r *uploadRepository) Create(ctx context.Context, create dto.UploadCreate) error {
	m := mapUploadCreateToModel(create)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// Finalize implements upload.Repository.
//
// The update is conditional on the processing status, which makes the
// transition happen at most once even with concurrent finalizers.
func (r *uploadRepository) Finalize(
	ctx context.Context,
	uploadID uuid.UUID,
	finalize dto.UploadFinalize,
) error {
	if !finalize.Status.IsTerminal() {
		return fmt.Errorf("%w: %q is not a terminal status", domain.ErrValidation, finalize.Status)
	}
	details, err := encodeDetails(finalize.Details)
	if err != nil {
		return fmt.Errorf("failed to encode upload details: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&UploadHistory{}).
		Where("upload_id = ? AND status = ?", uploadID, string(domain.UploadProcessing)).
		Updates(map[string]any{
			"status":         string(finalize.Status),
			"rows_processed": finalize.RowsProcessed,
			"details":        details,
			"finished_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return MapGormErrorToDomain(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&UploadHistory{}).
		Where("upload_id = ?", uploadID).
		Count(&count).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrUploadFinalized
}

// Get implements upload.Repository.
func (r *uploadRepository) Get(ctx context.Context, uploadID uuid.UUID) (*domain.UploadHistory, error) {
	var m UploadHistory
	if err := r.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		First(&m).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapUploadModelToDomain(m)
}

// List implements upload.Repository.
func (r *uploadRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*domain.UploadHistory, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&UploadHistory{}).Count(&total).Error; err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}

	var models []UploadHistory
	if err := r.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}

	items := make([]*domain.UploadHistory, 0, len(models))
	for _, m := range models {
		h, err := mapUploadModelToDomain(m)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, nil
}
