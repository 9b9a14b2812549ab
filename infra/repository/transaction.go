package repository

import (
	"context"

	"github.com/entuziaz/csvup-server/pkg/domain"
	repo "github.com/entuziaz/csvup-server/pkg/repository/transaction"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// statementBatchSize bounds the rows per INSERT so a statement stays under the
// bind parameter limits of SQLite (32766) and Postgres (65535).
const statementBatchSize = 500

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository using the provided *gorm.DB.
func NewTransactionRepository(db *gorm.DB) repo.Repository {
	return &transactionRepository{db: db}
}

// ExistingIDs implements transaction.Repository.
func (r *transactionRepository) ExistingIDs(
	ctx context.Context,
	ids []string,
) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	var found []string
	if err := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("transaction_id IN ?", ids).
		Pluck("transaction_id", &found).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	for _, id := range found {
		existing[id] = struct{}{}
	}
	return existing, nil
}

// CreateBatch implements transaction.Repository.
//
// A key stored since the records were classified as new (a concurrent
// upload) is overwritten rather than failing the batch.
func (r *transactionRepository) CreateBatch(
	ctx context.Context,
	records []domain.Transaction,
) error {
	return r.upsert(ctx, records)
}

// ReplaceBatch implements transaction.Repository.
//
// Conflicting rows get every column from the submitted record, including
// zero values, so nothing of the previous version survives except created_at.
func (r *transactionRepository) ReplaceBatch(
	ctx context.Context,
	records []domain.Transaction,
) error {
	return r.upsert(ctx, records)
}

func (r *transactionRepository) upsert(ctx context.Context, records []domain.Transaction) error {
	if len(records) == 0 {
		return nil
	}
	models := mapTransactionsToModels(records)
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "transaction_id"}},
				UpdateAll: true,
			}).
			CreateInBatches(&models, statementBatchSize).Error
	})
}

// Get implements transaction.Repository.
func (r *transactionRepository) Get(
	ctx context.Context,
	transactionID string,
) (*domain.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&m).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapTransactionModelToDomain(m), nil
}

// Count implements transaction.Repository.
func (r *transactionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Transaction{}).Count(&n).Error; err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	return n, nil
}
