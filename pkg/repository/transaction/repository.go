package transaction

import (
	"context"

	"github.com/entuziaz/csvup-server/pkg/domain"
)

// Repository defines the data access operations for ingested transactions.
// Records are keyed by their business key, domain.Transaction.TransactionID.
type Repository interface {
	// ExistingIDs returns the subset of ids that are already stored.
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	// CreateBatch inserts new records in one statement.
	CreateBatch(ctx context.Context, records []domain.Transaction) error

	// ReplaceBatch overwrites every mutable column of the records sharing a key
	// with the given ones, inserting those that are absent.
	ReplaceBatch(ctx context.Context, records []domain.Transaction) error

	// Get retrieves one record by business key.
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
}
