package repository

import (
	"context"

	"github.com/entuziaz/csvup-server/pkg/repository/transaction"
	"github.com/entuziaz/csvup-server/pkg/repository/upload"
)

// UnitOfWork defines the contract for transactional work and repository access.
//
// Repositories returned by a UnitOfWork are bound to its session, so every
// write made through them inside Do commits or rolls back together.
//
// Do runs fn inside a transaction boundary. Calling Do on a UnitOfWork that is
// already inside a transaction opens a nested boundary (a savepoint): an error
// from fn rolls back only the nested work and leaves the outer transaction usable.
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// TransactionRepository returns the transaction repository bound to the current session.
	TransactionRepository() (transaction.Repository, error)
	// UploadRepository returns the upload history repository bound to the current session.
	UploadRepository() (upload.Repository, error)
}
