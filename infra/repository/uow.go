package repository

import (
	"context"

	"github.com/entuziaz/csvup-server/pkg/repository"
	"github.com/entuziaz/csvup-server/pkg/repository/transaction"
	"github.com/entuziaz/csvup-server/pkg/repository/upload"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
//
// Repositories handed out by a UoW share its session, so everything written
// through them inside Do commits or rolls back together.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs fn in a transaction boundary. When the UoW is already inside a
// transaction, GORM opens a savepoint instead, so a failing fn only rolls
// back its own writes.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.session().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
}

// TransactionRepository returns a transaction repository bound to the current session.
func (u *UoW) TransactionRepository() (transaction.Repository, error) {
	return NewTransactionRepository(u.session()), nil
}

// UploadRepository returns an upload history repository bound to the current session.
func (u *UoW) UploadRepository() (upload.Repository, error) {
	return NewUploadRepository(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}
