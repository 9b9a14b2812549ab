// Package mocks holds testify mocks of the repository contracts.
package mocks

import (
	"context"

	"github.com/entuziaz/csvup-server/pkg/repository"
	"github.com/entuziaz/csvup-server/pkg/repository/transaction"
	"github.com/entuziaz/csvup-server/pkg/repository/upload"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a mock of repository.UnitOfWork. Do runs fn against the
// same mock unless a Do expectation returns an error.
type MockUnitOfWork struct {
	mock.Mock
}

// NewMockUnitOfWork creates a MockUnitOfWork whose expectations are asserted on cleanup.
func NewMockUnitOfWork(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUnitOfWork {
	m := &MockUnitOfWork{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockUnitOfWork) TransactionRepository() (transaction.Repository, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Repository), args.Error(1)
}

func (m *MockUnitOfWork) UploadRepository() (upload.Repository, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(upload.Repository), args.Error(1)
}
