package mocks

import (
	"context"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository is a mock of transaction.Repository.
type MockTransactionRepository struct {
	mock.Mock
}

// NewMockTransactionRepository creates a MockTransactionRepository whose
// expectations are asserted on cleanup.
func NewMockTransactionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransactionRepository {
	m := &MockTransactionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransactionRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockTransactionRepository) CreateBatch(ctx context.Context, records []domain.Transaction) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockTransactionRepository) ReplaceBatch(ctx context.Context, records []domain.Transaction) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockTransactionRepository) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
