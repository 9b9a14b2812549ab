package mocks

import (
	"context"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/entuziaz/csvup-server/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUploadRepository is a mock of upload.Repository.
type MockUploadRepository struct {
	mock.Mock
}

// NewMockUploadRepository creates a MockUploadRepository whose expectations
// are asserted on cleanup.
func NewMockUploadRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUploadRepository {
	m := &MockUploadRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUploadRepository) Create(ctx context.Context, create dto.UploadCreate) error {
	return m.Called(ctx, create).Error(0)
}

func (m *MockUploadRepository) Finalize(ctx context.Context, uploadID uuid.UUID, finalize dto.UploadFinalize) error {
	return m.Called(ctx, uploadID, finalize).Error(0)
}

func (m *MockUploadRepository) Get(ctx context.Context, uploadID uuid.UUID) (*domain.UploadHistory, error) {
	args := m.Called(ctx, uploadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadHistory), args.Error(1)
}

func (m *MockUploadRepository) List(ctx context.Context, offset, limit int) ([]*domain.UploadHistory, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.UploadHistory), args.Get(1).(int64), args.Error(2)
}
