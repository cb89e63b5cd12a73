package mocks

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// MockDBPort runs transaction callbacks inline with a nil transaction
type MockDBPort struct {
	mock.Mock
	mu           sync.Mutex
	Transactions int
}

func (m *MockDBPort) GetDB() *pgxpool.Pool {
	return nil
}

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	m.mu.Lock()
	m.Transactions++
	m.mu.Unlock()
	return fn(ctx, nil)
}

func (m *MockDBPort) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

// TransactionCount returns how many write transactions were opened
func (m *MockDBPort) TransactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Transactions
}

// MockPaymentRepository mocks the payment repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, db ports.DBTX, id int64) (*models.Payment, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, db ports.DBTX, filter models.PaymentFilter) ([]*models.Payment, int, error) {
	args := m.Called(ctx, db, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Payment), args.Int(1), args.Error(2)
}

func (m *MockPaymentRepository) Update(ctx context.Context, tx ports.DBTX, payment *models.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateRawResponse(ctx context.Context, tx ports.DBTX, id int64, blob *models.PaymentBlob) error {
	args := m.Called(ctx, tx, id, blob)
	return args.Error(0)
}

// MockOrderRepository mocks the order repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetByID(ctx context.Context, db ports.DBTX, id int64) (*models.Order, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDs(ctx context.Context, db ports.DBTX, ids []int64) (map[int64]*models.Order, error) {
	args := m.Called(ctx, db, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id int64, status string) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

// MockAdminUserRepository mocks the admin user repository
type MockAdminUserRepository struct {
	mock.Mock
}

func (m *MockAdminUserRepository) GetByUsername(ctx context.Context, db ports.DBTX, username string) (*models.AdminUser, error) {
	args := m.Called(ctx, db, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepository) List(ctx context.Context, db ports.DBTX) ([]*models.AdminUser, error) {
	args := m.Called(ctx, db)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepository) Create(ctx context.Context, tx ports.DBTX, user *models.AdminUser) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

// MockRefundGateway mocks the provider refund client
type MockRefundGateway struct {
	mock.Mock
}

func (m *MockRefundGateway) Refund(ctx context.Context, req *ports.RefundRequest) (models.ProviderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.ProviderResponse), args.Error(1)
}
