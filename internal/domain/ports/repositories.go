package ports

import (
	"context"

	"github.com/kevin07696/payments-admin/internal/domain/models"
)

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, db DBTX, id int64) (*models.Payment, error)

	// List returns one page of payments matching filter, newest first, and the total match count
	List(ctx context.Context, db DBTX, filter models.PaymentFilter) ([]*models.Payment, int, error)

	// Update writes the payment status and raw_response blob
	Update(ctx context.Context, tx DBTX, payment *models.Payment) error

	// UpdateRawResponse writes only the raw_response blob
	UpdateRawResponse(ctx context.Context, tx DBTX, id int64, blob *models.PaymentBlob) error
}

// OrderRepository defines persistence for storefront orders linked to payments
type OrderRepository interface {
	// GetByID retrieves an order by its ID
	GetByID(ctx context.Context, db DBTX, id int64) (*models.Order, error)

	// GetByIDs retrieves several orders keyed by ID; missing IDs are absent from the map
	GetByIDs(ctx context.Context, db DBTX, ids []int64) (map[int64]*models.Order, error)

	// UpdateStatus sets the order status
	UpdateStatus(ctx context.Context, tx DBTX, id int64, status string) error
}

// AdminUserRepository defines persistence for payments admin users
type AdminUserRepository interface {
	// GetByUsername retrieves a user by exact username
	GetByUsername(ctx context.Context, db DBTX, username string) (*models.AdminUser, error)

	// List returns every user ordered by username
	List(ctx context.Context, db DBTX) ([]*models.AdminUser, error)

	// Create inserts a user and fills in ID and CreatedAt.
	// Returns domain.ErrAdminUserExists on a username conflict.
	Create(ctx context.Context, tx DBTX, user *models.AdminUser) error
}
