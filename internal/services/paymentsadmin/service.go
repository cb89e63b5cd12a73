package paymentsadmin

import (
	"context"
	"time"

	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	"github.com/kevin07696/payments-admin/pkg/resilience"
	"github.com/kevin07696/payments-admin/pkg/timeutil"
)

// Service implements the payments admin use cases: listing, detail and
// admin actions on payments.
type Service struct {
	db       ports.DBPort
	payments ports.PaymentRepository
	orders   ports.OrderRepository
	gateway  ports.RefundGateway
	audit    *AuditWriter
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
	now      func() time.Time
}

// NewService creates a new payments admin service
func NewService(
	db ports.DBPort,
	payments ports.PaymentRepository,
	orders ports.OrderRepository,
	gateway ports.RefundGateway,
	logger ports.Logger,
) *Service {
	return &Service{
		db:       db,
		payments: payments,
		orders:   orders,
		gateway:  gateway,
		audit:    NewAuditWriter(db, payments, logger),
		logger:   logger,
		timeouts: resilience.DefaultTimeoutConfig(),
		now:      timeutil.Now,
	}
}

// PaymentDetail is a payment together with its linked order, if any
type PaymentDetail struct {
	Payment *models.Payment
	Order   *models.Order
}

// GetPayment loads a payment for an action or detail view
func (s *Service) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	return s.payments.GetByID(ctx, nil, id)
}

// GetPaymentDetail loads a payment and its linked order
func (s *Service) GetPaymentDetail(ctx context.Context, id int64) (*PaymentDetail, error) {
	payment, err := s.payments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	detail := s.AttachOrder(ctx, payment)
	return &detail, nil
}

// AttachOrder looks up the order linked to payment. A failed lookup is
// logged and yields a detail without an order.
func (s *Service) AttachOrder(ctx context.Context, payment *models.Payment) PaymentDetail {
	detail := PaymentDetail{Payment: payment}
	if payment == nil || payment.OrderID == nil {
		return detail
	}

	order, err := s.orders.GetByID(ctx, nil, *payment.OrderID)
	if err != nil {
		s.logger.Warn("linked order unavailable",
			ports.Int64("payment_id", payment.ID),
			ports.Int64("order_id", *payment.OrderID),
			ports.Err(err))
		return detail
	}
	detail.Order = order
	return detail
}
