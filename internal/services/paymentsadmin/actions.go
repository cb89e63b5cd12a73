package paymentsadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payments-admin/internal/auth"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	"github.com/kevin07696/payments-admin/pkg/observability"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ActionRequest is an admin action requested against one payment
type ActionRequest struct {
	Action        string
	RefundAmount  *decimal.Decimal
	RefundPercent *decimal.Decimal
	Note          string
	Actor         models.Actor
}

// PerformAction applies an admin action to payment. Outcomes that the
// caller reports to the client, including failures, come back as an
// ActionResult; the error return is reserved for invalid input.
func (s *Service) PerformAction(ctx context.Context, payment *models.Payment, req ActionRequest) (*models.ActionResult, error) {
	if payment == nil {
		return &models.ActionResult{Message: models.MessagePaymentNotFound}, nil
	}

	ctx, cancel := s.timeouts.ActionContext(ctx)
	defer cancel()

	requested := models.NormalizeAction(req.Action)
	action, known := models.CanonicalAction(requested)
	if !known {
		observability.RecordAdminAction("unknown", models.MessageUnknownAction)
		return &models.ActionResult{Message: models.MessageUnknownAction}, nil
	}

	var resolved *decimal.Decimal
	if action == models.ActionRefund {
		if err := validateRefundInput(req.RefundAmount, req.RefundPercent); err != nil {
			return nil, err
		}
		resolved = ResolveRefundAmount(payment.Amount, req.RefundAmount, req.RefundPercent)
	}

	actor := req.Actor
	if actor.Username == "" {
		actor.Username = auth.UnknownActor
	}

	record := models.AuditActionRecord{
		Timestamp:     s.now(),
		Actor:         actor,
		Action:        requested,
		RefundAmount:  resolved,
		RefundPercent: req.RefundPercent,
		Note:          req.Note,
	}

	var result *models.ActionResult
	switch action {
	case models.ActionHold:
		result = s.transition(ctx, payment, models.PaymentStatusOnHold, record, models.MessagePaymentOnHold)
	case models.ActionReview:
		result = s.transition(ctx, payment, models.PaymentStatusDisputed, record, models.MessagePaymentDisputed)
	case models.ActionReject:
		result = s.settle(ctx, payment, record)
	default:
		result = s.refund(ctx, payment, record)
	}

	observability.RecordAdminAction(action, result.Message)
	s.logger.Info("payment action applied",
		ports.Int64("payment_id", payment.ID),
		ports.String("action", requested),
		ports.String("actor", actor.Username),
		ports.Bool("success", result.Success),
		ports.String("message", result.Message))

	return result, nil
}

// ResolveRefundAmount picks the amount to refund: an explicit amount, else
// percent of the original amount rounded to cents, else the full amount.
// A payment without an amount and no explicit request yields nil.
func ResolveRefundAmount(original decimal.Decimal, amount, percent *decimal.Decimal) *decimal.Decimal {
	if amount != nil {
		v := *amount
		return &v
	}
	if original.IsZero() {
		return nil
	}
	if percent != nil {
		v := percent.Mul(original).Div(hundred).Round(2)
		return &v
	}
	v := original
	return &v
}

func validateRefundInput(amount, percent *decimal.Decimal) error {
	if amount != nil && !amount.IsPositive() {
		return domain.ErrInvalidRefundAmount
	}
	if percent != nil && (!percent.IsPositive() || percent.GreaterThan(hundred)) {
		return domain.ErrInvalidRefundPercent
	}
	return nil
}

// persist writes status and record in one transaction. It runs on a
// detached context so a client disconnect cannot strand a refund that PayPal
// already accepted. The in-memory payment only changes when the transaction
// commits.
func (s *Service) persist(ctx context.Context, payment *models.Payment, status models.PaymentStatus, blob *models.PaymentBlob) error {
	updated := *payment
	updated.Status = status
	updated.RawResponse = blob

	ctx, cancel := s.timeouts.PersistContext(ctx)
	defer cancel()

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.payments.Update(ctx, tx, &updated)
	})
	if err != nil {
		return err
	}

	*payment = updated
	return nil
}

func (s *Service) persistWithRecord(ctx context.Context, payment *models.Payment, status models.PaymentStatus, record models.AuditActionRecord) error {
	blob := payment.Blob().Clone()
	blob.AppendAction(record)
	return s.persist(ctx, payment, status, blob)
}

func (s *Service) transition(ctx context.Context, payment *models.Payment, status models.PaymentStatus, record models.AuditActionRecord, message string) *models.ActionResult {
	if err := s.persistWithRecord(ctx, payment, status, record); err != nil {
		s.logger.Error("failed to persist payment status",
			ports.Int64("payment_id", payment.ID),
			ports.String("status", string(status)),
			ports.Err(err))
		return &models.ActionResult{Message: models.MessageDBPersistFailed}
	}
	return &models.ActionResult{Success: true, Message: message, Payment: payment}
}

// settle rejects the customer's claim: the payment becomes settled and the
// linked order is marked paid in its own transaction.
func (s *Service) settle(ctx context.Context, payment *models.Payment, record models.AuditActionRecord) (result *models.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("unexpected error applying rejected action",
				ports.Int64("payment_id", payment.ID),
				ports.Any("panic", r))
			result = &models.ActionResult{
				Message: models.MessageRejectedActionFailed,
				Detail:  fmt.Sprint(r),
			}
		}
	}()

	var secondary []models.SecondaryResult
	if payment.OrderID != nil {
		secondary = append(secondary, s.markOrderPaid(ctx, payment.ID, *payment.OrderID))
	}

	if err := s.persistWithRecord(ctx, payment, models.PaymentStatusSettled, record); err != nil {
		s.logger.Error("failed to persist settled status",
			ports.Int64("payment_id", payment.ID),
			ports.Err(err))
		return &models.ActionResult{Message: models.MessageDBPersistFailed, Secondary: secondary}
	}

	return &models.ActionResult{
		Success:   true,
		Message:   models.MessagePaymentSettled,
		Payment:   payment,
		Secondary: secondary,
	}
}

func (s *Service) markOrderPaid(ctx context.Context, paymentID, orderID int64) models.SecondaryResult {
	result := models.SecondaryResult{Effect: models.EffectOrderStatus}
	ctx, cancel := s.timeouts.PersistContext(ctx)
	defer cancel()

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.orders.UpdateStatus(ctx, tx, orderID, models.OrderStatusPaid)
	})
	if err != nil {
		observability.RecordSecondaryFailure(models.EffectOrderStatus)
		s.logger.Error("failed to update linked order status",
			ports.Int64("payment_id", paymentID),
			ports.Int64("order_id", orderID),
			ports.Err(err))
		result.Err = err
	}
	return result
}

func (s *Service) refund(ctx context.Context, payment *models.Payment, record models.AuditActionRecord) *models.ActionResult {
	if !payment.IsPayPal() {
		record.Warning = models.UnsupportedProviderWarning(payment.NormalizedProvider())
		result := &models.ActionResult{Message: models.MessageUnsupportedProvider, Payment: payment}
		if err := s.persistWithRecord(ctx, payment, models.PaymentStatusRefundPending, record); err != nil {
			observability.RecordSecondaryFailure(models.EffectStatusPersist)
			s.logger.Error("failed to persist refund_pending status",
				ports.Int64("payment_id", payment.ID),
				ports.Err(err))
			result.Secondary = append(result.Secondary, models.SecondaryResult{Effect: models.EffectStatusPersist, Err: err})
		}
		return result
	}

	if payment.ProviderCaptureID == "" {
		audit := s.audit.Append(ctx, payment, record.WithError(models.MessageNoCaptureID, nil))
		return &models.ActionResult{
			Message:   models.MessageNoCaptureID,
			Secondary: []models.SecondaryResult{audit},
		}
	}

	providerCtx, cancel := s.timeouts.ExternalAPIContext(ctx)
	defer cancel()
	resp, err := s.gateway.Refund(providerCtx, &ports.RefundRequest{
		CaptureID: payment.ProviderCaptureID,
		Amount:    record.RefundAmount,
		Currency:  payment.CurrencyOrDefault(),
		Note:      record.Note,
	})
	if err != nil {
		return s.refundFailed(ctx, payment, record, err)
	}

	result := &models.ActionResult{
		Success:        true,
		Message:        models.MessageRefundInitiated,
		Payment:        payment,
		RefundResponse: resp,
	}

	blob := payment.Blob().Clone()
	err = blob.AppendRefund(resp)
	if err == nil {
		blob.AppendAction(record)
		err = s.persist(ctx, payment, models.PaymentStatusRefunded, blob)
	}
	if err != nil {
		observability.RecordSecondaryFailure(models.EffectRefundPersist)
		s.logger.Error("failed to persist refund info",
			ports.Int64("payment_id", payment.ID),
			ports.String("capture_id", payment.ProviderCaptureID),
			ports.Err(err))
		result.Secondary = append(result.Secondary, models.SecondaryResult{Effect: models.EffectRefundPersist, Err: err})
	}

	return result
}

func (s *Service) refundFailed(ctx context.Context, payment *models.Payment, record models.AuditActionRecord, err error) *models.ActionResult {
	var httpErr *ports.ProviderHTTPError
	if errors.As(err, &httpErr) {
		details := httpErr.Details()
		s.logger.Error("provider refund HTTP error",
			ports.Int64("payment_id", payment.ID),
			ports.String("capture_id", payment.ProviderCaptureID),
			ports.Int("status_code", httpErr.StatusCode),
			ports.Err(err))
		audit := s.audit.Append(ctx, payment, record.WithError(models.MessageProviderRefundFailed, details))
		return &models.ActionResult{
			Message:   models.MessageProviderRefundFailed,
			Detail:    details,
			Secondary: []models.SecondaryResult{audit},
		}
	}

	s.logger.Error("unexpected refund error",
		ports.Int64("payment_id", payment.ID),
		ports.String("capture_id", payment.ProviderCaptureID),
		ports.Err(err))
	audit := s.audit.Append(ctx, payment, record.WithError(models.MessageRefundFailed, err.Error()))
	return &models.ActionResult{
		Message:   models.MessageRefundFailed,
		Detail:    err.Error(),
		Secondary: []models.SecondaryResult{audit},
	}
}
