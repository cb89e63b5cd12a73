package paymentsadmin

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	"github.com/kevin07696/payments-admin/pkg/observability"
	"github.com/kevin07696/payments-admin/pkg/resilience"
)

// AuditWriter appends records to a payment's embedded admin action log.
// Writes are best-effort: a failure is rolled back, logged and counted,
// and reported to the caller only as a SecondaryResult.
type AuditWriter struct {
	db       ports.DBPort
	payments ports.PaymentRepository
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewAuditWriter creates a new audit trail writer
func NewAuditWriter(db ports.DBPort, payments ports.PaymentRepository, logger ports.Logger) *AuditWriter {
	return &AuditWriter{
		db:       db,
		payments: payments,
		logger:   logger,
		timeouts: resilience.DefaultTimeoutConfig(),
	}
}

// Append adds record to the payment's _admin_actions list and persists only
// the blob column. The in-memory payment is updated when the write commits.
func (w *AuditWriter) Append(ctx context.Context, payment *models.Payment, record models.AuditActionRecord) models.SecondaryResult {
	result := models.SecondaryResult{Effect: models.EffectAuditAppend}
	if payment == nil {
		return result
	}

	blob := payment.Blob().Clone()
	blob.AppendAction(record)

	// The record outlives a client disconnect
	ctx, cancel := w.timeouts.AuditContext(ctx)
	defer cancel()

	err := w.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return w.payments.UpdateRawResponse(ctx, tx, payment.ID, blob)
	})
	if err != nil {
		observability.RecordSecondaryFailure(models.EffectAuditAppend)
		w.logger.Error("failed to persist admin action",
			ports.Int64("payment_id", payment.ID),
			ports.String("action", record.Action),
			ports.Err(err))
		result.Err = err
		return result
	}

	payment.RawResponse = blob
	return result
}
