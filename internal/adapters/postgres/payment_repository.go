package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

const paymentColumns = `id, order_id, provider, provider_order_id, provider_capture_id,
	amount, currency, status, payer_name, payer_email, payer_id, raw_response, created_at`

// PaymentRepository implements ports.PaymentRepository on raw pgx queries
type PaymentRepository struct {
	db ports.DBPort
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db ports.DBPort) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// GetByID retrieves a payment by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, db ports.DBTX, id int64) (*models.Payment, error) {
	row := r.executor(db).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)

	payment, err := scanPayment(row)
	if err != nil {
		return nil, wrapError("get payment", err, domain.ErrPaymentNotFound)
	}
	return payment, nil
}

// List returns one page of payments matching filter, newest first
func (r *PaymentRepository) List(ctx context.Context, db ports.DBTX, filter models.PaymentFilter) ([]*models.Payment, int, error) {
	q := r.executor(db)
	where, args := paymentWhere(filter)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapError("count payments", err, nil)
	}

	listArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM payments%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, where, len(args)+1, len(args)+2)

	rows, err := q.Query(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, wrapError("list payments", err, nil)
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0, filter.Limit)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("iterate payments", err, nil)
	}

	return payments, total, nil
}

// Update writes the payment status and raw_response blob
func (r *PaymentRepository) Update(ctx context.Context, tx ports.DBTX, payment *models.Payment) error {
	blob, err := encodeBlob(payment.RawResponse)
	if err != nil {
		return err
	}

	tag, err := r.executor(tx).Exec(ctx,
		`UPDATE payments SET status = $2, raw_response = $3::jsonb WHERE id = $1`,
		payment.ID, nullText(string(payment.Status)), blob)
	if err != nil {
		return wrapError("update payment", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// UpdateRawResponse writes only the raw_response blob
func (r *PaymentRepository) UpdateRawResponse(ctx context.Context, tx ports.DBTX, id int64, blob *models.PaymentBlob) error {
	encoded, err := encodeBlob(blob)
	if err != nil {
		return err
	}

	tag, err := r.executor(tx).Exec(ctx,
		`UPDATE payments SET raw_response = $2::jsonb WHERE id = $1`, id, encoded)
	if err != nil {
		return wrapError("update payment raw_response", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// encodeBlob returns the blob as JSON text, nil for a NULL column
func encodeBlob(blob *models.PaymentBlob) (*string, error) {
	if blob == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("encode raw_response: %w", err)
	}
	s := string(encoded)
	return &s, nil
}

func paymentWhere(filter models.PaymentFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if filter.StatusPattern != "" {
		args = append(args, filter.StatusPattern)
		conds = append(conds, fmt.Sprintf(`LOWER(COALESCE(status, '')) LIKE $%d ESCAPE '\'`, len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var (
		p           models.Payment
		orderID     pgtype.Int8
		provider    pgtype.Text
		providerOID pgtype.Text
		captureID   pgtype.Text
		amount      pgtype.Numeric
		currency    pgtype.Text
		status      pgtype.Text
		payerName   pgtype.Text
		payerEmail  pgtype.Text
		payerID     pgtype.Text
		rawResponse []byte
		createdAt   time.Time
	)

	err := row.Scan(&p.ID, &orderID, &provider, &providerOID, &captureID,
		&amount, &currency, &status, &payerName, &payerEmail, &payerID, &rawResponse, &createdAt)
	if err != nil {
		return nil, err
	}

	if orderID.Valid {
		id := orderID.Int64
		p.OrderID = &id
	}
	if amount.Valid {
		p.Amount, err = pgNumericToDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("convert amount: %w", err)
		}
	}
	p.Provider = textValue(provider)
	p.ProviderOrderID = textValue(providerOID)
	p.ProviderCaptureID = textValue(captureID)
	p.Currency = textValue(currency)
	p.Status = models.PaymentStatus(textValue(status))
	p.PayerName = textValue(payerName)
	p.PayerEmail = textValue(payerEmail)
	p.PayerID = textValue(payerID)
	p.RawResponse = models.ParsePaymentBlob(rawResponse)
	p.CreatedAt = createdAt.UTC()

	return &p, nil
}
