package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

const orderColumns = `id, order_number, customer_name, customer_email, status, total_amount, currency`

// OrderRepository implements ports.OrderRepository
type OrderRepository struct {
	db ports.DBPort
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db ports.DBPort) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, db ports.DBTX, id int64) (*models.Order, error) {
	row := r.executor(db).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, wrapError("get order", err, domain.ErrOrderNotFound)
	}
	return order, nil
}

// GetByIDs retrieves several orders in one query
func (r *OrderRepository) GetByIDs(ctx context.Context, db ports.DBTX, ids []int64) (map[int64]*models.Order, error) {
	orders := make(map[int64]*models.Order, len(ids))
	if len(ids) == 0 {
		return orders, nil
	}

	rows, err := r.executor(db).Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, wrapError("list orders", err, nil)
	}
	defer rows.Close()

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders[order.ID] = order
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate orders", err, nil)
	}

	return orders, nil
}

// UpdateStatus sets the order status
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id int64, status string) error {
	tag, err := r.executor(tx).Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return wrapError("update order status", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o             models.Order
		orderNumber   pgtype.Text
		customerName  pgtype.Text
		customerEmail pgtype.Text
		status        pgtype.Text
		totalAmount   pgtype.Numeric
		currency      pgtype.Text
	)

	if err := row.Scan(&o.ID, &orderNumber, &customerName, &customerEmail, &status, &totalAmount, &currency); err != nil {
		return nil, err
	}

	total, err := pgNumericToDecimalPtr(totalAmount)
	if err != nil {
		return nil, fmt.Errorf("convert total_amount: %w", err)
	}

	o.OrderNumber = textValue(orderNumber)
	o.CustomerName = textValue(customerName)
	o.CustomerEmail = textValue(customerEmail)
	o.Status = textValue(status)
	o.TotalAmount = total
	o.Currency = textValue(currency)

	return &o, nil
}
