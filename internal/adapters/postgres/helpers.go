package postgres

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/shopspring/decimal"
)

// nullText creates a pgtype.Text with empty string handling
func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// textValue returns the string of a nullable text column, empty when NULL
func textValue(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// pgNumericToDecimal converts pgtype.Numeric to decimal.Decimal
func pgNumericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	var dec decimal.Decimal
	str, err := n.MarshalJSON()
	if err != nil {
		return dec, fmt.Errorf("marshal numeric: %w", err)
	}
	// Remove quotes from JSON string
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	return decimal.NewFromString(string(str))
}

// pgNumericToDecimalPtr converts a nullable numeric column
func pgNumericToDecimalPtr(n pgtype.Numeric) (*decimal.Decimal, error) {
	if !n.Valid {
		return nil, nil
	}
	dec, err := pgNumericToDecimal(n)
	if err != nil {
		return nil, err
	}
	return &dec, nil
}

// Unique violation
const uniqueViolation = "23505"

// isConnectionError reports whether err means the database could not be
// reached or dropped the session, as opposed to a query-level failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception; 57P01-57P03: admin shutdown, crash shutdown, cannot connect now
		return strings.HasPrefix(pgErr.Code, "08") ||
			pgErr.Code == "57P01" || pgErr.Code == "57P02" || pgErr.Code == "57P03"
	}

	var netErr *net.OpError
	return errors.As(err, &netErr)
}

// isFatalConnectError reports failures that retrying will not fix: bad
// credentials (class 28) or a missing database (3D000).
func isFatalConnectError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "28") || pgErr.Code == "3D000"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// wrapError maps driver errors onto domain errors. Missing rows become
// notFound (when given), connection failures become DATABASE_UNAVAILABLE,
// anything else is wrapped with the operation name.
func wrapError(op string, err error, notFound *domain.DomainError) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return domain.WrapError(notFound.Code, notFound.Message, err)
	}
	if isConnectionError(err) {
		return domain.WrapError(domain.ErrorCodeDatabaseUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
