package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle state of a captured payment
type PaymentStatus string

const (
	PaymentStatusCompleted     PaymentStatus = "completed" // Initial provider state
	PaymentStatusOnHold        PaymentStatus = "on_hold"
	PaymentStatusDisputed      PaymentStatus = "disputed"
	PaymentStatusSettled       PaymentStatus = "settled"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

// ProviderPayPal is the only provider the refund flow can call
const ProviderPayPal = "paypal"

// DefaultCurrency is used when a payment carries no currency code
const DefaultCurrency = "USD"

// OrderStatusPaid is written to the linked order when a claim is rejected
const OrderStatusPaid = "paid"

// Payment is a captured payment as stored by the storefront checkout
type Payment struct {
	ID                int64
	OrderID           *int64
	Provider          string
	ProviderOrderID   string
	ProviderCaptureID string
	Amount            decimal.Decimal // Never mutated after creation
	Currency          string
	Status            PaymentStatus
	PayerName         string
	PayerEmail        string
	PayerID           string
	RawResponse       *PaymentBlob
	CreatedAt         time.Time
}

// IsPayPal reports whether the payment was taken through PayPal
func (p *Payment) IsPayPal() bool {
	return p.NormalizedProvider() == ProviderPayPal
}

// NormalizedProvider returns the lowercased provider name
func (p *Payment) NormalizedProvider() string {
	return strings.ToLower(strings.TrimSpace(p.Provider))
}

// CurrencyOrDefault returns the payment currency, falling back to USD
func (p *Payment) CurrencyOrDefault() string {
	if p.Currency == "" {
		return DefaultCurrency
	}
	return p.Currency
}

// Blob returns the payment blob, creating an empty one when absent
func (p *Payment) Blob() *PaymentBlob {
	if p.RawResponse == nil {
		p.RawResponse = NewPaymentBlob()
	}
	return p.RawResponse
}

// Order is the storefront order linked to a payment
type Order struct {
	ID            int64
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Status        string
	TotalAmount   *decimal.Decimal
	Currency      string
}

// PaymentFilter narrows a payment listing
type PaymentFilter struct {
	CreatedFrom   *time.Time // Inclusive
	CreatedTo     *time.Time // Exclusive
	StatusPattern string     // SQL LIKE pattern, already escaped
	Limit         int
	Offset        int
}
