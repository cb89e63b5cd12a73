package paymentsadmin

import (
	"time"

	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/services/paymentsadmin"
)

// OrderView is the JSON form of a linked order
type OrderView struct {
	ID            int64   `json:"id"`
	OrderNumber   *string `json:"order_number"`
	CustomerName  *string `json:"customer_name"`
	CustomerEmail *string `json:"customer_email"`
	Status        *string `json:"status"`
	TotalAmount   *string `json:"total_amount"`
	Currency      *string `json:"currency"`
}

// PaymentView is the JSON form of a payment
type PaymentView struct {
	ID                int64               `json:"id"`
	OrderID           *int64              `json:"order_id"`
	Provider          *string             `json:"provider"`
	ProviderOrderID   *string             `json:"provider_order_id"`
	ProviderCaptureID *string             `json:"provider_capture_id"`
	Amount            string              `json:"amount"`
	Currency          *string             `json:"currency"`
	Status            *string             `json:"status"`
	PayerName         *string             `json:"payer_name"`
	PayerEmail        *string             `json:"payer_email"`
	PayerID           *string             `json:"payer_id"`
	RawResponse       *models.PaymentBlob `json:"raw_response"`
	CreatedAt         *string             `json:"created_at"`
	Order             *OrderView          `json:"order"`
}

// PaymentPageView is the JSON form of a listing page
type PaymentPageView struct {
	Items   []PaymentView `json:"items"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Total   int           `json:"total"`
	Pages   int           `json:"pages"`
}

// ActionResultView is the JSON envelope returned by the action endpoints
type ActionResultView struct {
	Success        bool                    `json:"success"`
	Message        string                  `json:"message"`
	UpdatedPayment *PaymentView            `json:"updated_payment,omitempty"`
	RefundResponse models.ProviderResponse `json:"refund_response,omitempty"`
	Detail         interface{}             `json:"detail,omitempty"`
}

// AdminUserView is the JSON form of an admin user
type AdminUserView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toOrderView(o *models.Order) *OrderView {
	if o == nil {
		return nil
	}
	view := &OrderView{
		ID:            o.ID,
		OrderNumber:   nullable(o.OrderNumber),
		CustomerName:  nullable(o.CustomerName),
		CustomerEmail: nullable(o.CustomerEmail),
		Status:        nullable(o.Status),
		Currency:      nullable(o.Currency),
	}
	if o.TotalAmount != nil {
		total := o.TotalAmount.StringFixed(2)
		view.TotalAmount = &total
	}
	return view
}

func toPaymentView(d paymentsadmin.PaymentDetail) PaymentView {
	p := d.Payment
	view := PaymentView{
		ID:                p.ID,
		OrderID:           p.OrderID,
		Provider:          nullable(p.Provider),
		ProviderOrderID:   nullable(p.ProviderOrderID),
		ProviderCaptureID: nullable(p.ProviderCaptureID),
		Amount:            p.Amount.StringFixed(2),
		Currency:          nullable(p.Currency),
		Status:            nullable(string(p.Status)),
		PayerName:         nullable(p.PayerName),
		PayerEmail:        nullable(p.PayerEmail),
		PayerID:           nullable(p.PayerID),
		RawResponse:       p.RawResponse,
		Order:             toOrderView(d.Order),
	}
	if !p.CreatedAt.IsZero() {
		created := p.CreatedAt.UTC().Format(time.RFC3339Nano)
		view.CreatedAt = &created
	}
	return view
}

func toPaymentPageView(page *paymentsadmin.PaymentPage) PaymentPageView {
	items := make([]PaymentView, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, toPaymentView(item))
	}
	return PaymentPageView{
		Items:   items,
		Page:    page.Page,
		PerPage: page.PerPage,
		Total:   page.Total,
		Pages:   page.Pages,
	}
}

func toAdminUserView(u *models.AdminUser) AdminUserView {
	return AdminUserView{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
