package ports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/shopspring/decimal"
)

// RefundRequest contains the parameters of a capture refund
type RefundRequest struct {
	CaptureID string
	Amount    *decimal.Decimal // nil refunds the full captured amount
	Currency  string
	Note      string
}

// RefundGateway issues refunds against the payment provider
type RefundGateway interface {
	// Refund refunds a captured payment and returns the provider's decoded response.
	// A non-2xx reply is returned as *ProviderHTTPError.
	Refund(ctx context.Context, req *RefundRequest) (models.ProviderResponse, error)
}

// ProviderHTTPError is a non-2xx reply from the payment provider
type ProviderHTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
}

// Details returns the provider error body as decoded JSON when possible,
// otherwise an {"error": ...} object carrying the raw text.
func (e *ProviderHTTPError) Details() interface{} {
	var decoded interface{}
	if err := json.Unmarshal(e.Body, &decoded); err == nil && decoded != nil {
		return decoded
	}
	return map[string]interface{}{"error": e.Error() + ": " + string(e.Body)}
}
