package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	"github.com/kevin07696/payments-admin/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayPal struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	refundCalls atomic.Int32
	lastBody    atomic.Value // map[string]interface{}
	lastPath    atomic.Value // string
	tokenStatus int
	tokenStall  bool
	refund      func(w http.ResponseWriter, r *http.Request)
}

func newFakePayPal(t *testing.T) *fakePayPal {
	t.Helper()
	f := &fakePayPal{tokenStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.tokenStall {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		if f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"A21AA-token","token_type":"Bearer","expires_in":32400}`))
	})
	mux.HandleFunc("/v2/payments/captures/", func(w http.ResponseWriter, r *http.Request) {
		f.refundCalls.Add(1)
		f.lastPath.Store(r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer A21AA-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		f.lastBody.Store(body)

		if f.refund != nil {
			f.refund(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1JU08902781691411","status":"COMPLETED"}`))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakePayPal) body() map[string]interface{} {
	v, _ := f.lastBody.Load().(map[string]interface{})
	return v
}

func newTestClient(f *fakePayPal) ports.RefundGateway {
	cfg := DefaultConfig()
	cfg.BaseURL = f.server.URL
	cfg.ClientID = "client-id"
	cfg.ClientSecret = "client-secret"
	cfg.Timeout = 2 * time.Second
	cfg.CircuitBreaker = CircuitBreakerConfig{MaxFailures: 2, Cooldown: time.Minute}
	return NewRefundClient(cfg, f.server.Client(), mocks.NewMockLogger())
}

func TestRefundClient_FullRefundOmitsAmount(t *testing.T) {
	f := newFakePayPal(t)
	client := newTestClient(f)

	resp, err := client.Refund(context.Background(), &ports.RefundRequest{CaptureID: "CAP-123", Currency: "USD"})
	require.NoError(t, err)

	assert.Equal(t, "COMPLETED", resp["status"])
	assert.Equal(t, "/v2/payments/captures/CAP-123/refund", f.lastPath.Load())
	assert.NotContains(t, f.body(), "amount")
	assert.NotContains(t, f.body(), "note_to_payer")
}

func TestRefundClient_PartialRefundBody(t *testing.T) {
	f := newFakePayPal(t)
	client := newTestClient(f)

	amount := decimal.RequireFromString("50")
	_, err := client.Refund(context.Background(), &ports.RefundRequest{
		CaptureID: "CAP-9",
		Amount:    &amount,
		Note:      "Sorry for the delay",
	})
	require.NoError(t, err)

	body := f.body()
	assert.Equal(t, map[string]interface{}{"value": "50.00", "currency_code": "USD"}, body["amount"])
	assert.Equal(t, "Sorry for the delay", body["note_to_payer"])
}

func TestRefundClient_TokenIsCached(t *testing.T) {
	f := newFakePayPal(t)
	client := newTestClient(f)

	for i := 0; i < 3; i++ {
		_, err := client.Refund(context.Background(), &ports.RefundRequest{CaptureID: "CAP-1"})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), f.tokenCalls.Load())
	assert.Equal(t, int32(3), f.refundCalls.Load())
}

func TestRefundClient_HTTPErrorCarriesBody(t *testing.T) {
	f := newFakePayPal(t)
	f.refund = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"CAPTURE_FULLY_REFUNDED"}]}`))
	}
	client := newTestClient(f)

	_, err := client.Refund(context.Background(), &ports.RefundRequest{CaptureID: "CAP-1"})
	require.Error(t, err)

	var httpErr *ports.ProviderHTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	details, ok := httpErr.Details().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "UNPROCESSABLE_ENTITY", details["name"])
}

func TestRefundClient_RejectionsDoNotOpenCircuit(t *testing.T) {
	f := newFakePayPal(t)
	f.refund = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	client := newTestClient(f)

	for i := 0; i < 4; i++ {
		_, err := client.Refund(context.Background(), &ports.RefundRequest{CaptureID: "CAP-1"})
		var httpErr *ports.ProviderHTTPError
		require.True(t, errors.As(err, &httpErr), "call %d should reach PayPal", i)
	}
	assert.Equal(t, int32(4), f.refundCalls.Load())
}

func TestRefundClient_ServerErrorsOpenCircuit(t *testing.T) {
	f := newFakePayPal(t)
	f.refund = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	client := newTestClient(f)

	for i := 0; i < 2; i++ {
		_, err := client.Refund(context.Background(), &ports.RefundRequest{CaptureID: "CAP-1"})
		require.Error(t, err)
	}

	_, err := client.Refund(context.Background(), &ports.RefundRequest{CaptureID: "CAP-1"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), f.refundCalls.Load())
}

func TestRefundClient_NotConfigured(t *testing.T) {
	cfg := DefaultConfig()
	client := NewRefundClient(cfg, http.DefaultClient, mocks.NewMockLogger())

	_, err := client.Refund(context.Background(), &ports.RefundRequest{CaptureID: "CAP-1"})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeProviderNotConfigured))
}

func TestRefundClient_TokenFailure(t *testing.T) {
	f := newFakePayPal(t)
	f.tokenStatus = http.StatusUnauthorized
	client := newTestClient(f)

	_, err := client.Refund(context.Background(), &ports.RefundRequest{CaptureID: "CAP-1"})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeProviderAuthFailed))
	assert.Equal(t, int32(0), f.refundCalls.Load())
}

func TestRefundClient_TokenExchangeHonoursCallerContext(t *testing.T) {
	f := newFakePayPal(t)
	f.tokenStall = true
	client := newTestClient(f)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Refund(ctx, &ports.RefundRequest{CaptureID: "CAP-1"})

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeProviderAuthFailed))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(0), f.refundCalls.Load())
}
