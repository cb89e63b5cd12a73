package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	adapterports "github.com/kevin07696/payments-admin/internal/adapters/ports"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	pkghttp "github.com/kevin07696/payments-admin/pkg/http"
	"github.com/kevin07696/payments-admin/pkg/observability"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Cap on provider error bodies kept for the audit trail
const maxErrorBodyBytes = 64 << 10

// Config contains configuration for the PayPal refund client
type Config struct {
	BaseURL        string // e.g., "https://api-m.sandbox.paypal.com"
	ClientID       string
	ClientSecret   string
	Timeout        time.Duration
	CircuitBreaker CircuitBreakerConfig
}

// DefaultConfig returns default configuration pointed at the sandbox
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://api-m.sandbox.paypal.com",
		Timeout:        20 * time.Second,
		CircuitBreaker: DefaultCircuitBreakerConfig(),
	}
}

// Configured reports whether credentials and a base URL are present
func (c *Config) Configured() bool {
	return c != nil && c.BaseURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// refundClient implements the ports.RefundGateway port
type refundClient struct {
	config     *Config
	httpClient adapterports.HTTPClient
	tokens     *tokenCache
	breaker    *CircuitBreaker
	logger     ports.Logger
}

// NewRefundClient creates a PayPal refund client. Bearer tokens are obtained
// with the client credentials grant and cached until they expire.
func NewRefundClient(config *Config, httpClient *http.Client, logger ports.Logger) ports.RefundGateway {
	if httpClient == nil {
		httpClient = pkghttp.NewHTTPClient(pkghttp.ProviderClientConfig(), config.Timeout)
	}

	c := &refundClient{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}

	if config.Configured() {
		cc := &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     strings.TrimRight(config.BaseURL, "/") + "/v1/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		c.tokens = &tokenCache{config: cc, client: httpClient}
	}

	breakerConfig := config.CircuitBreaker
	breakerConfig.IsFailure = isProviderFailure
	breakerConfig.OnStateChange = func(s CircuitState) {
		observability.SetProviderCircuitState(models.ProviderPayPal, int(s))
	}
	c.breaker = NewCircuitBreaker(breakerConfig)

	return c
}

type refundAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type refundRequestBody struct {
	Amount      *refundAmount `json:"amount,omitempty"`
	NoteToPayer string        `json:"note_to_payer,omitempty"`
}

// Refund refunds a captured payment
func (c *refundClient) Refund(ctx context.Context, req *ports.RefundRequest) (models.ProviderResponse, error) {
	if c.tokens == nil {
		c.logger.Error("PayPal refund attempted without credentials",
			ports.String("capture_id", req.CaptureID))
		return nil, domain.ErrProviderNotConfigured
	}

	start := time.Now()
	var resp models.ProviderResponse
	err := c.breaker.Call(func() error {
		var callErr error
		resp, callErr = c.doRefund(ctx, req)
		return callErr
	})

	observability.RecordProviderRefund(models.ProviderPayPal, refundStatusLabel(err), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// tokenCache holds the bearer token between refunds. Each exchange runs on
// the caller's context; a concurrent refund waits for it instead of
// starting a second one.
type tokenCache struct {
	config *clientcredentials.Config
	client *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

func (t *tokenCache) Token(ctx context.Context) (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token.Valid() {
		return t.token, nil
	}
	token, err := t.config.Token(context.WithValue(ctx, oauth2.HTTPClient, t.client))
	if err != nil {
		return nil, err
	}
	t.token = token
	return token, nil
}

func (c *refundClient) doRefund(ctx context.Context, req *ports.RefundRequest) (models.ProviderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("PayPal token exchange failed", ports.Err(err))
		return nil, domain.WrapError(domain.ErrorCodeProviderAuthFailed, "PayPal token exchange failed", err)
	}

	body := refundRequestBody{NoteToPayer: req.Note}
	if req.Amount != nil {
		currency := req.Currency
		if currency == "" {
			currency = models.DefaultCurrency
		}
		body.Amount = &refundAmount{
			Value:        req.Amount.StringFixed(2),
			CurrencyCode: currency,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode refund request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/payments/captures/%s/refund",
		strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(req.CaptureID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	token.SetAuthHeader(httpReq)

	c.logger.Info("Calling PayPal refund API",
		ports.String("capture_id", req.CaptureID),
		ports.Bool("partial", req.Amount != nil))

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("PayPal refund request failed: %w", err)
	}
	defer httpResp.Body.Close()

	c.logger.Info("PayPal refund API responded",
		ports.String("capture_id", req.CaptureID),
		ports.Int("status_code", httpResp.StatusCode),
		ports.Duration("duration", time.Since(startTime)))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodyBytes))
		return nil, &ports.ProviderHTTPError{StatusCode: httpResp.StatusCode, Body: raw}
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refund response: %w", err)
	}

	result := models.ProviderResponse{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("failed to decode refund response: %w", err)
		}
	}
	return result, nil
}

// isProviderFailure counts transport errors and 5xx replies against the
// circuit. 4xx rejections, local configuration problems and callers that
// gave up do not.
func isProviderFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *ports.ProviderHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	if domain.IsDomainError(err, domain.ErrorCodeProviderAuthFailed) {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return retrieveErr.Response.StatusCode >= 500
		}
		return true
	}
	return true
}

func refundStatusLabel(err error) string {
	var httpErr *ports.ProviderHTTPError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrProbeInFlight):
		return "circuit_open"
	case errors.As(err, &httpErr):
		return "http_error"
	case domain.IsDomainError(err, domain.ErrorCodeProviderAuthFailed):
		return "auth_error"
	default:
		return "transport_error"
	}
}
