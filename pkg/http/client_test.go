package http

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderClientConfig_StaysWithinRefundBudget(t *testing.T) {
	cfg := ProviderClientConfig()

	assert.LessOrEqual(t, cfg.ResponseHeaderTimeout, 20*time.Second)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinTLSVersion)
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(ProviderClientConfig(), 20*time.Second)
	assert.Equal(t, 20*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok, "expected *http.Transport, got %T", client.Transport)
	assert.Equal(t, 4, transport.MaxIdleConnsPerHost)
	assert.Equal(t, uint16(tls.VersionTLS12), transport.TLSClientConfig.MinVersion)
	assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
	assert.True(t, transport.ForceAttemptHTTP2)
}

func TestNewHTTPClient_NilConfigUsesProviderDefaults(t *testing.T) {
	client := NewHTTPClient(nil, time.Second)

	transport := client.Transport.(*http.Transport)
	assert.Equal(t, 16, transport.MaxConnsPerHost)
}
