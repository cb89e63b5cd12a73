package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// ClientConfig tunes the transport used for outbound provider calls
type ClientConfig struct {
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	KeepAlive             time.Duration

	MinTLSVersion uint16
}

// ProviderClientConfig returns settings for the payment provider REST API.
// Refunds go to a single host at low volume, so the pool stays small.
func ProviderClientConfig() *ClientConfig {
	return &ClientConfig{
		MaxIdleConnsPerHost: 4,
		MaxConnsPerHost:     16,
		IdleConnTimeout:     90 * time.Second,

		DialTimeout:           5 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		KeepAlive:             30 * time.Second,

		MinTLSVersion: tls.VersionTLS12,
	}
}

// NewHTTPClient builds a client whose overall deadline is timeout
func NewHTTPClient(cfg *ClientConfig, timeout time.Duration) *http.Client {
	if cfg == nil {
		cfg = ProviderClientConfig()
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConnsPerHost,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: cfg.MinTLSVersion},
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
