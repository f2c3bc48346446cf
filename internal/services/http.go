package services

import (
	"net"
	"net/http"
	"time"
)

// HTTPConfig holds the timeouts applied to outgoing requests.
type HTTPConfig struct {
	// Total timeout for a request including reading the body.
	// A context deadline can still override this.
	Timeout time.Duration

	DialTimeout    time.Duration
	KeepAlive      time.Duration
	TLSHandshake   time.Duration
	ResponseHeader time.Duration

	// DisableKeepAlives closes the connection after each request.
	DisableKeepAlives bool
}

// DefaultHTTPConfig returns the timeouts used for both Slack endpoints.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:        30 * time.Second,
		DialTimeout:    5 * time.Second,
		KeepAlive:      30 * time.Second,
		TLSHandshake:   5 * time.Second,
		ResponseHeader: 20 * time.Second,
	}
}

// NewHTTPClient builds an [http.Client] with its own [http.Transport], so clients never share connections.
func NewHTTPClient(cfg HTTPConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		DisableKeepAlives:     cfg.DisableKeepAlives,
		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   cfg.Timeout,
	}
}
