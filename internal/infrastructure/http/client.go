package http

import (
	"net/http"
	"time"
)

// ClientConfig holds configuration for the underlying HTTP client.
type ClientConfig struct {
	// Timeout bounds the whole exchange. The executor enforces its own per-request
	// deadline through the context, so it leaves this at 0.
	Timeout         time.Duration
	MaxConnsPerHost int // 0 uses 10
	Transport       http.RoundTripper
	CheckRedirect   func(req *http.Request, via []*http.Request) error
}

// NewClient creates an HTTP client with a pooled transport.
// A nil config uses a 30s timeout.
func NewClient(config *ClientConfig) *http.Client {
	if config == nil {
		config = &ClientConfig{
			Timeout: 30 * time.Second,
		}
	}

	client := &http.Client{
		Timeout:   config.Timeout,
		Transport: config.Transport,
	}

	if client.Transport == nil {
		client.Transport = newTransport(config.MaxConnsPerHost)
	}

	if config.CheckRedirect != nil {
		client.CheckRedirect = config.CheckRedirect
	}

	return client
}

func newTransport(maxConnsPerHost int) *http.Transport {
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = 10
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxConnsPerHost,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
