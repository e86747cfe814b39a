package http

import (
	"net/http"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		config   *ClientConfig
		validate func(t *testing.T, client *http.Client)
	}{
		{
			name:   "nil config uses defaults",
			config: nil,
			validate: func(t *testing.T, client *http.Client) {
				if client.Timeout != 30*time.Second {
					t.Errorf("expected default timeout 30s, got %v", client.Timeout)
				}
				transport, ok := client.Transport.(*http.Transport)
				if !ok {
					t.Fatalf("expected pooled *http.Transport, got %T", client.Transport)
				}
				if transport.MaxConnsPerHost != 10 {
					t.Errorf("expected 10 conns per host, got %d", transport.MaxConnsPerHost)
				}
			},
		},
		{
			name:   "context-driven deadline leaves timeout unset",
			config: &ClientConfig{MaxConnsPerHost: 4},
			validate: func(t *testing.T, client *http.Client) {
				if client.Timeout != 0 {
					t.Errorf("expected no client timeout, got %v", client.Timeout)
				}
				transport := client.Transport.(*http.Transport)
				if transport.MaxConnsPerHost != 4 || transport.MaxIdleConnsPerHost != 4 {
					t.Errorf("expected pool of 4, got %d/%d", transport.MaxConnsPerHost, transport.MaxIdleConnsPerHost)
				}
			},
		},
		{
			name: "custom transport",
			config: &ClientConfig{
				Timeout:   5 * time.Second,
				Transport: http.DefaultTransport,
			},
			validate: func(t *testing.T, client *http.Client) {
				if client.Transport != http.DefaultTransport {
					t.Error("expected custom transport to be set")
				}
			},
		},
		{
			name: "custom check redirect",
			config: &ClientConfig{
				CheckRedirect: func(req *http.Request, via []*http.Request) error {
					return http.ErrUseLastResponse
				},
			},
			validate: func(t *testing.T, client *http.Client) {
				if client.CheckRedirect == nil {
					t.Error("expected custom check redirect to be set")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.config)
			if client == nil {
				t.Fatal("expected client to be created, got nil")
			}
			tt.validate(t, client)
		})
	}
}
