package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest(t *testing.T) {
	c := New()

	c.ObserveRequest("reject_declaration", http.MethodPost, "success", 20*time.Millisecond)
	c.ObserveRequest("reject_declaration", http.MethodPost, "success", 30*time.Millisecond)
	c.ObserveRequest("list_pending", http.MethodGet, "timeout", 10*time.Second)
	c.ObserveRequest("", http.MethodGet, "network", time.Millisecond)

	tests := []struct {
		labels []string
		want   float64
	}{
		{[]string{"reject_declaration", "POST", "success"}, 2},
		{[]string{"list_pending", "GET", "timeout"}, 1},
		{[]string{"unknown", "GET", "network"}, 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues(tt.labels...)); got != tt.want {
			t.Errorf("%v: expected %v, got %v", tt.labels, tt.want, got)
		}
	}

	if n := testutil.CollectAndCount(c.APIRequestDuration); n != 3 {
		t.Errorf("expected 3 histogram series, got %d", n)
	}
}

func TestHandler(t *testing.T) {
	c := New()
	c.ServedRequestsTotal.WithLabelValues("/validacion/pendientes", "GET", "200").Inc()

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `ducactl_mock_http_requests_total{method="GET",route="/validacion/pendientes",status="200"} 1`) {
		t.Errorf("served counter missing from exposition:\n%s", w.Body.String())
	}
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.ObserveRequest("login", http.MethodPost, "http", time.Millisecond)

	path := filepath.Join(t.TempDir(), "ducactl.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `ducactl_api_requests_total{method="POST",operation="login",outcome="http"} 1`) {
		t.Errorf("unexpected textfile contents:\n%s", data)
	}
}
