package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"3tcapital/ducactl/internal/testutil"
)

type clientFunc func(*http.Request) (*http.Response, error)

func (f clientFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

type staticTokens string

func (s staticTokens) AuthHeader(ctx context.Context) http.Header {
	h := http.Header{}
	if s != "" {
		h.Set("Authorization", "Bearer "+string(s))
	}
	return h
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveRequest(operation, method, outcome string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, operation+":"+method+":"+outcome)
}

func newTestExecutor(baseURL string, tokens TokenSource, cfg ExecutorConfig) *Executor {
	cfg.BaseURL = baseURL
	return NewExecutor(cfg, NewClient(&ClientConfig{}), tokens, nil, testutil.NewNullLogger())
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestExecutor_DecodesJSONUnchanged(t *testing.T) {
	type summary struct {
		Numero string `json:"numero"`
		Estado string `json:"estado"`
		Creado string `json:"creado"`
	}
	want := []summary{{Numero: "DUCA-0007", Estado: "PENDIENTE", Creado: "2024-01-01"}}
	raw, _ := json.Marshal(want)

	server := httptest.NewServer(jsonHandler(http.StatusOK, string(raw)))
	defer server.Close()

	var got []summary
	err := newTestExecutor(server.URL, nil, ExecutorConfig{}).Do(context.Background(), Request{Path: "/validacion/pendientes"}, &got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestExecutor_Headers(t *testing.T) {
	tests := []struct {
		name       string
		tokens     TokenSource
		header     http.Header
		body       any
		wantAuth   string
		wantAccept string
		wantCT     string
	}{
		{
			name:       "bearer attached when a token is stored",
			tokens:     staticTokens("abc"),
			wantAuth:   "Bearer abc",
			wantAccept: "application/json",
		},
		{
			name:       "no authorization without a token",
			tokens:     staticTokens(""),
			wantAccept: "application/json",
		},
		{
			name:       "nil token source",
			wantAccept: "application/json",
		},
		{
			name:       "body sets content type",
			tokens:     staticTokens("abc"),
			body:       map[string]string{"comentario": "ok"},
			wantAuth:   "Bearer abc",
			wantAccept: "application/json",
			wantCT:     "application/json",
		},
		{
			name:       "caller headers beat defaults but not the session token",
			tokens:     staticTokens("abc"),
			header:     http.Header{"Accept": {"application/vnd.duca+json"}, "Authorization": {"Bearer forged"}},
			wantAuth:   "Bearer abc",
			wantAccept: "application/vnd.duca+json",
		},
		{
			name:       "caller authorization kept when no token is stored",
			tokens:     staticTokens(""),
			header:     http.Header{"Authorization": {"Bearer service"}},
			wantAuth:   "Bearer service",
			wantAccept: "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got http.Header
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			exec := newTestExecutor(server.URL, tt.tokens, ExecutorConfig{})
			if err := exec.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x", Body: tt.body, Header: tt.header}, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if auth := got.Get("Authorization"); auth != tt.wantAuth {
				t.Errorf("expected Authorization %q, got %q", tt.wantAuth, auth)
			}
			if _, present := got["Authorization"]; tt.wantAuth == "" && present {
				t.Error("expected Authorization header to be absent")
			}
			if accept := got.Get("Accept"); accept != tt.wantAccept {
				t.Errorf("expected Accept %q, got %q", tt.wantAccept, accept)
			}
			if ct := got.Get("Content-Type"); ct != tt.wantCT {
				t.Errorf("expected Content-Type %q, got %q", tt.wantCT, ct)
			}
		})
	}
}

func TestExecutor_HTTPErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "json message",
			handler:     jsonHandler(http.StatusBadRequest, `{"message":"numero duplicado"}`),
			wantStatus:  400,
			wantMessage: "numero duplicado",
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `<html><body>Internal Error</body></html>`)
			},
			wantStatus:  500,
			wantMessage: "Internal Error",
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantStatus:  403,
			wantMessage: "403 Forbidden",
		},
		{
			name:        "error body is never decoded into out",
			handler:     jsonHandler(http.StatusNotFound, `{"error":"DUCA no encontrada","numero":"DUCA-9"}`),
			wantStatus:  404,
			wantMessage: "DUCA no encontrada",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			var out map[string]any
			err := newTestExecutor(server.URL, nil, ExecutorConfig{}).Do(context.Background(), Request{Path: "/duca/DUCA-9"}, &out)
			if !IsHTTP(err) {
				t.Fatalf("expected HTTP error, got %v", err)
			}
			if StatusCode(err) != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, StatusCode(err))
			}
			if err.Error() != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, err.Error())
			}
			if out != nil {
				t.Errorf("expected out untouched, got %v", out)
			}
		})
	}
}

func TestExecutor_NullResults(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-json content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = io.WriteString(w, "ok")
			},
		},
		{
			name:    "empty json body",
			handler: jsonHandler(http.StatusOK, ""),
		},
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			out := map[string]string{"sentinel": "kept"}
			if err := newTestExecutor(server.URL, nil, ExecutorConfig{}).Do(context.Background(), Request{Path: "/"}, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out["sentinel"] != "kept" || len(out) != 1 {
				t.Errorf("expected out untouched, got %v", out)
			}
		})
	}
}

func TestExecutor_MalformedBody(t *testing.T) {
	server := httptest.NewServer(jsonHandler(http.StatusOK, `{"numero":`))
	defer server.Close()

	var out map[string]any
	err := newTestExecutor(server.URL, nil, ExecutorConfig{}).Do(context.Background(), Request{Path: "/duca/DUCA-1"}, &out)
	if !IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if StatusCode(err) != http.StatusOK {
		t.Errorf("expected status 200 on malformed error, got %d", StatusCode(err))
	}
}

func TestExecutor_Timeout(t *testing.T) {
	serverSawCancel := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			close(serverSawCancel)
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	const timeout = 150 * time.Millisecond
	exec := newTestExecutor(server.URL, nil, ExecutorConfig{Timeout: time.Minute})

	start := time.Now()
	err := exec.Do(context.Background(), Request{Path: "/validacion/pendientes", Timeout: timeout}, nil)
	elapsed := time.Since(start)

	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if IsNetwork(err) || IsHTTP(err) {
		t.Error("timeout must be distinct from network and HTTP errors")
	}
	if elapsed < timeout || elapsed > timeout+2*time.Second {
		t.Errorf("expected to fail after ~%v, took %v", timeout, elapsed)
	}

	select {
	case <-serverSawCancel:
	case <-time.After(2 * time.Second):
		t.Error("server never observed the aborted request")
	}
}

func TestExecutor_DeadlineReleasedOnEveryPath(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		err  error
	}{
		{name: "success", resp: &http.Response{StatusCode: 200, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}},
		{name: "http error", resp: &http.Response{StatusCode: 500, Header: http.Header{}, Body: io.NopCloser(strings.NewReader("boom"))}},
		{name: "network error", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen context.Context
			client := clientFunc(func(r *http.Request) (*http.Response, error) {
				seen = r.Context()
				if _, ok := seen.Deadline(); !ok {
					t.Error("expected request context to carry a deadline")
				}
				return tt.resp, tt.err
			})

			exec := NewExecutor(ExecutorConfig{BaseURL: "http://duca.test", Timeout: time.Hour}, client, nil, nil, nil)
			_ = exec.Do(context.Background(), Request{Path: "/estados"}, nil)

			if seen == nil {
				t.Fatal("client was never called")
			}
			if !errors.Is(seen.Err(), context.Canceled) {
				t.Errorf("expected timer context to be released, got %v", seen.Err())
			}
		})
	}
}

func TestExecutor_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := newTestExecutor(url, nil, ExecutorConfig{}).Do(context.Background(), Request{Path: "/auth/login", Method: http.MethodPost}, nil)
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if err.Error() != "could not reach server" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestExecutor_CanceledByCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := clientFunc(func(r *http.Request) (*http.Response, error) {
		cancel()
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	err := NewExecutor(ExecutorConfig{BaseURL: "http://duca.test"}, client, nil, nil, nil).Do(ctx, Request{Path: "/estados"}, nil)
	if !IsCanceled(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
}

func TestExecutor_Retry(t *testing.T) {
	tests := []struct {
		name         string
		policy       RetryPolicy
		respond      func(n int32) (*http.Response, error)
		wantAttempts int32
		wantErr      func(error) bool
	}{
		{
			name:   "default policy sends once",
			policy: RetryPolicy{},
			respond: func(int32) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			wantAttempts: 1,
			wantErr:      IsNetwork,
		},
		{
			name:   "network failures are retried until success",
			policy: NetworkRetry(3, time.Millisecond),
			respond: func(n int32) (*http.Response, error) {
				if n < 3 {
					return nil, errors.New("connection refused")
				}
				return &http.Response{StatusCode: 204, Header: http.Header{}, Body: http.NoBody}, nil
			},
			wantAttempts: 3,
			wantErr:      func(err error) bool { return err == nil },
		},
		{
			name:   "attempts are bounded",
			policy: NetworkRetry(2, time.Millisecond),
			respond: func(int32) (*http.Response, error) {
				return nil, errors.New("no route to host")
			},
			wantAttempts: 2,
			wantErr:      IsNetwork,
		},
		{
			name:   "http errors are never retried",
			policy: NetworkRetry(3, time.Millisecond),
			respond: func(int32) (*http.Response, error) {
				return &http.Response{StatusCode: 503, Header: http.Header{}, Body: io.NopCloser(strings.NewReader("busy"))}, nil
			},
			wantAttempts: 1,
			wantErr:      IsHTTP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			var bodies []string
			client := clientFunc(func(r *http.Request) (*http.Response, error) {
				n := atomic.AddInt32(&attempts, 1)
				b, _ := io.ReadAll(r.Body)
				bodies = append(bodies, string(b))
				return tt.respond(n)
			})

			exec := NewExecutor(ExecutorConfig{BaseURL: "http://duca.test", Retry: tt.policy}, client, nil, nil, nil)
			err := exec.Do(context.Background(), Request{Method: http.MethodPost, Path: "/duca", Body: map[string]string{"numero_documento": "DUCA-1"}}, nil)

			if !tt.wantErr(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("expected %d attempts, got %d", tt.wantAttempts, attempts)
			}
			for i, b := range bodies {
				if b != `{"numero_documento":"DUCA-1"}` {
					t.Errorf("attempt %d sent body %q", i+1, b)
				}
			}
		})
	}
}

func TestExecutor_ObserverAndURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path == "/estados" {
			jsonHandler(http.StatusOK, `[]`)(w, r)
			return
		}
		jsonHandler(http.StatusUnauthorized, `{"message":"Token inválido"}`)(w, r)
	}))
	defer server.Close()

	observer := &recordingObserver{}
	exec := NewExecutor(ExecutorConfig{BaseURL: server.URL + "/"}, nil, nil, observer, testutil.NewNullLogger())

	var list []any
	if err := exec.Do(context.Background(), Request{Operation: "list_statuses", Path: "estados"}, &list); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/estados" {
		t.Errorf("expected path /estados, got %s", gotPath)
	}

	err := exec.Do(context.Background(), Request{Operation: "list_users", Path: "/usuarios"}, nil)
	if !IsUnauthorized(err) {
		t.Errorf("expected 401, got %v", err)
	}

	want := []string{"list_statuses:GET:success", "list_users:GET:http"}
	if strings.Join(observer.outcomes, ",") != strings.Join(want, ",") {
		t.Errorf("expected outcomes %v, got %v", want, observer.outcomes)
	}
}

func TestExecutor_OperationReachesClient(t *testing.T) {
	var op string
	client := clientFunc(func(r *http.Request) (*http.Response, error) {
		op = OperationFromContext(r.Context())
		return &http.Response{StatusCode: 204, Header: http.Header{}, Body: http.NoBody}, nil
	})

	exec := NewExecutor(ExecutorConfig{BaseURL: "http://duca.test"}, client, nil, nil, nil)
	if err := exec.Do(context.Background(), Request{Operation: "approve_declaration", Method: http.MethodPost, Path: "/validacion/X/aprobar"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op != "approve_declaration" {
		t.Errorf("expected operation in request context, got %q", op)
	}
}

func TestExecutor_HTTPErrorKeepsServerReason(t *testing.T) {
	client := clientFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 599,
			Status:     "599 Network Connect Timeout Error",
			Header:     http.Header{"Content-Type": []string{"text/plain"}},
			Body:       io.NopCloser(strings.NewReader("")),
		}, nil
	})

	err := NewExecutor(ExecutorConfig{BaseURL: "http://duca.test"}, client, nil, nil, nil).
		Do(context.Background(), Request{Path: "/estados"}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindHTTP || apiErr.Status != 599 {
		t.Fatalf("expected HTTP 599 error, got %v", err)
	}
	if apiErr.Message != "599 Network Connect Timeout Error" {
		t.Errorf("expected server reason phrase, got %q", apiErr.Message)
	}
}
