package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"3tcapital/ducactl/internal/testutil"
)

func TestNewBearerAuthenticator_RequiresSecret(t *testing.T) {
	if _, err := NewBearerAuthenticator("", nil, testutil.NewNullLogger()); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestBearerAuthenticator_Middleware(t *testing.T) {
	auth, err := NewBearerAuthenticator("secret", []string{"/auth/login"}, testutil.NewNullLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valid, err := auth.Issue("agente@demo.com", "AGENTE", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expired, err := auth.Issue("agente@demo.com", "AGENTE", -time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "ADMIN"}).SignedString([]byte("other"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name           string
		path           string
		header         string
		expectedStatus int
	}{
		{name: "bypass path", path: "/auth/login", expectedStatus: http.StatusOK},
		{name: "missing header", path: "/estados", expectedStatus: http.StatusUnauthorized},
		{name: "not bearer", path: "/estados", header: "Basic abc", expectedStatus: http.StatusUnauthorized},
		{name: "valid token", path: "/estados", header: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "expired token", path: "/estados", header: "Bearer " + expired, expectedStatus: http.StatusUnauthorized},
		{name: "foreign signature", path: "/estados", header: "Bearer " + foreign, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code == http.StatusUnauthorized && testutil.ReadErrorMessage(t, w) == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	auth, _ := NewBearerAuthenticator("secret", nil, testutil.NewNullLogger())
	handler := auth.Middleware(RequireRole(testutil.NewNullLogger(), "ADMIN")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for role, expected := range map[string]int{"ADMIN": http.StatusNoContent, "AGENTE": http.StatusForbidden} {
		token, err := auth.Issue("x@demo.com", role, time.Hour)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != expected {
			t.Errorf("role %s: expected status %d, got %d", role, expected, w.Code)
		}
	}
}

func TestTimeout(t *testing.T) {
	var hasDeadline bool
	handler := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !hasDeadline {
		t.Error("expected request context to carry a deadline")
	}
}
