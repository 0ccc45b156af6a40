package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func adminToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "tenant-1",
		"role":      "admin",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"valid bearer token", "Bearer abc123", "abc123"},
		{"lowercase bearer", "bearer token123", "token123"},
		{"empty header", "", ""},
		{"no bearer prefix", "token123", ""},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := extractBearerToken(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	if GetAuthContext(context.Background()) != nil {
		t.Error("expected nil for context without auth")
	}

	authCtx := &AuthContext{UserID: "user-1", TenantID: "tenant-1", Role: "admin"}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)

	got := GetAuthContext(ctx)
	if got == nil {
		t.Fatal("expected auth context")
	}
	if got.UserID != "user-1" || got.TenantID != "tenant-1" {
		t.Errorf("unexpected auth context %+v", got)
	}
	if !got.IsAdmin() {
		t.Error("expected admin role recognized")
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	m := NewAuthMiddleware(testSigningKey)
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/sources", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	m := NewAuthMiddleware(testSigningKey)

	var seen *AuthContext
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAuthContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/v1/sources", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.TenantID != "tenant-1" || seen.UserID != "user-1" {
		t.Errorf("unexpected auth context %+v", seen)
	}
}

func TestAuthenticate_WrongKeyRejected(t *testing.T) {
	m := NewAuthMiddleware([]byte("other-key"))
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with a forged token")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_ExpiredTokenRejected(t *testing.T) {
	m := NewAuthMiddleware(testSigningKey)
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with an expired token")
	}))

	expired := signToken(t, jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "tenant-1",
		"exp":       time.Now().Add(-time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_MissingTenantRejected(t *testing.T) {
	m := NewAuthMiddleware(testSigningKey)
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a tenant claim")
	}))

	token := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	m := NewAuthMiddleware(testSigningKey)
	called := false
	handler := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// Member role is forbidden.
	ctx := context.WithValue(context.Background(), authContextKey,
		&AuthContext{UserID: "user-1", TenantID: "tenant-1", Role: "member"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil).WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for member, got %d", rec.Code)
	}
	if called {
		t.Error("handler must not run for non-admin")
	}

	// No auth context at all.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without auth context, got %d", rec.Code)
	}

	// Admin passes through.
	ctx = context.WithValue(context.Background(), authContextKey,
		&AuthContext{UserID: "user-1", TenantID: "tenant-1", Role: "admin"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil).WithContext(ctx))
	if rec.Code != http.StatusOK || !called {
		t.Errorf("expected admin allowed, got %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	m := NewRecoveryMiddleware(nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", rec.Code)
	}
}

func TestResponseWriterRecordsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusTeapot)
	if rw.statusCode != http.StatusTeapot {
		t.Errorf("expected recorded status 418, got %d", rw.statusCode)
	}
}
