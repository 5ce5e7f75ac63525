package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/athena-router/athena-router/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAuthNoAuthConfigured(t *testing.T) {
	auth := NewAuthMiddleware(config.APIConfig{}, testLogger())

	handler := auth.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("no auth configured should allow all, got %d", w.Code)
	}
}

func TestAuthBearerToken(t *testing.T) {
	auth := NewAuthMiddleware(config.APIConfig{Auth: config.APIAuthConfig{AuthToken: "test-token"}}, testLogger())

	handler := auth.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token should allow, got %d", w.Code)
	}

	req2 := httptest.NewRequest("GET", "/test", nil)
	req2.Header.Set("Authorization", "Bearer wrong-token")
	w2 := httptest.NewRecorder()
	handler(w2, req2)
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("invalid token should reject, got %d", w2.Code)
	}

	req3 := httptest.NewRequest("GET", "/test", nil)
	w3 := httptest.NewRecorder()
	handler(w3, req3)
	if w3.Code != http.StatusUnauthorized {
		t.Errorf("no token should reject, got %d", w3.Code)
	}
}

func TestAuthQueryToken(t *testing.T) {
	auth := NewAuthMiddleware(config.APIConfig{Auth: config.APIAuthConfig{AuthToken: "test-token"}}, testLogger())

	handler := auth.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test?token=test-token", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("query token should allow, got %d", w.Code)
	}
}

func TestAuthBasicAuth(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	users := []config.UserConfig{
		{Username: "admin", PasswordHash: string(hash), Role: "admin"},
		{Username: "viewer", PasswordHash: string(hash), Role: "viewer"},
	}
	auth := NewAuthMiddleware(config.APIConfig{Auth: config.APIAuthConfig{Users: users}}, testLogger())

	adminHandler := auth.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.SetBasicAuth("admin", "password123")
	w := httptest.NewRecorder()
	adminHandler(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin should be allowed, got %d", w.Code)
	}

	req2 := httptest.NewRequest("GET", "/test", nil)
	req2.SetBasicAuth("viewer", "password123")
	w2 := httptest.NewRecorder()
	adminHandler(w2, req2)
	if w2.Code != http.StatusForbidden {
		t.Errorf("viewer should be forbidden from admin endpoint, got %d", w2.Code)
	}

	req3 := httptest.NewRequest("GET", "/test", nil)
	req3.SetBasicAuth("admin", "wrongpassword")
	w3 := httptest.NewRecorder()
	adminHandler(w3, req3)
	if w3.Code != http.StatusUnauthorized {
		t.Errorf("wrong password should be unauthorized, got %d", w3.Code)
	}
}
