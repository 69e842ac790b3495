package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	intconfig "taxibot/internal/config"
	"taxibot/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func TestAdminRoutesRequireToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := intconfig.Env{JWTSecret: "router-secret"}
	r := NewRouter(env, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/finance/average?period=day", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	token, err := middleware.IssueToken([]byte(env.JWTSecret), "admin", middleware.RoleAdmin, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/admin/finance/average?period=year", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown period, got %d", w.Code)
	}
}

func TestHealthAndNoRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(intconfig.Env{}, Deps{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK || w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatalf("health: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("webhook route must be absent outside webhook mode, got %d", w.Code)
	}
}
