package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noah-isme/backend-keranjang/internal/common"
	"github.com/noah-isme/backend-keranjang/internal/http/middleware"
)

func TestCartSessionMintsToken(t *testing.T) {
	var gotToken string
	handler := middleware.CartSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken, _ = common.SessionToken(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if gotToken == "" {
		t.Fatal("expected minted session token on context")
	}
	if echoed := rec.Header().Get(middleware.SessionHeader); echoed != gotToken {
		t.Fatalf("expected response header %q, got %q", gotToken, echoed)
	}
}

func TestCartSessionKeepsClientToken(t *testing.T) {
	var gotToken string
	handler := middleware.CartSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken, _ = common.SessionToken(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(middleware.SessionHeader, "session-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotToken != "session-abc" {
		t.Fatalf("expected session-abc, got %q", gotToken)
	}
	if echoed := rec.Header().Get(middleware.SessionHeader); echoed != "session-abc" {
		t.Fatalf("expected echoed header, got %q", echoed)
	}
}
