package shield

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/pagetoc/kit"
)

func chain(h http.Handler) http.Handler {
	stack := DefaultStack()
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	return h
}

func TestDefaultStackHeaders(t *testing.T) {
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/toc", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s: got %q, want %q", k, got, v)
		}
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID: missing")
	}
}

func TestHeadToGet(t *testing.T) {
	var method string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { method = r.Method }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodHead, "/health", nil))
	if method != http.MethodGet {
		t.Errorf("method: got %s, want GET", method)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var got, transport string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = kit.GetRequestID(r.Context())
		transport = kit.GetTransport(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/toc", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got != "req-42" || rec.Header().Get("X-Request-ID") != "req-42" {
		t.Errorf("request id: got %q (header %q), want req-42", got, rec.Header().Get("X-Request-ID"))
	}
	if transport != "http" {
		t.Errorf("transport: got %q, want http", transport)
	}
}

func TestMaxBody(t *testing.T) {
	var readErr error
	h := MaxBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/toc/corner", strings.NewReader(strings.Repeat("x", 64))))
	if readErr == nil {
		t.Error("oversized body: got nil error")
	}
}
