package authmw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func serve(h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestToken_Accepts(t *testing.T) {
	t.Parallel()

	h := Token("secret-token-123")(okHandler)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer secret-token-123"}},
		{"api key header", map[string]string{APIKeyHeader: "secret-token-123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if rec := serve(h, tt.headers); rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}

func TestToken_Rejects(t *testing.T) {
	t.Parallel()

	h := Token("secret")(okHandler)

	tests := []struct {
		name    string
		headers map[string]string
		wantMsg string
	}{
		{"no credentials", nil, "missing or malformed"},
		{"basic auth", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, "missing or malformed"},
		{"lowercase bearer", map[string]string{"Authorization": "bearer secret"}, "missing or malformed"},
		{"empty bearer", map[string]string{"Authorization": "Bearer "}, "missing or malformed"},
		{"wrong bearer", map[string]string{"Authorization": "Bearer nope"}, "invalid token"},
		{"wrong api key", map[string]string{APIKeyHeader: "nope"}, "invalid token"},
		{"prefix of token", map[string]string{"Authorization": "Bearer secre"}, "invalid token"},
		{"bad bearer shadows good api key", map[string]string{"Authorization": "Bearer nope", APIKeyHeader: "secret"}, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(h, tt.headers)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if !strings.Contains(rec.Body.String(), tt.wantMsg) {
				t.Errorf("body = %q, want substring %q", rec.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestToken_EmptyDisablesCheck(t *testing.T) {
	t.Parallel()

	h := Token("")(okHandler)
	if rec := serve(h, nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
