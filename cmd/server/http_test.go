package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/linnemanlabs/go-core/health"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/urgency/internal/urgency"
	"github.com/linnemanlabs/urgency/internal/urgency/memcache"
)

type failingProvider struct{}

func (failingProvider) Send(context.Context, *urgency.LLMRequest) (*urgency.LLMResponse, error) {
	return nil, errors.New("unreachable")
}

func newTestAPIHandler(t *testing.T, token string, ready health.Probe) (http.Handler, *atomic.Int32) {
	t.Helper()

	var instrumented atomic.Int32
	svc := urgency.NewClassifier(failingProvider{}, memcache.New(0), log.Nop(), urgency.Options{})
	h := newAPIHandler(apiDeps{
		logger:     log.Nop(),
		classifier: svc,
		apiToken:   token,
		liveness:   health.Fixed(true, ""),
		readiness:  ready,
		metricsMW: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				instrumented.Add(1)
				next.ServeHTTP(w, r)
			})
		},
	})
	return h, &instrumented
}

func TestAPIHandler_Probes(t *testing.T) {
	t.Parallel()

	var gate health.ShutdownGate
	h, _ := newTestAPIHandler(t, "", health.All(gate.Probe()))

	for _, path := range []string{"/-/healthy", "/-/ready"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}

	gate.Set("draining")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/-/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /-/ready while draining = %d, want 503", rec.Code)
	}
}

func TestAPIHandler_Middleware(t *testing.T) {
	t.Parallel()

	h, instrumented := newTestAPIHandler(t, "", health.Fixed(true, ""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
	if instrumented.Load() != 1 {
		t.Errorf("metrics middleware calls = %d, want 1", instrumented.Load())
	}
}

func TestAPIHandler_TokenGuardsAPIOnly(t *testing.T) {
	t.Parallel()

	h, _ := newTestAPIHandler(t, "s3cret", health.Fixed(true, ""))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		want   int
	}{
		{"probe needs no token", http.MethodGet, "/-/healthy", "", "", http.StatusOK},
		{"classify without token", http.MethodPost, "/classify_urgency", `{"email_body":""}`, "", http.StatusUnauthorized},
		{"classify with wrong token", http.MethodPost, "/classify_urgency", `{"email_body":""}`, "Bearer nope", http.StatusUnauthorized},
		{"classify with token", http.MethodPost, "/classify_urgency", `{"email_body":""}`, "Bearer s3cret", http.StatusOK},
		{"taxonomy with token", http.MethodGet, "/api/v1/taxonomy", "", "Bearer s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestAPIHandler_BodyLimit(t *testing.T) {
	t.Parallel()

	h, _ := newTestAPIHandler(t, "", health.Fixed(true, ""))

	body := `{"email_body":"` + strings.Repeat("a", maxEmailBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/classify_urgency", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestIsProbePath(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]bool{
		"/-/healthy":        true,
		"/-/ready":          true,
		"/classify_urgency": false,
		"/-/readyz":         false,
	} {
		if got := isProbePath(path); got != want {
			t.Errorf("isProbePath(%q) = %v, want %v", path, got, want)
		}
	}
}
