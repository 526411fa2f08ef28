package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/go-core/health"
	"github.com/linnemanlabs/go-core/httpmw"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/urgency/internal/authmw"
	"github.com/linnemanlabs/urgency/internal/classifyapi"
	"github.com/linnemanlabs/urgency/internal/postgres"
)

// maxEmailBody bounds request bodies on the API listener.
const maxEmailBody = 64 << 10

// apiDeps are the collaborators of the public listener.
type apiDeps struct {
	logger     log.Logger
	classifier classifyapi.Classifier
	apiToken   string
	proxyHops  int

	liveness  health.Probe
	readiness health.Probe

	// metricsMW instruments requests; nil skips it.
	metricsMW func(http.Handler) http.Handler
	onPanic   func()
}

// newAPIHandler builds the router and wraps it in the middleware chain.
// Wrappers run outside-in: security headers and panic recovery see the raw
// request first, the request-scoped logger is closest to the handlers.
func newAPIHandler(d apiDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(httpmw.AnnotateHTTPRoute)
	r.Use(withHTTPMethod)
	r.Use(httpmw.AccessLog())
	r.Use(httpmw.MaxBody(maxEmailBody))

	r.Get("/-/healthy", health.HealthzHandler(d.liveness))
	r.Get("/-/ready", health.ReadyzHandler(d.readiness))

	api := classifyapi.New(d.logger, d.classifier)
	r.Group(func(r chi.Router) {
		r.Use(authmw.Token(d.apiToken))
		api.RegisterRoutes(r)
	})

	var h http.Handler = r
	h = httpmw.WithLogger(d.logger)(h)
	h = httpmw.TraceResponseHeaders("X-Trace-Id", "X-Span-Id")(h)
	h = otelhttp.NewHandler(h, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !isProbePath(r.URL.Path)
		}),
		// renamed to the route pattern by AnnotateHTTPRoute
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithPublicEndpointFn(func(*http.Request) bool { return true }),
	)
	if d.metricsMW != nil {
		h = d.metricsMW(h)
	}
	h = httpmw.ClientIPWithOptions(httpmw.ClientIPOptions{TrustedHops: d.proxyHops})(h)
	h = httpmw.RequestID("X-Request-Id")(h)
	h = httpmw.Recover(d.logger, d.onPanic)(h)
	h = httpmw.SecurityHeaders(h)
	return h
}

// withHTTPMethod labels database query metrics with the request method.
func withHTTPMethod(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(w, req.WithContext(postgres.WithHTTPMethod(req.Context(), req.Method)))
	})
}

func isProbePath(p string) bool {
	return p == "/-/healthy" || p == "/-/ready"
}
