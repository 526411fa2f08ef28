// Package classifyapi exposes the urgency classifier over HTTP.
package classifyapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
	"github.com/linnemanlabs/urgency/internal/urgency"
)

// Classifier defines the operations classifyapi needs.
type Classifier interface {
	Classify(ctx context.Context, text string) (urgency.Result, error)
	ClearCache(ctx context.Context) error
	Registry() *taxonomy.Registry
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    Classifier
}

// New creates a new API handler.
func New(logger log.Logger, svc Classifier) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("classifier is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router. /classify_urgency is
// the legacy path kept for existing clients.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Post("/classify_urgency", a.handleClassify)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/classify", a.handleClassify)
		r.Get("/categories/{subcategory}", a.handleCategory)
		r.Get("/taxonomy", a.handleTaxonomy)
		r.Delete("/cache", a.handleClearCache)
	})
}

type classifyRequest struct {
	EmailBody *string `json:"email_body"`
}

type classifyResponse struct {
	ClassificationID string `json:"classification_id"`
	urgency.Result
	Category taxonomy.Category `json:"category"`
}

type categoryResponse struct {
	Subcategory string            `json:"subcategory"`
	Category    taxonomy.Category `json:"category"`
	Urgency     taxonomy.Urgency  `json:"urgency,omitempty"`
}

type taxonomyResponse struct {
	Tiers []taxonomy.Tier `json:"tiers"`
}

func (a *API) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.EmailBody == nil {
		writeError(w, http.StatusBadRequest, "email_body is required")
		return
	}

	id := ulid.Make().String()
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("urgency.classification_id", id))

	result, err := a.svc.Classify(r.Context(), *req.EmailBody)
	if err != nil {
		if errors.Is(err, urgency.ErrConfiguration) {
			writeError(w, http.StatusServiceUnavailable, "classifier is not configured")
			return
		}
		a.logger.Error(r.Context(), err, "classification failed", "classification_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	span.SetAttributes(
		attribute.String("urgency.urgency", string(result.Urgency)),
		attribute.String("urgency.subcategory", result.Subcategory),
	)

	writeJSON(w, http.StatusOK, classifyResponse{
		ClassificationID: id,
		Result:           result,
		Category:         taxonomy.ParentCategory(result.Subcategory),
	})
}

func (a *API) handleCategory(w http.ResponseWriter, r *http.Request) {
	sub := chi.URLParam(r, "subcategory")
	resp := categoryResponse{
		Subcategory: sub,
		Category:    taxonomy.ParentCategory(sub),
	}
	if u, ok := a.svc.Registry().TierOf(sub); ok {
		resp.Urgency = u
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleTaxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, taxonomyResponse{Tiers: a.svc.Registry().Tiers()})
}

func (a *API) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.ClearCache(r.Context()); err != nil {
		a.logger.Error(r.Context(), err, "failed to clear classification cache")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	a.logger.Info(r.Context(), "classification cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
