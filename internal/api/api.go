// Package api exposes the operator HTTP interface: catalog lookups, the
// complaint and quote logs, manual runs of the dispatcher and follow-up
// scan, and manual quote, estimate, meeting and mail actions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/llm-mail-triage/internal/catalog"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/dispatch"
	"github.com/mikey/llm-mail-triage/internal/handlers"
	"github.com/mikey/llm-mail-triage/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxBodyBytes limits request bodies
const maxBodyBytes = 64 << 10

// Complaints is the complaint log
type Complaints interface {
	Load() ([]core.Complaint, error)
	Open() ([]store.IndexedComplaint, error)
	Close(index int) (bool, error)
}

// Quotes is the sent-quotes log
type Quotes interface {
	Load() ([]core.Quote, error)
}

// QuoteCreator prices and records a quote
type QuoteCreator interface {
	CreateQuote(customer, subject string, products map[string]int) (*handlers.QuoteDraft, error)
}

// Estimator produces material estimates
type Estimator interface {
	Estimate(ctx context.Context, description string) (*handlers.Estimate, error)
	Promote(customer, subject string, est *handlers.Estimate) (int, error)
}

// Conversations is the per-customer history
type Conversations interface {
	Recent(customer string, n int) ([]core.ConversationEntry, error)
	Clear(customer string) (bool, error)
	ClearAll() error
}

// Booker books meetings
type Booker interface {
	Book(ctx context.Context, title, description string, start time.Time, durationMinutes int) (string, error)
}

// Deps are the collaborators behind the endpoints. All are required.
type Deps struct {
	Catalog       *catalog.Catalog
	Complaints    Complaints
	Quotes        Quotes
	QuoteCreator  QuoteCreator
	Estimator     Estimator
	Conversations Conversations
	Meetings      Booker
	Followups     dispatch.FollowupChecker
	Dispatcher    dispatch.BatchRunner
	Sender        core.Sender
	Gatherer      prometheus.Gatherer
}

// Options configures the API
type Options struct {
	DryRun        bool
	ThresholdDays int
	Location      *time.Location
}

// API holds dependencies for HTTP handlers
type API struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new API. It panics when a dependency is missing.
func New(deps Deps, opts Options, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Catalog == nil || deps.Complaints == nil || deps.Quotes == nil ||
		deps.QuoteCreator == nil || deps.Estimator == nil || deps.Conversations == nil ||
		deps.Meetings == nil || deps.Followups == nil || deps.Dispatcher == nil ||
		deps.Sender == nil || deps.Gatherer == nil {
		panic(errors.New("api: missing dependency"))
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &API{
		deps:   deps,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Handler returns the full router with middleware, health and metrics
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(a.deps.Gatherer, promhttp.HandlerOpts{}))

	a.RegisterRoutes(r)
	return r
}

// RegisterRoutes attaches the API endpoints to the router
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", a.handleSearchCatalog)
		r.Get("/catalog/{id}", a.handleGetProduct)

		r.Get("/complaints", a.handleListComplaints)
		r.Post("/complaints/{index}/close", a.handleCloseComplaint)

		r.Get("/quotes", a.handleListQuotes)
		r.Post("/quotes", a.handleCreateQuote)
		r.Post("/estimates", a.handleCreateEstimate)

		r.Get("/conversations/{customer}", a.handleGetConversation)
		r.Delete("/conversations/{customer}", a.handleClearConversation)
		r.Delete("/conversations", a.handleClearAllConversations)

		r.Post("/followups/run", a.handleRunFollowups)
		r.Post("/dispatch/run", a.handleRunDispatch)

		r.Post("/meetings", a.handleBookMeeting)
		r.Post("/mail", a.handleSendMail)
	})
}

func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := a.now()
		next.ServeHTTP(ww, r)
		a.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", a.now().Sub(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
