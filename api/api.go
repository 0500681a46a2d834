// Package api is the inbound HTTP surface: direct fetch requests and
// media API webhooks, both turned into queued jobs.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xraph/vidqueue/queue"
)

// Defaults applied to fetch requests that omit them.
const (
	DefaultName    = "untitled"
	DefaultCreator = "vidqueue"
)

// API enqueues jobs from HTTP requests.
type API struct {
	producer queue.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// WithClock replaces time.Now for the timestamps written into job notes.
func WithClock(now func() time.Time) Option {
	return func(a *API) { a.now = now }
}

// New creates an API that sends jobs to p.
func New(p queue.Producer, opts ...Option) *API {
	a := &API{producer: p, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	a.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all routes on r.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/api", a.hello)
	r.Post("/api/fetch", a.requestFetch)
	r.Post("/inbound", a.inboundWebhook)
}

func (a *API) hello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello"))
}

func (a *API) stamp() string { return a.now().UTC().Format(time.RFC3339) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}
