// Package httpapi exposes the sprint engine over REST plus an SSE stream.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MeenalAppSphere/sprintd/internal/sprint"
	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

// Options configures the HTTP server.
type Options struct {
	Addr string
	// APIKey, when set, is required in the X-API-Key header for every
	// route except /health and /metrics.
	APIKey string
	// Dev enables permissive CORS for local frontend work.
	Dev bool
	// EnableOTel wraps the handler in otelhttp instrumentation.
	EnableOTel bool
	// Registry, when set, is served at /metrics.
	Registry *prom.Registry
	Logger   *slog.Logger
}

// App owns the HTTP server, the SSE hub, and the lifecycle manager.
type App struct {
	srv   *http.Server
	hub   *Hub
	store store.Store
	mgr   *sprint.Manager
	log   *slog.Logger
	opts  Options
}

// New builds the app around an opened store.
func New(st store.Store, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8876"
	}
	a := &App{
		hub:   NewHub(opts.Logger),
		store: st,
		mgr:   sprint.NewManager(st, nil),
		log:   opts.Logger,
		opts:  opts,
	}
	a.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a
}

// Manager exposes the lifecycle manager for the daemon sweeper.
func (a *App) Manager() *sprint.Manager { return a.mgr }

// Hub exposes the SSE hub for background publishers.
func (a *App) Hub() *Hub { return a.hub }

// Handler builds the full route table with the middleware chain applied.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)
	if a.opts.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(a.opts.Registry, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("GET /stream", a.handleStream)

	mux.HandleFunc("POST /projects", a.handleCreateProject)
	mux.HandleFunc("GET /projects", a.handleListProjects)
	mux.HandleFunc("GET /projects/{id}", a.handleGetProject)

	mux.HandleFunc("POST /projects/{id}/members", a.handleCreateMember)
	mux.HandleFunc("GET /projects/{id}/members", a.handleListMembers)
	mux.HandleFunc("POST /projects/{id}/statuses", a.handleCreateStatus)
	mux.HandleFunc("GET /projects/{id}/statuses", a.handleListStatuses)
	mux.HandleFunc("POST /projects/{id}/tasks", a.handleCreateTask)

	mux.HandleFunc("POST /projects/{id}/sprints", a.handleCreateSprint)
	mux.HandleFunc("GET /projects/{id}/sprints", a.handleListSprints)
	mux.HandleFunc("GET /projects/{id}/sprints/{sid}", a.handleGetSprint)
	mux.HandleFunc("POST /projects/{id}/sprints/{sid}/publish", a.handlePublishSprint)
	mux.HandleFunc("POST /projects/{id}/sprints/{sid}/complete", a.handleCompleteSprint)
	mux.HandleFunc("POST /projects/{id}/sprints/{sid}/close", a.handleCloseSprint)

	mux.HandleFunc("POST /projects/{id}/sprints/{sid}/tasks", a.handleAddTask)
	mux.HandleFunc("DELETE /projects/{id}/sprints/{sid}/tasks/{tid}", a.handleRemoveTask)
	mux.HandleFunc("POST /projects/{id}/sprints/{sid}/tasks/{tid}/move", a.handleMoveTask)
	mux.HandleFunc("POST /projects/{id}/sprints/{sid}/tasks/{tid}/timelogs", a.handleLogTime)
	mux.HandleFunc("DELETE /projects/{id}/sprints/{sid}/timelogs/{logID}", a.handleDeleteTimeLog)
	mux.HandleFunc("GET /projects/{id}/sprints/{sid}/report", a.handleReport)

	mux.HandleFunc("POST /maintenance/backfill-reports", a.handleBackfillReports)

	var handler http.Handler = mux
	handler = a.requestLog(handler)
	if a.opts.APIKey != "" {
		handler = a.apiKey(handler)
	}
	if a.opts.Dev {
		handler = corsDev(handler)
	}
	handler = bodyLimit(handler)
	if a.opts.EnableOTel {
		handler = otelhttp.NewHandler(handler, "sprintd")
	}
	return handler
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (a *App) Start() error {
	a.log.Info("http server listening", "addr", a.srv.Addr)
	err := a.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

func bodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, models.DefaultMaxRequestBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func corsDev(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *App) apiKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health", "/metrics":
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != a.opts.APIKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid api key", "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (a *App) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}
