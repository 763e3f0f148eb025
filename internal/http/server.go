// Package http serves the payment dashboard: the full page, the HTMX
// partials, a small JSON API and the operational endpoints.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "payboard/internal/log"
	"payboard/internal/services"
	appweb "payboard/web"
)

// Options tunes a Server. The zero value is usable.
type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	templates       *template.Template
	svc             *services.DashboardService
	logger          *applog.Logger
	structured      *applog.StructuredLogger
	rateLimiter     *rateLimiter
	securityMetrics *securityMetrics
	startedAt       time.Time
	shutdownOnce    sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.DashboardService, opts Options) *Server {
	mux := http.NewServeMux()

	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP, Handler: slog.Default().Handler()})
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:             svc,
		logger:          logger,
		structured:      applog.NewStructuredLogger(logger),
		rateLimiter:     newRateLimiter(opts.RateLimitPerMinute),
		securityMetrics: &securityMetrics{},
		startedAt:       time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.Handle("/", s.wrap("index", s.handleIndex))
	mux.Handle("/records", s.wrap("records", s.handleSubmit))
	mux.Handle("/ui/dashboard", s.wrap("dashboard", s.handleDashboardPartial))
	mux.Handle("/api/records", s.wrap("api_records", s.handleAPIRecords))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
