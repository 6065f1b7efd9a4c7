// Package http exposes the transaction ledger over a JSON API and a
// server-rendered web UI.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	appweb "fintrack/web"
)

// LedgerService is the application surface the handlers depend on.
type LedgerService interface {
	Overview(ctx context.Context, period core.Period) (ledger.Overview, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Replace(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

type Server struct {
	http.Server
	ledger    LedgerService
	templates *template.Template
	limiter   *ratelimit.Limiter
	baseURL   string

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr, baseURL string, svc LedgerService) *Server {
	s := &Server{
		ledger:  svc,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		baseURL: baseURL,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(trace.Middleware(trace.ExtractClientIP))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(trace.ExtractClientIP))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/transactions", func(r chi.Router) {
		r.Get("/", s.handleListTransactions)
		r.Post("/", s.handleCreateTransaction)
		r.Get("/{id}", s.handleGetTransaction)
		r.Put("/{id}", s.handleUpdateTransaction)
		r.Delete("/{id}", s.handleDeleteTransaction)
	})

	r.Get("/", s.handleIndex)
	r.Get("/transactions/new", s.handleNewTransactionForm)
	r.Post("/transactions", s.handleFormCreate)
	r.Get("/transactions/{id}/edit", s.handleEditTransactionForm)
	r.Post("/transactions/{id}", s.handleFormUpdate)
	r.Post("/transactions/{id}/delete", s.handleFormDelete)

	// Static assets served from the embedded FS.
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssets(3600)).Get("/static/*", static.ServeHTTP)
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.ledger.Overview(ctx, core.PeriodDaily); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
