// Package web provides the JSON HTTP API for conversations, messages and visit requests.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/rentwise/internal/auth"
	"github.com/evcraddock/rentwise/internal/conversation"
	"github.com/evcraddock/rentwise/internal/dashboard"
	"github.com/evcraddock/rentwise/internal/logging"
	"github.com/evcraddock/rentwise/internal/property"
	"github.com/evcraddock/rentwise/internal/visit"
)

// Options tune the server.
type Options struct {
	// PollInterval is advertised to clients, which poll for new messages.
	PollInterval time.Duration
}

// Server is the API HTTP server.
type Server struct {
	propRepo      *property.Repository
	users         *auth.UserStore
	apiKeys       *auth.APIKeyStore
	conversations *conversation.Store
	visits        *visit.Store
	dashboard     *dashboard.Service
	validate      *validator.Validate
	opts          Options
	mux           *http.ServeMux
	handler       http.Handler
}

// NewServer creates an API server backed by the given database.
func NewServer(db *sql.DB, opts Options) *Server {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 15 * time.Second
	}

	props := property.NewRepository(db)
	convs := conversation.NewStore(db, props)
	visits := visit.NewStore(db, props)

	s := &Server{
		propRepo:      props,
		users:         auth.NewUserStore(db),
		apiKeys:       auth.NewAPIKeyStore(db),
		conversations: convs,
		visits:        visits,
		dashboard:     dashboard.NewService(convs, visits),
		validate:      validator.New(),
		opts:          opts,
		mux:           http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/me", s.handleMe)
	s.mux.HandleFunc("/api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/api/properties", s.handleAPIProperties)
	s.mux.HandleFunc("/api/properties/", s.handleAPIProperties)
	s.mux.HandleFunc("/api/conversations", s.handleAPIConversations)
	s.mux.HandleFunc("/api/conversations/", s.handleAPIConversations)
	s.mux.HandleFunc("/api/visits", s.handleAPIVisits)
	s.mux.HandleFunc("/api/visits/", s.handleAPIVisits)
	s.mux.HandleFunc("/api/keys", s.handleAPIKeys)
	s.mux.HandleFunc("/api/keys/", s.handleAPIKeys)
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})

	// Request IDs first so every later log line carries one.
	s.handler = logging.RequestID(logging.RequestLogger(auth.RequireAPIKey(s.apiKeys, s.mux)))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// pathID splits "/prefix/{id}/rest" into id and rest. ok is false when the
// id segment is missing or not a positive integer.
func pathID(path, prefix string) (id int64, rest string, ok bool) {
	path = strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if path == "" {
		return 0, "", false
	}
	head, rest, _ := strings.Cut(path, "/")
	id, err := parseID(head)
	if err != nil {
		return 0, "", false
	}
	return id, rest, true
}
