// Package server exposes the console operations over HTTP. Handlers are thin:
// they parse form input, pin the request's account once and hand off to the
// zone service.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/metrics"
	"github.com/evanofslack/clouddns-console/internal/session"
	"github.com/evanofslack/clouddns-console/internal/zone"
)

const sessionCookie = "clouddns_session"

type sessionKey struct{}

type Server struct {
	accounts *account.Manager
	zones    *zone.Service
	sessions session.Store
	metrics  *metrics.Metrics
	mux      *http.ServeMux
}

func New(accounts *account.Manager, zones *zone.Service, sessions session.Store, metrics *metrics.Metrics) *Server {
	s := &Server{
		accounts: accounts,
		zones:    zones,
		sessions: sessions,
		metrics:  metrics,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /api/accounts", s.handleAccounts)
	s.handle("POST /api/account", s.handleSetAccount)
	s.handle("GET /api/domains", s.handleDomains)
	s.handle("POST /api/domains", s.handleCreateDomain)
	s.handle("POST /api/domains/delete", s.handleDeleteDomain)
	s.handle("GET /api/domains/{domain}", s.handleDomain)
	s.handle("POST /api/domains/{domain}/duplicate", s.handleDuplicate)
	s.handle("POST /api/domains/{domain}/ttl", s.handleAdjustTTL)
	s.handle("POST /api/domains/{domain}/records", s.handleCreateRecord)
	s.handle("POST /api/domains/{domain}/records/{id}/update", s.handleUpdateRecord)
	s.handle("POST /api/domains/{domain}/records/{id}/delete", s.handleDeleteRecord)

	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

// handle registers an API route behind the session middleware and counts
// responses by route pattern.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	next := s.withSession(h)
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.metrics.IncHTTPRequest(pattern, rec.status)
		slog.Debug("Handled request", "route", pattern, "status", rec.status, "duration", time.Since(start))
	})
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// withSession issues the session cookie if missing, then resolves the
// account for this request exactly once and stores it in the context. A
// session that cannot be read stops the request: falling back to the default
// account could run it against an account the user did not choose.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(session.Expiry.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		override, err := s.sessions.Account(r.Context(), sid)
		if err != nil {
			slog.Error("Failed to read session", "error", err)
			writeJSON(w, http.StatusInternalServerError, response{Message: "session unavailable, request not run: " + err.Error()})
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sid)
		ctx = account.WithAccount(ctx, s.accounts.Resolve(override))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// scope pins the account resolved for this request.
func (s *Server) scope(r *http.Request) (account.Scope, error) {
	id, _ := account.FromContext(r.Context())
	return s.accounts.Pin(r.Context(), id)
}

func sessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting http server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
