// Package api serves the wish simulator and its account, signup and admin
// endpoints over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"wish-machine/internal/config"
	"wish-machine/internal/simulation"
	"wish-machine/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	cfg *config.AppConfig
	db  *store.DB

	newEngine func() *simulation.Engine
	now       func() time.Time

	// API key to user id.
	keyCache    *lru.Cache[string, int64]
	wishLimiter *RateLimiter
	ips         *ipResolver
}

// NewServer wires the handlers to the store.
func NewServer(cfg *config.AppConfig, db *store.DB) (*Server, error) {
	cache, err := lru.New[string, int64](cfg.UserCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create user cache: %w", err)
	}
	ips, err := newIPResolver(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         cfg,
		db:          db,
		now:         time.Now,
		keyCache:    cache,
		wishLimiter: NewRateLimiter(cfg.WishRatePerHour, time.Hour),
		ips:         ips,
	}
	s.newEngine = func() *simulation.Engine {
		e := simulation.NewEngine()
		e.UseAnalyticBaseline(cfg.AnalyticBaseline)
		return e
	}
	return s, nil
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/wish", RateLimitMiddleware(s.wishLimiter, s.ips.clientIP, s.handleWish))
	mux.HandleFunc("/api/v1/wishes", s.handleWishHistory)
	mux.HandleFunc("/api/v1/subscribe", s.handleSubscribe)
	mux.HandleFunc("/api/v1/waitlist", s.handleWaitlist)
	mux.HandleFunc("/api/v1/admin/report", s.adminOnly(s.handleAdminReport))
	mux.HandleFunc("/api/v1/admin/signups", s.adminOnly(s.handleAdminSignups))

	return corsMiddleware(s.cfg.CORSOrigins, requestLogger(mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Bool("admin_auth", s.cfg.AdminKey != "").Msg("HTTP API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("HTTP API shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// adminOnly requires the configured bearer token. With no token configured the
// admin surface is disabled.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled", nil)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleAdminReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	summary, err := s.db.Summary(r.Context(), s.now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build admin report")
		writeError(w, http.StatusInternalServerError, "failed to build report", nil)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string, extra map[string]any) {
	body := map[string]any{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// corsMiddleware adds CORS headers for allowed frontend origins. Localhost dev
// servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
		"http://localhost:8080": true,
	}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
