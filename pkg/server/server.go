package server

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/config"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ratelimit"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// Store is the persistence the HTTP surface needs.
type Store interface {
	Ingest(ctx context.Context, posts []models.Post) (int, error)
	Get(ctx context.Context, id string) (models.Post, error)
	Stats(ctx context.Context) (store.Stats, error)
	Groups(ctx context.Context) ([]store.Group, error)
	PostsInGroup(ctx context.Context, slug string, limit int) ([]models.Post, error)
	Ping(ctx context.Context) error
}

// Server exposes ingestion and read-only listing over HTTP.
type Server struct {
	store   Store
	cfg     config.ServerConfig
	log     logger.Logger
	limiter ratelimit.Limiter
	router  chi.Router
}

// New builds the router. Call Run to listen.
func New(st Store, cfg config.ServerConfig, log logger.Logger) *Server {
	s := &Server{
		store: st,
		cfg:   cfg,
		log:   log.WithField("component", "server"),
	}
	if cfg.IngestPerMinute > 0 {
		s.limiter = ratelimit.NewTokenBucket(cfg.IngestPerMinute, time.Minute)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.throttle)
			r.Post("/ingest", s.handleIngest)
			// path used by the earlier web app
			r.Post("/ingest/file", s.handleIngest)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/groups", s.handleGroups)
		r.Get("/groups/{slug}/posts", s.handleGroupPosts)
		r.Get("/posts/{id}", s.handlePost)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.LogRequest(
				s.log.WithField("request_id", middleware.GetReqID(r.Context())),
				r.Method, r.URL.Path, status, time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// throttle rejects ingestion with 429 once the per-minute budget is spent
func (s *Server) throttle(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			wait := s.limiter.RetryAfter()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "too many ingestion requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", ln.Addr().String()).Info("Server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Server stopped")
	return nil
}
