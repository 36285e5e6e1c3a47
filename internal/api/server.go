// Package api exposes repository history and review sessions over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ratelimit"
	"github.com/thomas-vilte/svnreview/internal/services"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxReviewIDs    = 50
)

// Repository is the read side of the version control adapter.
type Repository interface {
	GetCommits(ctx context.Context, filters models.CommitFilters, pagination models.PaginationParams) (*models.PaginatedResponse[models.Commit], error)
	GetCommitDetail(ctx context.Context, revision int64) (*models.CommitDetail, error)
	GetCommitDiff(ctx context.Context, revision int64) ([]models.Diff, error)
	GetRepositoryInfo(ctx context.Context) (*models.RepositoryInfo, error)
}

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	DefaultPageSize int
	MaxPageSize     int
	// TrustProxy keys rate limiting on X-Forwarded-For. Enable only behind a proxy
	// that overwrites the header.
	TrustProxy bool
	Now        func() time.Time
}

type Server struct {
	repo    Repository
	reviews *services.ReviewService
	catalog *services.CatalogService
	limiter *ratelimit.Limiter

	defaultPageSize int
	maxPageSize     int
	trustProxy      bool
	now             func() time.Time

	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server
}

func New(repo Repository, reviews *services.ReviewService, catalog *services.CatalogService, limiter *ratelimit.Limiter, opts Options) *Server {
	s := &Server{
		repo:            repo,
		reviews:         reviews,
		catalog:         catalog,
		limiter:         limiter,
		defaultPageSize: opts.DefaultPageSize,
		maxPageSize:     opts.MaxPageSize,
		trustProxy:      opts.TrustProxy,
		now:             opts.Now,
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = MaxPageSize
	}
	if s.defaultPageSize <= 0 || s.defaultPageSize > s.maxPageSize {
		s.defaultPageSize = min(DefaultPageSize, s.maxPageSize)
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.handler = s.recoverPanics(s.logRequests(s.mux))

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/svn/info", s.handleRepositoryInfo)
	s.mux.HandleFunc("GET /api/svn/commits", s.handleListCommits)
	s.mux.HandleFunc("GET /api/svn/commits/{revision}", s.handleCommitDetail)
	s.mux.HandleFunc("GET /api/svn/commits/{revision}/diff", s.handleCommitDiff)

	s.mux.Handle("POST /api/review", s.rateLimited(http.HandlerFunc(s.handleCreateReview)))
	s.mux.HandleFunc("GET /api/review", s.handleListReviews)
	s.mux.HandleFunc("GET /api/review/{sessionId}", s.handleGetReview)

	s.mux.HandleFunc("GET /api/rules", s.handleListRules)
	s.mux.HandleFunc("POST /api/rules", s.handleCreateRule)
	s.mux.HandleFunc("PATCH /api/rules/{id}", s.handleToggleRule)
	s.mux.HandleFunc("DELETE /api/rules/{id}", s.handleDeleteRule)

	s.mux.HandleFunc("GET /api/prompts", s.handleListPrompts)
	s.mux.HandleFunc("POST /api/prompts", s.handleCreatePrompt)
	s.mux.HandleFunc("POST /api/prompts/{id}/activate", s.handleActivatePrompt)
	s.mux.HandleFunc("DELETE /api/prompts/{id}", s.handleDeletePrompt)

	s.mux.HandleFunc("/", s.handleNotFound)
}

// Handler returns the fully wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "api server listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info(ctx, "api server stopped")
	return nil
}
