package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Service is the core contract the handlers call into.
type Service interface {
	CrawlCatalogResult(ctx context.Context) (crawler.CrawlResult, error)
	QueryItems(ctx context.Context, category string) ([]crawler.CatalogItem, error)
	ListCategories(ctx context.Context) ([]string, error)
	FetchHeadlines(ctx context.Context, pageCount int) ([]crawler.Headline, error)
	ListRuns(ctx context.Context) ([]crawler.CrawlResult, error)
	GetRun(ctx context.Context, runID string) (crawler.CrawlResult, error)
	Ready(ctx context.Context) error
}

// Config tunes handler behavior.
type Config struct {
	// DefaultPages is used by /headlines when ?pages is absent.
	DefaultPages int
	// RequestTimeout bounds every route except /init.
	RequestTimeout time.Duration
}

const (
	welcomeMessage  = "Welcome to the Book Scraper & Hacker News API"
	operationFailed = "operation failed"
)

// Server wires HTTP handlers to the service.
type Server struct {
	router chi.Router
	svc    Service
	idGen  crawler.IDGenerator
	cfg    Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc Service, idGen crawler.IDGenerator, cfg Config, logger *zap.Logger) *Server {
	if cfg.DefaultPages <= 0 {
		cfg.DefaultPages = 5
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, idGen: idGen, cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// A crawl runs to completion; it is detached from the request and not bounded.
	r.Post("/init", s.initCrawl)

	r.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(cfg.RequestTimeout))
		r.Get("/", s.root)
		r.Get("/books", s.books)
		r.Get("/categories", s.categories)
		r.Get("/headlines", s.headlines)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{runID}", s.getRun)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ready(r.Context()); err != nil {
		s.logFailure(r, "readiness check failed", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type initResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RunID     string `json:"run_id,omitempty"`
	RunStatus string `json:"run_status"`
	Collected int    `json:"collected"`
	Created   int    `json:"created"`
	Pages     int    `json:"pages_visited"`
}

func (s *Server) initCrawl(w http.ResponseWriter, r *http.Request) {
	// A disconnecting client must not cancel the crawl.
	ctx := context.WithoutCancel(r.Context())
	result, err := s.svc.CrawlCatalogResult(ctx)
	if err != nil {
		s.logFailure(r, "catalog crawl failed", err,
			zap.Int("collected", result.Collected),
			zap.String("run_id", result.RunID),
		)
		writeError(w, http.StatusInternalServerError, operationFailed)
		return
	}
	writeJSON(w, http.StatusOK, initResponse{
		Status:    "success",
		Message:   "Book scraping process completed",
		RunID:     result.RunID,
		RunStatus: string(result.Status),
		Collected: result.Collected,
		Created:   result.Created,
		Pages:     result.PagesVisited,
	})
}

type booksResponse struct {
	Status string                `json:"status"`
	Count  int                   `json:"count"`
	Books  []crawler.CatalogItem `json:"books"`
}

func (s *Server) books(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.QueryItems(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.logFailure(r, "item query failed", err)
		writeError(w, http.StatusInternalServerError, operationFailed)
		return
	}
	if items == nil {
		items = []crawler.CatalogItem{}
	}
	writeJSON(w, http.StatusOK, booksResponse{Status: "success", Count: len(items), Books: items})
}

type categoriesResponse struct {
	Status     string   `json:"status"`
	Count      int      `json:"count"`
	Categories []string `json:"categories"`
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.ListCategories(r.Context())
	if err != nil {
		s.logFailure(r, "category listing failed", err)
		writeError(w, http.StatusInternalServerError, operationFailed)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Status: "success", Count: len(cats), Categories: cats})
}

type headlinesResponse struct {
	Status    string             `json:"status"`
	Count     int                `json:"count"`
	Headlines []crawler.Headline `json:"headlines"`
}

func (s *Server) headlines(w http.ResponseWriter, r *http.Request) {
	pages := s.cfg.DefaultPages
	if raw := r.URL.Query().Get("pages"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, crawler.ErrInvalidPageCount.Error())
			return
		}
		pages = n
	}
	got, err := s.svc.FetchHeadlines(r.Context(), pages)
	if err != nil {
		if errors.Is(err, crawler.ErrInvalidPageCount) {
			writeError(w, http.StatusBadRequest, crawler.ErrInvalidPageCount.Error())
			return
		}
		s.logFailure(r, "headline fetch failed", err)
		writeError(w, http.StatusInternalServerError, operationFailed)
		return
	}
	if got == nil {
		got = []crawler.Headline{}
	}
	writeJSON(w, http.StatusOK, headlinesResponse{Status: "success", Count: len(got), Headlines: got})
}

type runsResponse struct {
	Status string                `json:"status"`
	Count  int                   `json:"count"`
	Runs   []crawler.CrawlResult `json:"runs"`
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.svc.ListRuns(r.Context())
	if err != nil {
		s.logFailure(r, "run listing failed", err)
		writeError(w, http.StatusInternalServerError, operationFailed)
		return
	}
	if runs == nil {
		runs = []crawler.CrawlResult{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Status: "success", Count: len(runs), Runs: runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, crawler.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, crawler.ErrRunNotFound.Error())
			return
		}
		s.logFailure(r, "run lookup failed", err)
		writeError(w, http.StatusInternalServerError, operationFailed)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) logFailure(r *http.Request, msg string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	s.logger.Error(msg, fields...)
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) newRequestID() string {
	if s.idGen != nil {
		if id, err := s.idGen.NewID(); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := s.newRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.String("request_id", requestIDFrom(r.Context())),
					zap.Any("panic", rec),
				)
				writeError(w, http.StatusInternalServerError, operationFailed)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, `{"error":"request timed out"}`)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
