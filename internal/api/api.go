// Package api serves archived runs over a read-only HTTP JSON API.
//
// Endpoints:
//
//	GET /health
//	GET /runs                                  list runs
//	GET /runs/:id                              run metadata and keys
//	GET /runs/:id/keys                         variable identifiers
//	GET /runs/:id/variables/:name              tensor (?chain=, ?include_adapt=)
//	GET /runs/:id/summary                      diagnostics (?hdi_prob=, ?var=...)
//	GET /runs/:id/trace/:name                  trace series (?elem=, ?include_adapt=)
//	GET /runs/:id/autocorr/:name               autocorrelation (?elem=, ?max_lag=)
//
// :name is a variable display form such as theta(3), URL-escaped as needed.
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/samples"
	"github.com/roach88/posterior/internal/store"
)

// RunSource is the archive the API reads from. *store.Store implements it.
type RunSource interface {
	ListRuns(ctx context.Context) ([]store.RunInfo, error)
	GetRun(ctx context.Context, id string) (store.RunInfo, error)
	LoadRun(ctx context.Context, id string) (*samples.Store, store.RunInfo, error)
}

// SummaryCache stores computed summaries. *cache.Cache implements it.
type SummaryCache interface {
	GetSummary(runID string, opts diagnostics.Options) (*diagnostics.Summary, error)
	PutSummary(runID string, opts diagnostics.Options, summary *diagnostics.Summary) error
}

// Handlers holds the HTTP handlers and their dependencies.
//
// Loaded sample stores are kept in memory: runs are immutable and stores
// are safe for concurrent reads, so every request after the first shares
// one copy. Concurrent first requests for a run share one load.
type Handlers struct {
	runs    RunSource
	cache   SummaryCache
	logger  *slog.Logger
	hdiProb float64

	mu     sync.RWMutex
	loaded map[string]*samples.Store
	group  singleflight.Group
}

// Option configures Handlers.
type Option func(*Handlers)

// WithCache enables summary caching.
func WithCache(c SummaryCache) Option {
	return func(h *Handlers) { h.cache = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handlers) { h.logger = l }
}

// WithDefaultHDIProb sets the interval mass used when a summary request
// does not specify one.
func WithDefaultHDIProb(p float64) Option {
	return func(h *Handlers) { h.hdiProb = p }
}

// NewHandlers creates handlers over runs.
func NewHandlers(runs RunSource, opts ...Option) *Handlers {
	h := &Handlers{
		runs:    runs,
		logger:  slog.Default(),
		hdiProb: diagnostics.DefaultHDIProb,
		loaded:  make(map[string]*samples.Store),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all endpoints on rg.
func RegisterRoutes(rg gin.IRoutes, h *Handlers) {
	rg.GET("/health", h.HandleHealth)
	rg.GET("/runs", h.HandleListRuns)
	rg.GET("/runs/:id", h.HandleGetRun)
	rg.GET("/runs/:id/keys", h.HandleKeys)
	rg.GET("/runs/:id/variables/:name", h.HandleVariable)
	rg.GET("/runs/:id/summary", h.HandleSummary)
	rg.GET("/runs/:id/trace/:name", h.HandleTrace)
	rg.GET("/runs/:id/autocorr/:name", h.HandleAutocorr)
}

// NewRouter returns a gin engine with recovery and request logging.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	RegisterRoutes(router, h)
	return router
}

func (h *Handlers) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		h.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

// loadStore returns the sample store of run id, loading it once.
//
// The archive is consulted on every call so a deleted run stops being
// served and its in-memory copy is dropped. The shared load runs detached
// from any single request; each caller still returns when its own context
// ends.
func (h *Handlers) loadStore(ctx context.Context, id string) (*samples.Store, error) {
	if _, err := h.runs.GetRun(ctx, id); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			h.forget(id)
		}
		return nil, err
	}

	h.mu.RLock()
	st, ok := h.loaded[id]
	h.mu.RUnlock()
	if ok {
		return st, nil
	}

	ch := h.group.DoChan(id, func() (any, error) {
		st, _, err := h.runs.LoadRun(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.loaded[id] = st
		h.mu.Unlock()
		h.logger.Debug("run loaded", "run", id, "variables", st.Len())
		return st, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*samples.Store), nil
	}
}

func (h *Handlers) forget(id string) {
	h.mu.Lock()
	delete(h.loaded, id)
	h.mu.Unlock()
}
