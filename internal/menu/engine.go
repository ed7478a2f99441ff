// Package menu derives the storefront product listing for a location from
// the navigable URL state: it resolves the location, gates the product
// search on the location's assignments, refines the results the backend
// cannot filter, and paginates.
package menu

import (
	"context"
	"time"

	"github.com/HerbHall/storefront/internal/cache"
	"github.com/HerbHall/storefront/internal/debounce"
	"github.com/HerbHall/storefront/internal/params"
	"github.com/HerbHall/storefront/internal/storeapi"
	"github.com/HerbHall/storefront/pkg/models"
	"go.uber.org/zap"
)

// Options tunes the engine and its sessions.
type Options struct {
	LocationTTL     time.Duration
	AssignmentTTL   time.Duration
	ProductTTL      time.Duration
	AssignmentLimit int
	SearchDebounce  time.Duration
	SessionIdleTTL  time.Duration
	MaxSessions     int

	CacheMetrics *cache.Metrics
	Metrics      *Metrics
}

// DefaultMaxSessions caps concurrently open sessions.
const DefaultMaxSessions = 10000

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		LocationTTL:     60 * time.Second,
		AssignmentTTL:   60 * time.Second,
		ProductTTL:      20 * time.Second,
		AssignmentLimit: DefaultAssignmentLimit,
		SearchDebounce:  debounce.DefaultInterval,
		SessionIdleTTL:  15 * time.Minute,
		MaxSessions:     DefaultMaxSessions,
	}
}

// Loader derives a View. Engine is the production implementation.
type Loader interface {
	Load(ctx context.Context, slug string, s params.State) View
}

// Compile-time interface guard.
var _ Loader = (*Engine)(nil)

// Engine runs the full derivation. It holds no per-request state; the
// navigable state is passed in and returned by value.
type Engine struct {
	resolver *Resolver
	gate     *Gate
	executor *Executor
	metrics  *Metrics
	logger   *zap.Logger
}

// NewEngine wires the pipeline stages over backend with their caches.
func NewEngine(backend Backend, opts Options, logger *zap.Logger) *Engine {
	cacheOpts := []cache.Option{cache.WithMetrics(opts.CacheMetrics)}
	locations := cache.New[[]models.Location]("locations", opts.LocationTTL, cacheOpts...)
	assignments := cache.New[models.AssignmentSet]("assignments", opts.AssignmentTTL, cacheOpts...)
	products := cache.New[storeapi.ProductPage]("products", opts.ProductTTL, cacheOpts...)

	return &Engine{
		resolver: NewResolver(backend, locations, logger),
		gate:     NewGate(backend, assignments, opts.AssignmentLimit, logger),
		executor: NewExecutor(backend, products, logger),
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// Resolver returns the engine's location resolver.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Set applies one navigable-state change. It is the only way callers should
// derive a new state from an old one.
func (e *Engine) Set(s params.State, key, value string) (params.State, error) {
	return params.Set(s, key, value)
}

// Load resolves slug, fetches the allow-list, runs the product query and
// post-filters the page. Fetch failures end up in View.Status, never as a
// panic or partial pipeline run.
func (e *Engine) Load(ctx context.Context, slug string, s params.State) View {
	v := e.load(ctx, slug, s)
	e.metrics.recordLoad(v.Status)
	return v
}

func (e *Engine) load(ctx context.Context, slug string, s params.State) View {
	v := newView(slug, s)

	loc, err := e.resolver.Resolve(ctx, slug)
	if err != nil {
		return v.withError(err)
	}
	v.Location = &loc

	allow, err := e.gate.Allow(ctx, loc.Name)
	if err != nil {
		return v.withError(err)
	}

	page, err := e.executor.Run(ctx, &allow, s)
	if err != nil {
		return v.withError(err)
	}

	items := NewPipeline(
		AllowListFilter{Allow: allow},
		DietaryFilter{Required: s.Filter.DietaryTags, Logger: e.logger},
	).Run(page.Items)

	v.Items = items
	v.FilteredCount = len(items)
	v.Pagination = Paginate(page.TotalCount, s.Page.PageSize, s.Page.CurrentPage)
	v.Status = StatusReady
	if len(items) == 0 {
		v.Status = StatusEmpty
	}
	return v
}
