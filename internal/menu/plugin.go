package menu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/cache"
	"github.com/HerbHall/storefront/internal/config"
	"github.com/HerbHall/storefront/internal/debounce"
	"github.com/HerbHall/storefront/internal/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Plugin)(nil)
	_ plugin.HealthChecker = (*Plugin)(nil)
	_ plugin.Describer     = (*Plugin)(nil)
)

const defaultReapInterval = time.Minute

// Plugin is the menu module: it serves derived menus statelessly and hosts
// long-lived menu sessions.
type Plugin struct {
	backend    Backend
	registerer prometheus.Registerer
	clock      debounce.Clock

	logger       *zap.Logger
	opts         Options
	reapInterval time.Duration
	engine       *Engine
	sessions     *SessionStore

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the menu plugin over backend. Collectors are registered on reg
// during Init; a nil reg disables metrics.
func New(backend Backend, reg prometheus.Registerer) *Plugin {
	return &Plugin{backend: backend, registerer: reg}
}

// WithClock sets the clock session search buffers use. Intended for tests.
func (p *Plugin) WithClock(c debounce.Clock) *Plugin {
	p.clock = c
	return p
}

func (p *Plugin) Name() string        { return "menu" }
func (p *Plugin) Version() string     { return "0.1.0" }
func (p *Plugin) Description() string { return "Location-scoped product listing with filters and sessions" }

// Init reads the plugin's config subtree and builds the engine.
func (p *Plugin) Init(v *viper.Viper, logger *zap.Logger) error {
	if p.backend == nil {
		return fmt.Errorf("menu: no backend configured")
	}
	cfg := config.New(v)
	def := DefaultOptions()
	p.opts = Options{
		LocationTTL:     cfg.DurationOr("location_ttl", def.LocationTTL),
		AssignmentTTL:   cfg.DurationOr("assignment_ttl", def.AssignmentTTL),
		ProductTTL:      cfg.DurationOr("product_ttl", def.ProductTTL),
		AssignmentLimit: cfg.IntOr("assignment_limit", def.AssignmentLimit),
		SearchDebounce:  cfg.DurationOr("search_debounce", def.SearchDebounce),
		SessionIdleTTL:  cfg.DurationOr("session_idle_ttl", def.SessionIdleTTL),
		MaxSessions:     cfg.IntOr("max_sessions", def.MaxSessions),
	}
	p.reapInterval = cfg.DurationOr("reap_interval", defaultReapInterval)

	if p.registerer != nil {
		p.opts.CacheMetrics = cache.NewMetrics(p.registerer)
		p.opts.Metrics = NewMetrics(p.registerer)
	}

	p.logger = logger
	p.engine = NewEngine(p.backend, p.opts, logger)
	p.sessions = NewSessionStore(p.opts.SessionIdleTTL, p.opts.MaxSessions, p.opts.Metrics, logger)

	p.logger.Info("menu module initialized",
		zap.Duration("location_ttl", p.opts.LocationTTL),
		zap.Duration("assignment_ttl", p.opts.AssignmentTTL),
		zap.Duration("product_ttl", p.opts.ProductTTL),
		zap.Int("assignment_limit", p.opts.AssignmentLimit),
		zap.Duration("session_idle_ttl", p.opts.SessionIdleTTL),
		zap.Int("max_sessions", p.opts.MaxSessions),
	)
	return nil
}

// Start runs the idle-session reaper until Stop.
func (p *Plugin) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sessions.Run(ctx, p.reapInterval)
	}()
	p.logger.Info("menu module started")
	return nil
}

// Stop halts the reaper and closes every open session.
func (p *Plugin) Stop() error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	if p.sessions != nil {
		p.sessions.CloseAll()
	}
	if p.logger != nil {
		p.logger.Info("menu module stopped")
	}
	return nil
}

// Health reports degraded when the location collection cannot be loaded.
func (p *Plugin) Health(ctx context.Context) plugin.HealthStatus {
	locs, err := p.engine.Resolver().Locations(ctx)
	if err != nil {
		return plugin.HealthStatus{
			Status:  plugin.HealthDegraded,
			Details: map[string]string{"backend": err.Error()},
		}
	}
	return plugin.HealthStatus{
		Status: plugin.HealthOK,
		Details: map[string]string{
			"locations": fmt.Sprint(len(locs)),
			"sessions":  fmt.Sprint(p.sessions.Len()),
		},
	}
}

// Engine returns the plugin's engine. It is nil before Init.
func (p *Plugin) Engine() *Engine {
	return p.engine
}

// Sessions returns the plugin's session store. It is nil before Init.
func (p *Plugin) Sessions() *SessionStore {
	return p.sessions
}

func (p *Plugin) sessionOptions() SessionOptions {
	return SessionOptions{
		SearchDebounce: p.opts.SearchDebounce,
		Clock:          p.clock,
		Logger:         p.logger,
	}
}
