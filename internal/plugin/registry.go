package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Registry manages the lifecycle of all registered plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string
	enabled map[string]bool
	logger  *zap.Logger
}

// NewRegistry creates a new plugin registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		enabled: make(map[string]bool),
		logger:  logger,
	}
}

// Register adds a plugin to the registry.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if name == "" {
		return fmt.Errorf("plugin name must not be empty")
	}
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}

	r.plugins[name] = p
	r.order = append(r.order, name)
	r.logger.Info("plugin registered", zap.String("name", name), zap.String("version", p.Version()))
	return nil
}

// InitAll initializes every enabled plugin with its "plugins.<name>" config
// subtree. Plugins with plugins.<name>.enabled=false are skipped and stay
// out of StartAll, StopAll and AllRoutes.
func (r *Registry) InitAll(config *viper.Viper) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if config == nil {
		config = viper.New()
	}

	for _, name := range r.order {
		p := r.plugins[name]

		pluginConfig := config.Sub("plugins." + name)
		if pluginConfig == nil {
			pluginConfig = viper.New()
		}

		key := "plugins." + name + ".enabled"
		if config.IsSet(key) && !config.GetBool(key) {
			r.logger.Info("plugin disabled, skipping", zap.String("name", name))
			continue
		}

		r.logger.Info("initializing plugin", zap.String("name", name))
		if err := p.Init(pluginConfig, r.logger.Named(name)); err != nil {
			return fmt.Errorf("failed to initialize plugin %q: %w", name, err)
		}
		r.enabled[name] = true
	}
	return nil
}

// StartAll starts all initialized plugins.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if !r.enabled[name] {
			continue
		}
		p := r.plugins[name]
		r.logger.Info("starting plugin", zap.String("name", name))
		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("failed to start plugin %q: %w", name, err)
		}
	}
	return nil
}

// StopAll stops all plugins in reverse order.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if !r.enabled[name] {
			continue
		}
		p := r.plugins[name]
		r.logger.Info("stopping plugin", zap.String("name", name))
		if err := p.Stop(); err != nil {
			r.logger.Error("failed to stop plugin", zap.String("name", name), zap.Error(err))
		}
	}
}

// Health collects the status of every enabled plugin that implements
// HealthChecker.
func (r *Registry) Health(ctx context.Context) map[string]HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]HealthStatus)
	for _, name := range r.order {
		if !r.enabled[name] {
			continue
		}
		if hc, ok := r.plugins[name].(HealthChecker); ok {
			out[name] = hc.Health(ctx)
		}
	}
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Enabled reports whether the named plugin was initialized by InitAll.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[name]
}

// All returns all registered plugins in registration order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.plugins[name])
	}
	return result
}

// AllRoutes returns the routes of every enabled plugin, keyed by plugin name.
func (r *Registry) AllRoutes() map[string][]Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string][]Route)
	for _, name := range r.order {
		if !r.enabled[name] {
			continue
		}
		p := r.plugins[name]
		if pr := p.Routes(); len(pr) > 0 {
			routes[name] = pr
		}
	}
	return routes
}
