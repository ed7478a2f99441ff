package plugin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// testPlugin is a minimal plugin for testing.
type testPlugin struct {
	name    string
	initErr error
	health  *HealthStatus

	initCalls  int
	startCalls int
	stopCalls  int
	config     *viper.Viper
	events     *[]string
}

func newTestPlugin(name string, events *[]string) *testPlugin {
	return &testPlugin{name: name, events: events}
}

func (p *testPlugin) Name() string    { return p.name }
func (p *testPlugin) Version() string { return "1.0.0" }

func (p *testPlugin) Init(config *viper.Viper, _ *zap.Logger) error {
	p.initCalls++
	p.config = config
	return p.initErr
}

func (p *testPlugin) Start(_ context.Context) error {
	p.startCalls++
	if p.events != nil {
		*p.events = append(*p.events, "start:"+p.name)
	}
	return nil
}

func (p *testPlugin) Stop() error {
	p.stopCalls++
	if p.events != nil {
		*p.events = append(*p.events, "stop:"+p.name)
	}
	return nil
}

func (p *testPlugin) Routes() []Route {
	return []Route{{Method: "GET", Path: "/ping", Handler: func(http.ResponseWriter, *http.Request) {}}}
}

// healthPlugin adds HealthChecker.
type healthPlugin struct {
	*testPlugin
}

func (p healthPlugin) Health(context.Context) HealthStatus {
	return HealthStatus{Status: HealthDegraded, Details: map[string]string{"backend": "down"}}
}

// Compile-time interface guards.
var (
	_ Plugin        = (*testPlugin)(nil)
	_ HealthChecker = healthPlugin{}
)

func TestRegister(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	p := newTestPlugin("alpha", nil)
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Duplicate registration should fail.
	if err := reg.Register(p); err == nil {
		t.Fatal("Register() expected error for duplicate, got nil")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	if err := reg.Register(newTestPlugin("", nil)); err == nil {
		t.Fatal("Register() expected error for empty name, got nil")
	}
}

func TestInitAll_PassesSubtree(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	p := newTestPlugin("menu", nil)
	_ = reg.Register(p)

	v := viper.New()
	v.Set("plugins.menu.product_ttl", "5s")
	if err := reg.InitAll(v); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}

	if p.initCalls != 1 {
		t.Fatalf("Init calls = %d, want 1", p.initCalls)
	}
	if got := p.config.GetString("product_ttl"); got != "5s" {
		t.Errorf("sub config product_ttl = %q, want 5s", got)
	}
	if !reg.Enabled("menu") {
		t.Error("menu should be enabled")
	}
}

func TestInitAll_NilConfig(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	p := newTestPlugin("menu", nil)
	_ = reg.Register(p)

	if err := reg.InitAll(nil); err != nil {
		t.Fatalf("InitAll(nil) error = %v", err)
	}
	if p.config == nil {
		t.Error("plugin should receive an empty config, got nil")
	}
}

func TestInitAll_SkipsDisabled(t *testing.T) {
	var events []string
	reg := NewRegistry(zap.NewNop())
	on := newTestPlugin("on", &events)
	off := newTestPlugin("off", &events)
	_ = reg.Register(on)
	_ = reg.Register(off)

	v := viper.New()
	v.Set("plugins.off.enabled", false)
	if err := reg.InitAll(v); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if off.initCalls != 0 {
		t.Errorf("disabled plugin Init calls = %d, want 0", off.initCalls)
	}

	if err := reg.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	reg.StopAll()
	if off.startCalls != 0 || off.stopCalls != 0 {
		t.Errorf("disabled plugin started %d / stopped %d times", off.startCalls, off.stopCalls)
	}

	routes := reg.AllRoutes()
	if _, ok := routes["off"]; ok {
		t.Error("disabled plugin routes should not be mounted")
	}
	if len(routes["on"]) != 1 {
		t.Errorf("on routes = %d, want 1", len(routes["on"]))
	}
}

func TestInitAll_Error(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	p := newTestPlugin("broken", nil)
	p.initErr = errors.New("bad config")
	_ = reg.Register(p)

	err := reg.InitAll(viper.New())
	if err == nil || !errors.Is(err, p.initErr) {
		t.Fatalf("InitAll() error = %v, want wrapped init error", err)
	}
	if reg.Enabled("broken") {
		t.Error("plugin that failed Init should not be enabled")
	}
}

func TestStartStopOrder(t *testing.T) {
	var events []string
	reg := NewRegistry(zap.NewNop())
	_ = reg.Register(newTestPlugin("a", &events))
	_ = reg.Register(newTestPlugin("b", &events))

	if err := reg.InitAll(viper.New()); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if err := reg.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	reg.StopAll()

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestHealth(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	_ = reg.Register(healthPlugin{newTestPlugin("menu", nil)})
	_ = reg.Register(newTestPlugin("plain", nil))
	_ = reg.InitAll(viper.New())

	health := reg.Health(context.Background())
	if len(health) != 1 {
		t.Fatalf("Health() entries = %d, want 1", len(health))
	}
	if health["menu"].Status != HealthDegraded {
		t.Errorf("menu status = %q, want %q", health["menu"].Status, HealthDegraded)
	}
}

func TestGetAndAll(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	_ = reg.Register(newTestPlugin("a", nil))
	_ = reg.Register(newTestPlugin("b", nil))

	if _, ok := reg.Get("a"); !ok {
		t.Error("Get(a) not found")
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
	all := reg.All()
	if len(all) != 2 || all[0].Name() != "a" || all[1].Name() != "b" {
		t.Errorf("All() order wrong: %v", all)
	}
}
