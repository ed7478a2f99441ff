package menu

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/cache"
	"github.com/HerbHall/storefront/internal/params"
	"github.com/HerbHall/storefront/internal/storeapi"
	"github.com/HerbHall/storefront/pkg/models"
)

// fakeBackend is an in-memory Backend with per-endpoint errors and call counts.
type fakeBackend struct {
	mu          sync.Mutex
	locations   []models.Location
	assignments map[string][]string
	page        storeapi.ProductPage

	locationsErr   error
	assignmentsErr error
	productsErr    error

	locationCalls   int
	assignmentCalls int
	productCalls    int
	lastQuery       storeapi.ProductQuery
	lastLimit       int
}

// Compile-time interface guard.
var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{assignments: make(map[string][]string)}
}

func (f *fakeBackend) Locations(context.Context) ([]models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locationCalls++
	if f.locationsErr != nil {
		return nil, f.locationsErr
	}
	return f.locations, nil
}

func (f *fakeBackend) ProductLocations(_ context.Context, name string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignmentCalls++
	f.lastLimit = limit
	if f.assignmentsErr != nil {
		return nil, f.assignmentsErr
	}
	return f.assignments[name], nil
}

func (f *fakeBackend) Products(_ context.Context, q storeapi.ProductQuery) (storeapi.ProductPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	f.lastQuery = q
	if f.productsErr != nil {
		return storeapi.ProductPage{}, f.productsErr
	}
	return f.page, nil
}

func (f *fakeBackend) set(fn func(*fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) counts() (locations, assignments, products int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locationCalls, f.assignmentCalls, f.productCalls
}

// noCacheOptions disables caching so every load reaches the backend.
func noCacheOptions() Options {
	o := DefaultOptions()
	o.LocationTTL, o.AssignmentTTL, o.ProductTTL = 0, 0, 0
	return o
}

func newTestEngine(b Backend, opts Options) *Engine {
	return NewEngine(b, opts, zap.NewNop())
}

func products(ids ...string) []models.Product {
	out := make([]models.Product, len(ids))
	for i, id := range ids {
		out[i] = models.Product{ID: id, Name: "Product " + id}
	}
	return out
}

func ids(ps []models.Product) []string {
	out := make([]string, len(ps))
	for i := range ps {
		out[i] = ps[i].ID
	}
	return out
}

func newLocationCache() *cache.Cache[[]models.Location] {
	return cache.New[[]models.Location]("locations", time.Minute)
}

// loadRequest is one Load call awaiting a scripted reply.
type loadRequest struct {
	ctx   context.Context
	state params.State
	reply chan View
}

// scriptedLoader hands every Load to the test through requests. When
// honourCancel is set a cancelled load returns at once.
type scriptedLoader struct {
	requests     chan loadRequest
	honourCancel bool
}

func newScriptedLoader(honourCancel bool) *scriptedLoader {
	return &scriptedLoader{requests: make(chan loadRequest, 16), honourCancel: honourCancel}
}

func (l *scriptedLoader) Load(ctx context.Context, slug string, s params.State) View {
	req := loadRequest{ctx: ctx, state: s, reply: make(chan View, 1)}
	l.requests <- req
	if !l.honourCancel {
		return <-req.reply
	}
	select {
	case v := <-req.reply:
		return v
	case <-ctx.Done():
		return newView(slug, s).withError(ctx.Err())
	}
}

func (l *scriptedLoader) next() loadRequest {
	select {
	case req := <-l.requests:
		return req
	case <-time.After(2 * time.Second):
		panic("no load request arrived")
	}
}

// readyView builds the View a successful load of s would produce.
func readyView(slug string, s params.State, itemIDs ...string) View {
	v := newView(slug, s)
	v.Items = products(itemIDs...)
	v.FilteredCount = len(itemIDs)
	v.Pagination = Paginate(len(itemIDs), s.Page.PageSize, s.Page.CurrentPage)
	v.Status = StatusReady
	if len(itemIDs) == 0 {
		v.Status = StatusEmpty
	}
	return v
}

// recordingLoader answers immediately and records every state it was asked for.
type recordingLoader struct {
	mu     sync.Mutex
	states []params.State
}

func (l *recordingLoader) Load(_ context.Context, slug string, s params.State) View {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
	return readyView(slug, s, "p1")
}

func (l *recordingLoader) loads() []params.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]params.State, len(l.states))
	copy(out, l.states)
	return out
}
