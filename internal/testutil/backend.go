package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Backend is an in-process fake of the storefront REST backend. Payloads are
// served verbatim, so tests can exercise string-encoded numbers and mixed
// tag encodings. It does no server-side filtering.
type Backend struct {
	server *httptest.Server

	mu          sync.Mutex
	locations   []map[string]any
	assignments map[string][]any
	products    []map[string]any
	total       int
	failures    map[string]int
	calls       map[string]int
	queries     map[string]url.Values
}

// NewBackend starts a fake backend that is shut down when the test completes.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		assignments: make(map[string][]any),
		total:       -1,
		failures:    make(map[string]int),
		calls:       make(map[string]int),
		queries:     make(map[string]url.Values),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /locations", b.handle(func(url.Values) any {
		return b.locations
	}))
	mux.HandleFunc("GET /product-locations", b.handle(func(q url.Values) any {
		name := q.Get("location_name")
		rows := make([]map[string]any, 0, len(b.assignments[name]))
		for _, id := range b.assignments[name] {
			rows = append(rows, map[string]any{"product_id": id, "location_name": name})
		}
		return rows
	}))
	mux.HandleFunc("GET /products", b.handle(func(url.Values) any {
		total := b.total
		if total < 0 {
			total = len(b.products)
		}
		items := b.products
		if items == nil {
			items = []map[string]any{}
		}
		return map[string]any{"items": items, "total": total}
	}))
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) handle(body func(url.Values) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.calls[r.URL.Path]++
		b.queries[r.URL.Path] = r.URL.Query()
		if status, ok := b.failures[r.URL.Path]; ok {
			http.Error(w, http.StatusText(status), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body(r.URL.Query()))
	}
}

// URL returns the backend base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// AddLocation appends a location payload.
func (b *Backend) AddLocation(loc map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locations = append(b.locations, loc)
}

// Assign sets the product IDs assigned to a location name. IDs may be
// strings or numbers.
func (b *Backend) Assign(locationName string, ids ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assignments[locationName] = ids
}

// SetProducts replaces the product payloads returned by every search.
func (b *Backend) SetProducts(products ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = products
}

// SetTotal overrides the reported search total. Negative means len(products).
func (b *Backend) SetTotal(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total = n
}

// Fail makes path answer with status until Recover is called.
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = status
}

// Recover clears a failure set with Fail.
func (b *Backend) Recover(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, path)
}

// Calls returns how many requests path has received.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// LastQuery returns the query of the most recent request to path.
func (b *Backend) LastQuery(path string) url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[path]
}
