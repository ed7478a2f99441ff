package menu

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/HerbHall/storefront/internal/debounce"
	"github.com/HerbHall/storefront/internal/params"
	"go.uber.org/zap"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	SearchDebounce time.Duration
	Clock          debounce.Clock
	Now            func() time.Time
	Logger         *zap.Logger
}

// Session is one open menu screen. It owns the committed navigable state,
// the latest View and the search debounce buffer. Loads run in the
// background; a load superseded by a newer state change is cancelled and its
// result discarded.
type Session struct {
	id     string
	slug   string
	loader Loader
	search *debounce.Buffer
	now    func() time.Time
	logger *zap.Logger

	mu         sync.Mutex
	state      params.State
	view       View
	gen        uint64
	cancel     context.CancelFunc
	lastActive time.Time
	closed     bool
	subs       map[int]chan View
	nextSub    int

	wg sync.WaitGroup
}

// NewSession creates a session for slug and starts its first load.
func NewSession(id, slug string, s params.State, loader Loader, opts SessionOptions) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	sess := &Session{
		id:     id,
		slug:   slug,
		loader: loader,
		now:    opts.Now,
		logger: opts.Logger.With(zap.String("session", id), zap.String("slug", slug)),
		state:  s,
		subs:   make(map[int]chan View),
	}
	sess.search = debounce.New(opts.SearchDebounce, opts.Clock, sess.committedSearch, sess.commitSearch)

	sess.mu.Lock()
	sess.lastActive = sess.now()
	sess.startLoadLocked()
	sess.mu.Unlock()
	return sess
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Slug returns the location slug the session was opened for.
func (s *Session) Slug() string { return s.slug }

// State returns the committed navigable state.
func (s *Session) State() params.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the current view. While a load is pending it reports
// StatusLoading with the previous items.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	return s.view
}

// LastActive returns the time of the last client interaction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Navigate replaces the whole state, as when the client follows a link.
func (s *Session) Navigate(next params.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastActive = s.now()
	s.applyLocked(next)
	return nil
}

// Set applies one key change through params.Set. A rejected value leaves the
// state untouched and returns the validation error. A change that does not
// alter the filters, sort or page does not reload.
func (s *Session) Set(key, value string) (params.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state, ErrSessionClosed
	}
	s.lastActive = s.now()

	next, err := params.Set(s.state, key, value)
	if err != nil {
		return s.state, err
	}
	s.applyLocked(next)
	return s.state, nil
}

// Page moves to page n.
func (s *Session) Page(n int) (params.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state, ErrSessionClosed
	}
	s.lastActive = s.now()

	next, err := params.SetPage(s.state, n)
	if err != nil {
		return s.state, err
	}
	s.applyLocked(next)
	return s.state, nil
}

// Type buffers in-progress search text. It is committed once typing pauses.
func (s *Session) Type(text string) {
	s.touch()
	s.search.Input(text)
}

// SubmitSearch commits buffered search text immediately.
func (s *Session) SubmitSearch() {
	s.touch()
	s.search.Flush()
}

// PendingSearch returns the buffered, uncommitted search text.
func (s *Session) PendingSearch() string {
	return s.search.Pending()
}

// Retry reruns the load for the current state. Failed fetches are never
// cached, so the retry reaches the backend.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastActive = s.now()
	s.startLoadLocked()
	return nil
}

// Subscribe returns a channel that receives the current view and every view
// after it. Slow readers only see the latest view. cancel releases the
// subscription; the channel is closed when the session closes.
func (s *Session) Subscribe() (<-chan View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan View, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.view

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

// Close stops the search timer, cancels any in-flight load and closes all
// subscriptions. It is safe to call more than once.
func (s *Session) Close() {
	s.search.Stop()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()
	s.logger.Debug("session closed")
}

// Watched reports whether any subscriber is attached.
func (s *Session) Watched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}

// Wait blocks until every load started so far has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

func (s *Session) committedSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Filter.SearchQuery
}

func (s *Session) commitSearch(text string) {
	if _, err := s.Set(params.KeySearch, text); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.logger.Warn("search commit rejected", zap.String("text", text), zap.Error(err))
	}
}

// applyLocked commits next. Only filter, sort and page changes reload; a
// pass-through change such as fulfillment just republishes the view with the
// new query. Callers hold s.mu.
func (s *Session) applyLocked(next params.State) {
	if next.Equal(s.state) {
		return
	}
	reload := !next.Filter.Equal(s.state.Filter) || next.Sort != s.state.Sort || next.Page != s.state.Page
	s.state = next
	if reload {
		s.startLoadLocked()
		return
	}
	s.view.State = next
	s.view.Query = next.QueryString()
	s.publishLocked()
}

// startLoadLocked supersedes any in-flight load with one for the current
// state. Callers hold s.mu.
func (s *Session) startLoadLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	state := s.state

	pending := newView(s.slug, state)
	pending.Location = s.view.Location
	if len(s.view.Items) > 0 {
		pending.Items = s.view.Items
		pending.FilteredCount = s.view.FilteredCount
	}
	s.view = pending
	s.publishLocked()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		v := s.loader.Load(ctx, s.slug, state)
		s.finish(gen, v)
	}()
}

func (s *Session) finish(gen uint64, v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		s.logger.Debug("discarding superseded load", zap.String("query", v.Query))
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	// Pass-through keys may have changed while the load ran.
	if !v.State.Equal(s.state) {
		v.State = s.state
		v.Query = s.state.QueryString()
	}
	// A failed product query keeps the last good items on screen.
	if v.Status == StatusProductError && len(s.view.Items) > 0 {
		v.Items = s.view.Items
		v.FilteredCount = s.view.FilteredCount
	}
	s.view = v
	s.publishLocked()
}

func (s *Session) publishLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- s.view:
			continue
		default:
		}
		// Replace the unread view with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.view:
		default:
		}
	}
}
