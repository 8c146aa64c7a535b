package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyellow/program-catalog-go/internal/facet"
	"github.com/garyellow/program-catalog-go/internal/pagination"
	"github.com/garyellow/program-catalog-go/internal/program"
	"github.com/garyellow/program-catalog-go/internal/source"
)

// State is a session's load state.
type State string

// Session states.
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// View is a point-in-time copy of a session.
type View struct {
	SessionID string
	State     State
	Filter    facet.FilterState
	Page      pagination.PageState
	Items     []program.Program
	Origin    source.Origin
	Err       error
	Token     uint64
}

// UsingLocalData reports whether the current items came from the snapshot.
func (v View) UsingLocalData() bool {
	return v.Origin == source.OriginLocal
}

// filteredSet is the post-filter, pre-pagination result for one filter.
type filteredSet struct {
	key     string
	records []program.Program
	origin  source.Origin
}

// Session is one catalog listing view.
type Session struct {
	id    string
	orch  *Orchestrator
	pager *pagination.Controller

	mu       sync.Mutex
	token    uint64
	state    State
	filter   facet.FilterState
	page     int
	items    []program.Program
	origin   source.Origin
	err      error
	cache    *filteredSet
	lastUsed time.Time
}

// NewSession opens an idle session on page 1 with no filters.
// scrollToTop is invoked after each successful GoToPage and may be nil.
func (o *Orchestrator) NewSession(scrollToTop func()) *Session {
	return &Session{
		id:       uuid.NewString(),
		orch:     o,
		pager:    pagination.NewController(o.itemsPerPage, scrollToTop),
		state:    StateIdle,
		page:     1,
		lastUsed: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Current returns the session's latest committed view.
func (s *Session) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Load sets the filter and page and loads the matching page.
// Unknown facet keys are rejected before any state changes.
func (s *Session) Load(ctx context.Context, filter facet.FilterState, page int) (View, error) {
	if err := filter.Validate(); err != nil {
		return View{}, err
	}

	key := filter.Key()
	token, view, hit := s.begin(filter, page, key)
	if hit {
		return view, nil
	}

	res, err := s.orch.loader.Load(ctx)

	var set *filteredSet
	if err == nil {
		set = &filteredSet{key: key, records: facet.Apply(res.Programs, filter), origin: res.Origin}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token {
		s.orch.metrics.RecordCatalogLoad("stale")
		s.orch.logger.DebugContext(ctx, "Discarding superseded catalog load", "token", token, "latest", s.token)
		return View{}, ErrStale
	}

	if err != nil {
		s.state = StateError
		s.err = err
		s.items = nil
		s.cache = nil
		s.orch.metrics.RecordCatalogLoad("error")
		s.orch.logger.WithError(err).ErrorContext(ctx, "Catalog load failed")
		return s.viewLocked(), err
	}

	s.cache = set
	return s.commitLocked(set), nil
}

// begin issues a new load token and records the request. When the filtered
// set for key is cached it commits the page directly and reports a hit.
func (s *Session) begin(filter facet.FilterState, page int, key string) (uint64, View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token++
	s.state = StateLoading
	s.filter = filter
	s.page = page
	s.lastUsed = time.Now()

	if s.cache != nil && s.cache.key == key {
		s.orch.metrics.RecordCatalogCacheHit()
		return s.token, s.commitLocked(s.cache), true
	}
	return s.token, View{}, false
}

// commitLocked publishes the page of set for the session's requested page.
// The page is not clamped to the new total.
func (s *Session) commitLocked(set *filteredSet) View {
	s.pager.SetPage(s.page)
	state := s.pager.UpdateTotalPages(len(set.records))

	s.items = pagination.Paginate(set.records, state)
	s.origin = set.origin
	s.err = nil
	s.state = StateReady
	s.orch.metrics.RecordCatalogLoad("ready")
	return s.viewLocked()
}

// SetFilter replaces the whole filter and reloads the current page.
func (s *Session) SetFilter(ctx context.Context, filter facet.FilterState) (View, error) {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()
	return s.Load(ctx, filter, page)
}

// ToggleFacet toggles one facet key and reloads the current page.
func (s *Session) ToggleFacet(ctx context.Context, f facet.Facet, key string) (View, error) {
	s.mu.Lock()
	filter, page := s.filter.Toggle(f, key), s.page
	s.mu.Unlock()
	return s.Load(ctx, filter, page)
}

// ClearFilters drops every facet selection and reloads the current page.
func (s *Session) ClearFilters(ctx context.Context) (View, error) {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()
	return s.Load(ctx, facet.FilterState{}, page)
}

// GoToPage moves to page n. Outside [1, TotalPages] it is a no-op returning
// the current view and false.
func (s *Session) GoToPage(ctx context.Context, n int) (View, bool, error) {
	if !s.pager.GoToPage(n) {
		return s.Current(), false, nil
	}
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()
	view, err := s.Load(ctx, filter, n)
	return view, true, err
}

// Retry repeats the last load with identical parameters.
func (s *Session) Retry(ctx context.Context) (View, error) {
	s.mu.Lock()
	filter, page := s.filter, s.page
	s.mu.Unlock()
	return s.Load(ctx, filter, page)
}

// LastUsed returns when the session last started a load.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) viewLocked() View {
	page := s.pager.State()
	page.CurrentPage = s.page
	return View{
		SessionID: s.id,
		State:     s.state,
		Filter:    s.filter,
		Page:      page,
		Items:     s.items,
		Origin:    s.origin,
		Err:       s.err,
		Token:     s.token,
	}
}
