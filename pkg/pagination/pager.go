package pagination

import (
	"context"
	"errors"
	"sync"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 20

var (
	// ErrEndOfPagination is returned by Append once the last page came back empty.
	ErrEndOfPagination = errors.New("end of pagination")

	// ErrNoPreviousPage is returned by Prepend when the first loaded page is page 1.
	ErrNoPreviousPage = errors.New("no previous page")

	// ErrClosed is returned once the owning scope has ended.
	ErrClosed = errors.New("pager closed")
)

// StreamState is the lifecycle state of a Pager.
type StreamState string

const (
	StateIdle     StreamState = "idle"
	StateLoading  StreamState = "loading"
	StateLoaded   StreamState = "loaded"
	StateError    StreamState = "error"
	StateComplete StreamState = "complete"
	StateClosed   StreamState = "closed"
)

// EventKind tells the subscriber where to merge an event's items.
type EventKind string

const (
	EventAppend  EventKind = "append"
	EventPrepend EventKind = "prepend"
)

// Event is one element of a Pager's stream: a loaded page or a failed load.
type Event struct {
	// Seq is the position of the event in the stream, starting at 0.
	Seq     int
	Kind    EventKind
	Page    int
	Items   []brewery.Brewery
	PrevKey *int
	NextKey *int
	Err     error
}

// Snapshot is the merged view of everything a Pager has loaded.
type Snapshot struct {
	Type      string
	State     StreamState
	Pages     []int
	Items     []brewery.Brewery
	PrevKey   *int
	NextKey   *int
	LastError error
	Events    int
}

type pendingLoad struct {
	kind EventKind
	key  int
}

// Pager turns demand signals into page loads for one brewery type and keeps
// every result in an append-only event log that subscribers replay.
type Pager struct {
	breweryType string
	source      *Source
	pageSize    int
	startKey    int
	scope       context.Context
	logger      zerolog.Logger

	// loadMu serializes loads so pages resolve in request order.
	loadMu sync.Mutex

	mu      sync.Mutex
	state   StreamState
	pages   []Page
	events  []Event
	failed  *pendingLoad
	lastErr error
	changed chan struct{}
}

// PagerOption customises a Pager.
type PagerOption func(*Pager)

// StartAt makes the first demand load key instead of FirstPage, typically a
// key returned by RefreshKey.
func StartAt(key int) PagerOption {
	return func(p *Pager) {
		if key >= FirstPage {
			p.startKey = key
		}
	}
}

// NewPager creates a Pager bound to scope. When scope ends the pager drops its
// buffered pages and rejects further demand.
func NewPager(scope context.Context, source *Source, pageSize int, opts ...PagerOption) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	p := &Pager{
		breweryType: source.Type(),
		source:      source,
		pageSize:    pageSize,
		startKey:    FirstPage,
		scope:       scope,
		logger:      log.With().Str("component", "pager").Str("type", source.Type()).Logger(),
		state:       StateIdle,
		changed:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	context.AfterFunc(scope, func() {
		p.mu.Lock()
		p.pages = nil
		p.events = nil
		p.state = StateClosed
		p.notifyLocked()
		p.mu.Unlock()
	})

	return p
}

// Type returns the brewery type this Pager streams.
func (p *Pager) Type() string {
	return p.breweryType
}

// State returns the current lifecycle state.
func (p *Pager) State() StreamState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Append loads the page after the last loaded one, or the first page if
// nothing is loaded yet. After a failed append it retries the same page.
func (p *Pager) Append(ctx context.Context) (Event, error) {
	return p.demand(ctx, EventAppend)
}

// Prepend loads the page before the first loaded one.
func (p *Pager) Prepend(ctx context.Context) (Event, error) {
	return p.demand(ctx, EventPrepend)
}

func (p *Pager) demand(ctx context.Context, kind EventKind) (Event, error) {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	p.mu.Lock()
	if p.scope.Err() != nil {
		p.state = StateClosed
		p.mu.Unlock()
		return Event{}, ErrClosed
	}
	key, err := p.nextKeyLocked(kind)
	if err != nil {
		p.mu.Unlock()
		return Event{}, err
	}
	p.state = StateLoading
	p.mu.Unlock()

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.scope, cancel)
	defer stop()

	page, loadErr := p.source.Load(loadCtx, LoadParams{Key: intPtr(key), LoadSize: p.pageSize})

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scope.Err() != nil {
		p.logger.Debug().Int("page", key).Msg("Discarding load result after scope end")
		p.state = StateClosed
		return Event{}, ErrClosed
	}

	ev := Event{Seq: len(p.events), Kind: kind, Page: key}
	if loadErr != nil {
		ev.Err = loadErr
		p.failed = &pendingLoad{kind: kind, key: key}
		p.lastErr = loadErr
		p.state = StateError
	} else {
		ev.Items = page.Data
		ev.PrevKey = page.PrevKey
		ev.NextKey = page.NextKey
		p.failed = nil
		p.lastErr = nil
		if kind == EventPrepend {
			p.pages = append([]Page{*page}, p.pages...)
		} else {
			p.pages = append(p.pages, *page)
		}
		p.state = StateLoaded
		if p.pages[len(p.pages)-1].NextKey == nil {
			p.state = StateComplete
		}
	}

	p.events = append(p.events, ev)
	p.notifyLocked()
	return ev, ev.Err
}

// nextKeyLocked picks the page to load for a demand signal. The first demand
// loads the start key regardless of direction.
func (p *Pager) nextKeyLocked(kind EventKind) (int, error) {
	if p.failed != nil && p.failed.kind == kind {
		return p.failed.key, nil
	}
	if len(p.pages) == 0 {
		return p.startKey, nil
	}

	if kind == EventPrepend {
		first := p.pages[0]
		if first.PrevKey == nil {
			return 0, ErrNoPreviousPage
		}
		return *first.PrevKey, nil
	}

	last := p.pages[len(p.pages)-1]
	if last.NextKey == nil {
		return 0, ErrEndOfPagination
	}
	return *last.NextKey, nil
}

// notifyLocked wakes every subscriber waiting for new events.
func (p *Pager) notifyLocked() {
	close(p.changed)
	p.changed = make(chan struct{})
}

// Subscribe returns a channel that first replays every event already in the
// stream and then delivers new events in order. It never triggers a load.
// The channel is closed when ctx or the pager's scope ends.
func (p *Pager) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)
		next := 0
		for {
			p.mu.Lock()
			if p.scope.Err() != nil {
				p.mu.Unlock()
				return
			}
			pending := append([]Event(nil), p.events[next:]...)
			changed := p.changed
			p.mu.Unlock()

			for _, ev := range pending {
				select {
				case out <- ev:
					next++
				case <-ctx.Done():
					return
				case <-p.scope.Done():
					return
				}
			}
			if len(pending) > 0 {
				continue
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			case <-p.scope.Done():
				return
			}
		}
	}()

	return out
}

// Snapshot returns the merged list of loaded pages. Items repeated across
// pages are kept only at their first position.
func (p *Pager) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Type:      p.breweryType,
		State:     p.state,
		Pages:     make([]int, 0),
		Items:     make([]brewery.Brewery, 0),
		LastError: p.lastErr,
		Events:    len(p.events),
	}

	pages := p.pages
	if p.scope.Err() != nil {
		pages = nil
	}

	seen := make(map[string]struct{})
	for _, page := range pages {
		snap.Pages = append(snap.Pages, page.Key)
		for _, b := range page.Data {
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			snap.Items = append(snap.Items, b)
		}
	}

	if len(pages) > 0 {
		snap.PrevKey = pages[0].PrevKey
		snap.NextKey = pages[len(pages)-1].NextKey
	}
	return snap
}

// RefreshKey returns the page to resume from for an anchor position in the
// merged list, or nil to restart from the first page.
func (p *Pager) RefreshKey(anchor *int) *int {
	p.mu.Lock()
	pages := append([]Page(nil), p.pages...)
	p.mu.Unlock()

	return p.source.RefreshKey(State{Pages: pages, AnchorPosition: anchor})
}
