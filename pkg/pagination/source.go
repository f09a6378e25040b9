package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for page loads.
var (
	pageLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brewery_page_loads_total",
		Help: "Total page loads by brewery type and source (store, remote)",
	}, []string{"type", "source"})

	pageLoadErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brewery_page_load_errors_total",
		Help: "Total failed page loads by brewery type and failing operation",
	}, []string{"type", "op"})

	pageLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brewery_page_load_duration_seconds",
		Help:    "Page load duration in seconds by source",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"source"})
)

// FirstPage is the key loaded when no key is given.
const FirstPage = 1

// Store is the local persistence the loader reads pages from and writes
// fetched pages to.
type Store interface {
	UpsertBreweries(ctx context.Context, breweries []brewery.Brewery) error
	QueryPage(ctx context.Context, breweryType string, limit, offset int) ([]brewery.Brewery, error)
	// GetByID returns brewery.ErrNotFound if the brewery is not stored.
	GetByID(ctx context.Context, id string) (*brewery.Brewery, error)
	// GetFreshness returns the page's last fetch time in epoch milliseconds,
	// or brewery.ErrNotFound if the page was never fetched.
	GetFreshness(ctx context.Context, breweryType string, page int) (int64, error)
	SetFreshness(ctx context.Context, f brewery.PageFreshness) error
	ClearFreshness(ctx context.Context, breweryType string) error
}

// Remote is the paginated brewery API.
type Remote interface {
	// FetchByType returns one page of breweries of the given type. An empty
	// slice means there are no more pages.
	FetchByType(ctx context.Context, breweryType string, perPage, page int) ([]brewery.Brewery, error)
	// FetchByID returns nil, nil if the brewery does not exist.
	FetchByID(ctx context.Context, id string) (*brewery.Brewery, error)
}

// LoadParams describes one page request.
type LoadParams struct {
	// Key is the page number to load; nil loads FirstPage.
	Key *int
	// LoadSize is the number of breweries per page.
	LoadSize int
}

// Page is one loaded page with the keys to its neighbours.
type Page struct {
	Key  int
	Data []brewery.Brewery

	// PrevKey is nil on the first page.
	PrevKey *int
	// NextKey is nil when this page came back empty.
	NextKey *int

	// FromStore is true when the page was served without a remote fetch.
	FromStore bool
}

// Load operations reported in LoadError.Op.
const (
	OpReadFreshness  = "read_freshness"
	OpFetch          = "fetch"
	OpWriteFreshness = "write_freshness"
	OpUpsert         = "upsert"
	OpQueryStore     = "query_store"
	OpCancelled      = "cancelled"
)

// LoadError is returned for every failed load.
type LoadError struct {
	Type string
	Page int
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s page %d: %s: %v", e.Type, e.Page, e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Source loads pages of one brewery type, serving fresh pages from the store
// and fetching stale or missing pages from the remote.
type Source struct {
	store       Store
	remote      Remote
	breweryType string
	now         func() time.Time
	logger      zerolog.Logger
}

// SourceOption customises a Source.
type SourceOption func(*Source)

// WithClock overrides the clock used for freshness decisions.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used by the Source.
func WithLogger(logger zerolog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a Source for one brewery type.
func NewSource(store Store, remote Remote, breweryType string, opts ...SourceOption) *Source {
	if store == nil {
		panic("store cannot be nil")
	}
	if remote == nil {
		panic("remote cannot be nil")
	}

	s := &Source{
		store:       store,
		remote:      remote,
		breweryType: breweryType,
		now:         time.Now,
		logger:      log.With().Str("component", "paging-source").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("type", breweryType).Logger()
	return s
}

// Type returns the brewery type this Source pages.
func (s *Source) Type() string {
	return s.breweryType
}

// Load returns the requested page. All failures are returned as *LoadError.
func (s *Source) Load(ctx context.Context, params LoadParams) (*Page, error) {
	page := FirstPage
	if params.Key != nil {
		page = *params.Key
	}
	now := s.now()

	lastUpdated, err := s.store.GetFreshness(ctx, s.breweryType, page)
	if err != nil {
		if !errors.Is(err, brewery.ErrNotFound) {
			return nil, s.fail(page, OpReadFreshness, err)
		}
		lastUpdated = 0
	}

	freshness := brewery.PageFreshness{Type: s.breweryType, Page: page, LastUpdated: lastUpdated}
	if freshness.IsStale(now) {
		return s.loadRemote(ctx, page, params.LoadSize, now)
	}
	return s.loadStore(ctx, page, params.LoadSize)
}

func (s *Source) loadRemote(ctx context.Context, page, size int, now time.Time) (*Page, error) {
	start := time.Now()
	defer func() {
		pageLoadDuration.WithLabelValues("remote").Observe(time.Since(start).Seconds())
	}()

	s.logger.Debug().Int("page", page).Int("load_size", size).Msg("Page stale, fetching from remote")

	breweries, err := s.remote.FetchByType(ctx, s.breweryType, size, page)
	if err != nil {
		return nil, s.fail(page, OpFetch, err)
	}

	// Nothing is committed once the caller has gone away.
	if err := ctx.Err(); err != nil {
		return nil, s.fail(page, OpCancelled, err)
	}

	// A page is stamped fresh only once its rows are stored.
	if err := s.store.UpsertBreweries(ctx, breweries); err != nil {
		return nil, s.fail(page, OpUpsert, err)
	}
	if err := s.store.SetFreshness(ctx, brewery.NewPageFreshness(s.breweryType, page, now)); err != nil {
		return nil, s.fail(page, OpWriteFreshness, err)
	}

	pageLoadsTotal.WithLabelValues(s.breweryType, "remote").Inc()
	return newPage(page, breweries, false), nil
}

func (s *Source) loadStore(ctx context.Context, page, size int) (*Page, error) {
	start := time.Now()
	defer func() {
		pageLoadDuration.WithLabelValues("store").Observe(time.Since(start).Seconds())
	}()

	s.logger.Debug().
		Int("page", page).
		Int("load_size", size).
		Int("offset", (page-1)*size).
		Msg("Page fresh, reading from store")

	breweries, err := s.store.QueryPage(ctx, s.breweryType, size, (page-1)*size)
	if err != nil {
		return nil, s.fail(page, OpQueryStore, err)
	}

	pageLoadsTotal.WithLabelValues(s.breweryType, "store").Inc()
	return newPage(page, breweries, true), nil
}

func (s *Source) fail(page int, op string, err error) error {
	pageLoadErrorsTotal.WithLabelValues(s.breweryType, op).Inc()
	s.logger.Warn().Err(err).Int("page", page).Str("op", op).Msg("Page load failed")
	return &LoadError{Type: s.breweryType, Page: page, Op: op, Err: err}
}

// newPage computes neighbour keys. Only an empty page ends pagination; a
// short page still gets a NextKey.
func newPage(key int, data []brewery.Brewery, fromStore bool) *Page {
	p := &Page{Key: key, Data: data, FromStore: fromStore}
	if data == nil {
		p.Data = []brewery.Brewery{}
	}
	if key > FirstPage {
		p.PrevKey = intPtr(key - 1)
	}
	if len(data) > 0 {
		p.NextKey = intPtr(key + 1)
	}
	return p
}

func intPtr(v int) *int { return &v }
