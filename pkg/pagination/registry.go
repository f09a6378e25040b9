package pagination

import (
	"context"
	"sort"
	"sync"

	"github.com/Sternrassler/brewery-pager/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SourceFactory builds a Source for a brewery type.
type SourceFactory func(breweryType string) *Source

// Registry holds one Pager per brewery type for the lifetime of its scope, so
// repeated subscriptions resume where the previous one left off.
//
// Cached pagers are never evicted or restarted; only Close drops them.
type Registry struct {
	scope    context.Context
	cancel   context.CancelFunc
	factory  SourceFactory
	pageSize int
	logger   zerolog.Logger

	pagers sync.Map // brewery type -> *Pager

	// createMu makes check-then-create atomic; steady-state reads skip it.
	createMu sync.Mutex
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithPageSize sets the page size of every Pager the registry creates.
func WithPageSize(size int) RegistryOption {
	return func(r *Registry) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a Registry whose scope is a child of parent.
func NewRegistry(parent context.Context, factory SourceFactory, opts ...RegistryOption) *Registry {
	if factory == nil {
		panic("source factory cannot be nil")
	}

	scope, cancel := context.WithCancel(parent)
	r := &Registry{
		scope:    scope,
		cancel:   cancel,
		factory:  factory,
		pageSize: DefaultPageSize,
		logger:   log.With().Str("component", "pager-registry").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreateStream returns the Pager for breweryType, creating it on first
// use. Every call with the same type returns the same Pager.
func (r *Registry) GetOrCreateStream(breweryType string) *Pager {
	if p, ok := r.pagers.Load(breweryType); ok {
		return p.(*Pager)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	if p, ok := r.pagers.Load(breweryType); ok {
		return p.(*Pager)
	}

	p := NewPager(r.scope, r.factory(breweryType), r.pageSize)
	if r.scope.Err() != nil {
		// Closed registries hand out inert pagers and keep nothing.
		return p
	}
	r.pagers.Store(breweryType, p)
	metrics.ActiveStreams.Inc()

	r.logger.Debug().Str("type", breweryType).Int("page_size", r.pageSize).Msg("Created pager")
	return p
}

// Types returns the brewery types that currently have a Pager, sorted.
func (r *Registry) Types() []string {
	var types []string
	r.pagers.Range(func(key, _ any) bool {
		types = append(types, key.(string))
		return true
	})
	sort.Strings(types)
	return types
}

// Close ends the registry scope. In-flight loads are abandoned and every
// cached Pager is dropped.
func (r *Registry) Close() {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	r.cancel()
	r.pagers.Range(func(key, _ any) bool {
		r.pagers.Delete(key)
		metrics.ActiveStreams.Dec()
		return true
	})
	r.logger.Debug().Msg("Registry closed")
}
