// Package repository binds a persistent store and the brewery API into
// paging sources and single-brewery lookups.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/Sternrassler/brewery-pager/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Repository is the single entry point to brewery data.
type Repository struct {
	store      pagination.Store
	remote     pagination.Remote
	sourceOpts []pagination.SourceOption
	logger     zerolog.Logger
}

// Option customises a Repository.
type Option func(*Repository)

// WithSourceOptions applies opts to every Source the repository creates.
func WithSourceOptions(opts ...pagination.SourceOption) Option {
	return func(r *Repository) {
		r.sourceOpts = append(r.sourceOpts, opts...)
	}
}

// WithLogger sets the repository logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// New creates a Repository.
func New(store pagination.Store, remote pagination.Remote, opts ...Option) *Repository {
	if store == nil {
		panic("store cannot be nil")
	}
	if remote == nil {
		panic("remote cannot be nil")
	}

	r := &Repository{
		store:  store,
		remote: remote,
		logger: log.With().Str("component", "repository").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PagingSource returns a new Source for one brewery type.
func (r *Repository) PagingSource(breweryType string) *pagination.Source {
	return pagination.NewSource(r.store, r.remote, breweryType, r.sourceOpts...)
}

// SourceFactory returns PagingSource as a pagination.SourceFactory.
func (r *Repository) SourceFactory() pagination.SourceFactory {
	return r.PagingSource
}

// BreweryByID returns one brewery, reading the store first and falling back to
// the API. API hits are written to the store. It returns nil, nil when
// neither knows the id.
func (r *Repository) BreweryByID(ctx context.Context, id string) (*brewery.Brewery, error) {
	b, err := r.store.GetByID(ctx, id)
	if err == nil {
		r.logger.Debug().Str("id", id).Msg("Brewery served from store")
		return b, nil
	}
	if !errors.Is(err, brewery.ErrNotFound) {
		return nil, fmt.Errorf("read brewery %s: %w", id, err)
	}

	b, err = r.remote.FetchByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch brewery %s: %w", id, err)
	}
	if b == nil {
		r.logger.Debug().Str("id", id).Msg("Brewery not found")
		return nil, nil
	}

	if err := r.store.UpsertBreweries(ctx, []brewery.Brewery{*b}); err != nil {
		return nil, fmt.Errorf("store brewery %s: %w", id, err)
	}
	r.logger.Debug().Str("id", id).Str("type", b.Type).Msg("Brewery fetched and stored")
	return b, nil
}

// ClearCache marks every page of a type stale. Stored breweries are kept so
// they stay readable until the next fetch replaces them.
func (r *Repository) ClearCache(ctx context.Context, breweryType string) error {
	if err := r.store.ClearFreshness(ctx, breweryType); err != nil {
		return fmt.Errorf("clear freshness of %s: %w", breweryType, err)
	}
	r.logger.Info().Str("type", breweryType).Msg("Page freshness cleared")
	return nil
}
