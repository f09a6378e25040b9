package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
)

// MemoryStore is an in-memory brewery store. Breweries of a type are returned
// ordered by id, like the SQL store.
type MemoryStore struct {
	mu        sync.Mutex
	breweries map[string]brewery.Brewery
	freshness map[freshnessKey]int64

	// Error injection; a non-nil field makes the matching method fail.
	UpsertErr         error
	QueryErr          error
	GetErr            error
	GetFreshnessErr   error
	SetFreshnessErr   error
	ClearFreshnessErr error

	// Tracking
	UpsertCalls       int
	SetFreshnessCalls int
	QueryCalls        int
}

type freshnessKey struct {
	breweryType string
	page        int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		breweries: make(map[string]brewery.Brewery),
		freshness: make(map[freshnessKey]int64),
	}
}

// UpsertBreweries inserts or replaces breweries by id.
func (s *MemoryStore) UpsertBreweries(_ context.Context, breweries []brewery.Brewery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpsertCalls++
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	for _, b := range breweries {
		s.breweries[b.ID] = b
	}
	return nil
}

// QueryPage returns up to limit breweries of a type after skipping offset.
func (s *MemoryStore) QueryPage(_ context.Context, breweryType string, limit, offset int) ([]brewery.Brewery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueryCalls++
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}

	var matching []brewery.Brewery
	for _, b := range s.breweries {
		if b.Type == breweryType {
			matching = append(matching, b)
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].ID < matching[j].ID })

	if offset >= len(matching) {
		return []brewery.Brewery{}, nil
	}
	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}
	return append([]brewery.Brewery{}, matching[offset:end]...), nil
}

// GetByID returns brewery.ErrNotFound when the brewery is unknown.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*brewery.Brewery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	b, ok := s.breweries[id]
	if !ok {
		return nil, brewery.ErrNotFound
	}
	return &b, nil
}

// GetFreshness returns brewery.ErrNotFound for pages never fetched.
func (s *MemoryStore) GetFreshness(_ context.Context, breweryType string, page int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetFreshnessErr != nil {
		return 0, s.GetFreshnessErr
	}
	ts, ok := s.freshness[freshnessKey{breweryType, page}]
	if !ok {
		return 0, brewery.ErrNotFound
	}
	return ts, nil
}

// SetFreshness records the fetch time of a page.
func (s *MemoryStore) SetFreshness(_ context.Context, f brewery.PageFreshness) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetFreshnessCalls++
	if s.SetFreshnessErr != nil {
		return s.SetFreshnessErr
	}
	s.freshness[freshnessKey{f.Type, f.Page}] = f.LastUpdated
	return nil
}

// ClearFreshness forgets the fetch times of every page of a type.
func (s *MemoryStore) ClearFreshness(_ context.Context, breweryType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearFreshnessErr != nil {
		return s.ClearFreshnessErr
	}
	for k := range s.freshness {
		if k.breweryType == breweryType {
			delete(s.freshness, k)
		}
	}
	return nil
}

// Len returns the number of stored breweries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.breweries)
}
