package httpapi

import (
	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/Sternrassler/brewery-pager/pkg/pagination"
	"github.com/mmcloughlin/geohash"
)

type errorResponse struct {
	Error     string `json:"error"`
	Op        string `json:"op,omitempty"`
	Page      int    `json:"page,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type pageResponse struct {
	Type      string            `json:"type"`
	Page      int               `json:"page"`
	Items     []brewery.Brewery `json:"items"`
	PrevKey   *int              `json:"prev_key"`
	NextKey   *int              `json:"next_key"`
	FromStore bool              `json:"from_store"`
}

func newPageResponse(breweryType string, p *pagination.Page) pageResponse {
	return pageResponse{
		Type:      breweryType,
		Page:      p.Key,
		Items:     nonNil(p.Data),
		PrevKey:   p.PrevKey,
		NextKey:   p.NextKey,
		FromStore: p.FromStore,
	}
}

type eventResponse struct {
	Seq     int               `json:"seq"`
	Kind    string            `json:"kind"`
	Page    int               `json:"page"`
	Items   []brewery.Brewery `json:"items"`
	PrevKey *int              `json:"prev_key"`
	NextKey *int              `json:"next_key"`
	Error   string            `json:"error,omitempty"`
}

func newEventResponse(ev pagination.Event) eventResponse {
	out := eventResponse{
		Seq:     ev.Seq,
		Kind:    string(ev.Kind),
		Page:    ev.Page,
		Items:   nonNil(ev.Items),
		PrevKey: ev.PrevKey,
		NextKey: ev.NextKey,
	}
	if ev.Err != nil {
		out.Error = ev.Err.Error()
	}
	return out
}

type snapshotResponse struct {
	Type      string            `json:"type"`
	State     string            `json:"state"`
	Pages     []int             `json:"pages"`
	Items     []brewery.Brewery `json:"items"`
	PrevKey   *int              `json:"prev_key"`
	NextKey   *int              `json:"next_key"`
	LastError string            `json:"last_error,omitempty"`
	Events    int               `json:"events"`
}

func newSnapshotResponse(s pagination.Snapshot) snapshotResponse {
	out := snapshotResponse{
		Type:    s.Type,
		State:   string(s.State),
		Pages:   s.Pages,
		Items:   nonNil(s.Items),
		PrevKey: s.PrevKey,
		NextKey: s.NextKey,
		Events:  s.Events,
	}
	if s.LastError != nil {
		out.LastError = s.LastError.Error()
	}
	return out
}

// breweryResponse is a brewery with its geohash when coordinates are known.
type breweryResponse struct {
	brewery.Brewery
	Geohash string `json:"geohash,omitempty"`
}

func newBreweryResponse(b brewery.Brewery) breweryResponse {
	out := breweryResponse{Brewery: b}
	if b.HasLocation() {
		out.Geohash = geohash.Encode(*b.Latitude, *b.Longitude)
	}
	return out
}

type typesResponse struct {
	Types []string `json:"types"`
}

func nonNil(items []brewery.Brewery) []brewery.Brewery {
	if items == nil {
		return []brewery.Brewery{}
	}
	return items
}
