// Package testutil provides testing utilities for the brewery pager.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
)

// MockAPIResponse defines the behavior for a mock API endpoint response.
type MockAPIResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the brewery directory API. By default it
// serves the seeded catalogue with page/per_page pagination.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	catalogue map[string][]brewery.Brewery
	byID      map[string]brewery.Brewery
	failures  []MockAPIResponse

	// Tracking
	RequestCount      int
	PageRequests      map[string]int // "type/page" -> count
	LastRequestHeader http.Header
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:     make(map[string]func(w http.ResponseWriter, r *http.Request)),
		catalogue:    make(map[string][]brewery.Brewery),
		byID:         make(map[string]brewery.Brewery),
		PageRequests: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.URL.Path == "/v1/breweries" {
			key := r.URL.Query().Get("by_type") + "/" + r.URL.Query().Get("page")
			mock.PageRequests[key]++
		}

		var failure *MockAPIResponse
		if len(mock.failures) > 0 {
			failure = &mock.failures[0]
			mock.failures = mock.failures[1:]
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if failure != nil {
			writeResponse(w, *failure)
			return
		}
		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PageRequests = make(map[string]int)
	m.LastRequestHeader = nil
}

// Seed adds breweries to the catalogue. They are served in insertion order
// per type and are reachable by id.
func (m *MockAPI) Seed(breweries ...brewery.Brewery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range breweries {
		m.catalogue[b.Type] = append(m.catalogue[b.Type], b)
		m.byID[b.ID] = b
	}
}

// FailNext makes the next len(responses) requests return the given responses
// regardless of path.
func (m *MockAPI) FailNext(responses ...MockAPIResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, responses...)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockAPI) SetResponse(path string, resp MockAPIResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPageRequests returns how often a page of a type was requested.
func (m *MockAPI) GetPageRequests(breweryType string, page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageRequests[fmt.Sprintf("%s/%d", breweryType, page)]
}

// defaultHandler serves the catalogue.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-RateLimit-Remaining", "100")
	w.Header().Set("X-RateLimit-Reset", "60")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	switch {
	case r.URL.Path == "/v1/breweries":
		m.listHandler(w, r)
	case strings.HasPrefix(r.URL.Path, "/v1/breweries/"):
		m.detailHandler(w, strings.TrimPrefix(r.URL.Path, "/v1/breweries/"))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Couldn't find route"}`))
	}
}

func (m *MockAPI) listHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage <= 0 {
		perPage = 50
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}

	m.mu.RLock()
	items := m.catalogue[q.Get("by_type")]
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	pageItems := append([]brewery.Brewery{}, items[start:end]...)
	m.mu.RUnlock()

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(pageItems)
}

func (m *MockAPI) detailHandler(w http.ResponseWriter, id string) {
	m.mu.RLock()
	b, ok := m.byID[id]
	m.mu.RUnlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Couldn't find Brewery"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(b)
}

func writeResponse(w http.ResponseWriter, resp MockAPIResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// NewHealthyResponse creates a standard 200 OK response with rate limit headers.
func NewHealthyResponse(data string) MockAPIResponse {
	return MockAPIResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "100",
			"X-RateLimit-Reset":     "60",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockAPIResponse {
	return MockAPIResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message":"Rate limit exceeded"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "30",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockAPIResponse {
	return MockAPIResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"Internal server error"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "95",
			"X-RateLimit-Reset":     "60",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewBadRequestResponse creates a 400 Bad Request response.
func NewBadRequestResponse() MockAPIResponse {
	return MockAPIResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"errors":["Brewery type must include one of these types"]}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// MakeBreweries builds n valid breweries of one type with ids prefix-0..prefix-(n-1).
func MakeBreweries(breweryType, prefix string, n int) []brewery.Brewery {
	out := make([]brewery.Brewery, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, brewery.Brewery{
			ID:      fmt.Sprintf("%s-%03d", prefix, i),
			Name:    fmt.Sprintf("%s Brewing %d", prefix, i),
			Type:    breweryType,
			Country: "United States",
		})
	}
	return out
}
