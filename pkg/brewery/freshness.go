package brewery

import "time"

// ExpiryDuration is how long a fetched page is served from the local store
// before it is fetched again.
const ExpiryDuration = 5 * time.Minute

// PageFreshness records when a page of one brewery type was last fetched
// from the remote API. There is at most one record per (Type, Page).
type PageFreshness struct {
	Type string `json:"brewery_type"`
	Page int    `json:"page_number"`

	// LastUpdated is the fetch time in epoch milliseconds. Zero means the page
	// was never fetched.
	LastUpdated int64 `json:"last_updated"`
}

// NewPageFreshness stamps (t, page) with the given fetch time.
func NewPageFreshness(t string, page int, fetchedAt time.Time) PageFreshness {
	return PageFreshness{Type: t, Page: page, LastUpdated: fetchedAt.UnixMilli()}
}

// Age returns how long ago the page was fetched.
func (f PageFreshness) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-f.LastUpdated) * time.Millisecond
}

// IsStale reports whether the page must be fetched again. A page whose age
// equals ExpiryDuration is still fresh.
func (f PageFreshness) IsStale(now time.Time) bool {
	return f.Age(now) > ExpiryDuration
}

// FetchedAt returns LastUpdated as a time, or the zero time if never fetched.
func (f PageFreshness) FetchedAt() time.Time {
	if f.LastUpdated == 0 {
		return time.Time{}
	}
	return time.UnixMilli(f.LastUpdated)
}
