package cache

import (
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
)

// Entry is the stored form of one brewery.
type Entry struct {
	Brewery brewery.Brewery `json:"brewery"`

	// StoredAt is when the record was last written
	StoredAt time.Time `json:"stored_at"`
}
