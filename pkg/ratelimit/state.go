// Package ratelimit tracks the brewery API's request budget and gates
// requests before it runs out. It reads the X-RateLimit-Remaining and
// X-RateLimit-Reset headers of every response.
package ratelimit

import (
	"time"
)

// Response headers carrying the rate limit budget.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Thresholds for rate limit decisions.
const (
	// RemainingThresholdCritical blocks all requests when remaining requests fall below this value.
	RemainingThresholdCritical = 2

	// RemainingThresholdWarning applies throttling when remaining requests fall below this value.
	RemainingThresholdWarning = 10

	// RemainingThresholdHealthy indicates normal operation.
	RemainingThresholdHealthy = 25
)

// State represents the current request budget. It is shared across client
// instances through a StateStore.
type State struct {
	// Remaining is the number of requests left in the current window.
	// Extracted from the X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	// Calculated from the X-RateLimit-Reset header (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the first response reports real numbers.
func DefaultState(now time.Time) *State {
	return &State{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0 if the
// reset time has passed.
func (s *State) TimeUntilReset(now time.Time) time.Duration {
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdHealthy
}
