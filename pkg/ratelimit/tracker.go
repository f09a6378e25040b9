package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrRateLimited is returned when the request budget is exhausted.
var ErrRateLimited = errors.New("rate limit exhausted")

// Prometheus metrics for rate limit tracking.
var (
	apiRequestsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brewery_api_requests_remaining",
		Help: "Number of requests remaining in the current API rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brewery_api_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to an exhausted rate limit",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brewery_api_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to a low rate limit",
	})
)

// DefaultThrottleDelay is the pause applied to each request in warning state.
const DefaultThrottleDelay = time.Second

// Tracker monitors the API rate limit and gates requests.
type Tracker struct {
	store    StateStore
	logger   zerolog.Logger
	throttle time.Duration
	now      func() time.Time
}

// NewTracker creates a new rate limit tracker. A nil store keeps state in process.
func NewTracker(store StateStore, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStateStore()
	}
	return &Tracker{
		store:    store,
		logger:   logger,
		throttle: DefaultThrottleDelay,
		now:      time.Now,
	}
}

// SetThrottleDelay overrides the warning state pause.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttle = d
}

// GetState returns the current state, or a default healthy state if none
// has been recorded.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		t.logger.Debug().Msg("No rate limit state recorded, returning default healthy state")
		return DefaultState(t.now()), nil
	}
	return state, nil
}

// UpdateFromHeaders parses the rate limit headers of a response and stores
// the new state. Responses without the headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	// Parse X-RateLimit-Remaining; responses without it carry no update
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	// Parse X-RateLimit-Reset (seconds until the window resets)
	resetSeconds := 60
	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		resetSeconds, err = strconv.Atoi(resetStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
	}

	// Create updated state
	now := t.now()
	state := &State{
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	// Share it with every client on the same store
	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	// Update Prometheus metrics
	apiRequestsRemaining.Set(float64(remain))

	// Log state update
	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Bool("is_healthy", state.IsHealthy).
			Msg("API rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. In warning
// state it pauses first; the pause ends early if ctx is cancelled. A window
// that has already reset never blocks.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}
	// Window already reset: the recorded budget no longer applies
	if state.TimeUntilReset(t.now()) == 0 {
		return true, nil
	}

	// Critical: Block all requests
	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset(t.now())).
			Msg("API rate limit critical - blocking request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	// Warning: pause before sending
	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("API rate limit warning - throttling request")

		rateLimitThrottlesTotal.Inc()
		timer := time.NewTimer(t.throttle)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	// Healthy: Allow request
	return true, nil
}
