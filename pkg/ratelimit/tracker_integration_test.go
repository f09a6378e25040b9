//go:build integration

package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Sternrassler/brewery-pager/internal/testutil"
	"github.com/rs/zerolog"
)

func TestTracker_Integration_SharedState(t *testing.T) {
	redisClient := testutil.StartRedis(t)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := context.Background()

	// Two trackers, as in two proxy replicas, share one budget.
	writer := NewTracker(NewRedisStateStore(redisClient), logger)
	reader := NewTracker(NewRedisStateStore(redisClient), logger)

	if err := writer.UpdateFromHeaders(ctx, headers("1", "60")); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	allowed, err := reader.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("reader allowed a request although the shared budget is exhausted")
	}

	if err := writer.UpdateFromHeaders(ctx, headers("80", "60")); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}
	state, err := reader.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 80 || !state.IsHealthy {
		t.Errorf("shared state = %+v", state)
	}
	if state.IsStale(time.Now(), time.Minute) {
		t.Error("fresh state reported stale")
	}
}
