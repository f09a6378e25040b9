package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/brewery-pager/internal/app"
	"github.com/Sternrassler/brewery-pager/internal/config"
	"github.com/Sternrassler/brewery-pager/internal/testutil"
	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/rs/zerolog"
)

func testConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Env: "test",
		HTTP: config.HTTPConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ShutdownTimeout: 2 * time.Second,
		},
		API: config.APIConfig{
			BaseURL:     apiURL,
			UserAgent:   "brewery-proxy-test/1.0",
			Timeout:     5 * time.Second,
			MaxAttempts: 1,
		},
		Store: config.StoreConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "proxy.db"),
		},
		Paging: config.PagingConfig{PageSize: 10, MaxPageSize: 100},
		Warm: config.WarmConfig{
			Types:       []string{brewery.TypeMicro},
			Pages:       1,
			Concurrency: 1,
			Timeout:     5 * time.Second,
		},
	}
}

func TestServe_HealthAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, handler, time.Second, zerolog.Nop()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("GET /health = %d %q", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_ListenerError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln.Close()

	err = serve(context.Background(), ln, http.NotFoundHandler(), time.Second, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "serve") {
		t.Errorf("serve() error = %v, want serve error", err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()

	cfg := testConfig(t, api.URL())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, zerolog.Nop()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRun_BuildError(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Store.Driver = config.DriverPostgres

	if err := run(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Error("run() error = nil, want store error")
	}
}

func TestStartWarmSchedule(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	api.Seed(testutil.MakeBreweries(brewery.TypeMicro, "m", 3)...)

	cfg := testConfig(t, api.URL())
	deps, err := app.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer deps.Close()

	disabled, err := startWarmSchedule(context.Background(), deps, "", zerolog.Nop())
	if err != nil || disabled != nil {
		t.Fatalf("empty schedule = %v, %v; want nil, nil", disabled, err)
	}

	if _, err := startWarmSchedule(context.Background(), deps, "not a schedule", zerolog.Nop()); err == nil {
		t.Error("invalid schedule accepted")
	}

	c, err := startWarmSchedule(context.Background(), deps, "@every 1s", zerolog.Nop())
	if err != nil {
		t.Fatalf("startWarmSchedule() error = %v", err)
	}
	defer func() { <-c.Stop().Done() }()

	deadline := time.Now().Add(5 * time.Second)
	for api.GetPageRequests(brewery.TypeMicro, 1) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled warm never fetched page 1")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
