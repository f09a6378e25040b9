package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry(t *testing.T) {
	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
	if Gatherer != prometheus.DefaultGatherer {
		t.Error("Gatherer should be the default Prometheus gatherer")
	}
}

func TestActiveStreams(t *testing.T) {
	before := testutil.ToFloat64(ActiveStreams)
	ActiveStreams.Inc()
	ActiveStreams.Inc()
	ActiveStreams.Dec()

	if got := testutil.ToFloat64(ActiveStreams) - before; got != 1 {
		t.Errorf("ActiveStreams delta = %v, want 1", got)
	}
	ActiveStreams.Dec()
}

func TestHandler(t *testing.T) {
	SetBuildInfo("test")
	WarmRuns.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`brewery_pager_build_info{goversion=`,
		`version="test"`,
		`brewery_pager_warm_runs_total{outcome="ok"}`,
		`brewery_pager_active_streams`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
